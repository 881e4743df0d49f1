// Package server is the thin HTTP boundary over the monitoring engine.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"price-tracker/internal/catalog"
	"price-tracker/internal/models"
	"price-tracker/internal/platform"
)

// Tracker is the on-demand fetch orchestrator as the handlers see it.
type Tracker interface {
	Track(ctx context.Context, rawURL, owner string) (*models.Product, error)
}

// Catalog is the read/management surface the handlers need.
type Catalog interface {
	All(ctx context.Context) ([]models.Product, error)
	FindByOwner(ctx context.Context, owner string) ([]models.Product, error)
	SetAlert(ctx context.Context, id string, alert models.AlertSettings) error
	Delete(ctx context.Context, id string) error
}

// Handler holds the route handlers.
type Handler struct {
	tracker Tracker
	catalog Catalog
}

// New constructs a Handler.
func New(tracker Tracker, cat Catalog) *Handler {
	return &Handler{tracker: tracker, catalog: cat}
}

// Register mounts the product routes on r.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api/products")
	api.POST("", h.trackProduct)
	api.GET("", h.listProducts)
	api.POST("/:id/alert", h.setAlert)
	api.DELETE("/:id", h.deleteProduct)
}

type trackRequest struct {
	URL   string `json:"url" binding:"required"`
	Owner string `json:"owner"`
}

// trackProduct serves POST /api/products. Classification failures are client
// errors; scrape failures are server errors with the message passed through.
func (h *Handler) trackProduct(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "empty url received"})
		return
	}

	rec, err := h.tracker.Track(c.Request.Context(), req.URL, req.Owner)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, platform.ErrUnsupportedPlatform) || errors.Is(err, platform.ErrMalformedURL) {
			status = http.StatusBadRequest
		} else {
			log.Error().Err(err).Str("url", req.URL).Msg("track failed")
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

func (h *Handler) listProducts(c *gin.Context) {
	var (
		products []models.Product
		err      error
	)
	if owner := c.Query("owner"); owner != "" {
		products, err = h.catalog.FindByOwner(c.Request.Context(), owner)
	} else {
		products, err = h.catalog.All(c.Request.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("listing products failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

type alertRequest struct {
	TargetPrice float64 `json:"targetPrice"`
	ChatID      int64   `json:"chatId"`
	Owner       string  `json:"owner"`
}

func (h *Handler) setAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TargetPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid target price"})
		return
	}

	err := h.catalog.SetAlert(c.Request.Context(), c.Param("id"), models.AlertSettings{
		Enabled:     true,
		TargetPrice: req.TargetPrice,
		ChatID:      req.ChatID,
		Owner:       req.Owner,
	})
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", c.Param("id")).Msg("setting alert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not set alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "alert set"})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	err := h.catalog.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", c.Param("id")).Msg("deleting product failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
}
