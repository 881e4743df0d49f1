package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-tracker/internal/catalog"
	"price-tracker/internal/models"
	"price-tracker/internal/platform"
	"price-tracker/internal/scraper"
)

type fakeTracker struct {
	rec *models.Product
	err error

	gotURL   string
	gotOwner string
}

func (f *fakeTracker) Track(_ context.Context, rawURL, owner string) (*models.Product, error) {
	f.gotURL = rawURL
	f.gotOwner = owner
	return f.rec, f.err
}

type fakeCatalog struct {
	products []models.Product
	alertErr error
	delErr   error
}

func (f *fakeCatalog) All(context.Context) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) FindByOwner(context.Context, string) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) SetAlert(context.Context, string, models.AlertSettings) error {
	return f.alertErr
}

func (f *fakeCatalog) Delete(context.Context, string) error {
	return f.delErr
}

func newRouter(tr Tracker, cat Catalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(tr, cat).Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrackProductSuccess(t *testing.T) {
	rec := &models.Product{
		ProductID: "B0ABC12345",
		Platform:  models.PlatformAmazon,
		Name:      "Widget",
		Price:     999,
	}
	r := newRouter(&fakeTracker{rec: rec}, &fakeCatalog{})

	w := doJSON(t, r, http.MethodPost, "/api/products", `{"url":"https://www.amazon.in/dp/B0ABC12345"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "B0ABC12345", resp.Data.ProductID)
}

func TestTrackProductForwardsOwner(t *testing.T) {
	tr := &fakeTracker{rec: &models.Product{
		ProductID: "B0ABC12345",
		Platform:  models.PlatformAmazon,
		Owner:     "user-42",
	}}
	r := newRouter(tr, &fakeCatalog{})

	w := doJSON(t, r, http.MethodPost, "/api/products",
		`{"url":"https://www.amazon.in/dp/B0ABC12345","owner":"user-42"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "user-42", tr.gotOwner)
	assert.Equal(t, "https://www.amazon.in/dp/B0ABC12345", tr.gotURL)

	var resp struct {
		Data models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-42", resp.Data.Owner)
}

func TestTrackProductClassificationErrorsAreClientErrors(t *testing.T) {
	for _, err := range []error{platform.ErrUnsupportedPlatform, platform.ErrMalformedURL} {
		r := newRouter(&fakeTracker{err: err}, &fakeCatalog{})
		w := doJSON(t, r, http.MethodPost, "/api/products", `{"url":"https://example.com/x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, err.Error())
	}
}

func TestTrackProductScrapeFailuresAreServerErrors(t *testing.T) {
	r := newRouter(&fakeTracker{err: scraper.ErrExtractionFailed}, &fakeCatalog{})
	w := doJSON(t, r, http.MethodPost, "/api/products", `{"url":"https://www.amazon.in/dp/B0ABC12345"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "could not extract")
}

func TestTrackProductEmptyBody(t *testing.T) {
	r := newRouter(&fakeTracker{}, &fakeCatalog{})
	w := doJSON(t, r, http.MethodPost, "/api/products", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProducts(t *testing.T) {
	r := newRouter(&fakeTracker{}, &fakeCatalog{products: []models.Product{
		{ProductID: "A1"}, {ProductID: "A2"},
	}})
	w := doJSON(t, r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A1")
	assert.Contains(t, w.Body.String(), "A2")
}

func TestSetAlert(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := newRouter(&fakeTracker{}, &fakeCatalog{})
		w := doJSON(t, r, http.MethodPost, "/api/products/abc123/alert", `{"targetPrice":899}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("invalid target price", func(t *testing.T) {
		r := newRouter(&fakeTracker{}, &fakeCatalog{})
		w := doJSON(t, r, http.MethodPost, "/api/products/abc123/alert", `{"targetPrice":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("unknown product", func(t *testing.T) {
		r := newRouter(&fakeTracker{}, &fakeCatalog{alertErr: catalog.ErrNotFound})
		w := doJSON(t, r, http.MethodPost, "/api/products/abc123/alert", `{"targetPrice":899}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteProduct(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := newRouter(&fakeTracker{}, &fakeCatalog{})
		w := doJSON(t, r, http.MethodDelete, "/api/products/abc123", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("unknown product", func(t *testing.T) {
		r := newRouter(&fakeTracker{}, &fakeCatalog{delErr: catalog.ErrNotFound})
		w := doJSON(t, r, http.MethodDelete, "/api/products/abc123", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
