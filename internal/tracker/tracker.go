// Package tracker serves the on-demand path: resolve a submitted URL to a
// tracked product, scraping it on first sight and answering from the catalog
// afterwards.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"price-tracker/internal/browser"
	"price-tracker/internal/catalog"
	"price-tracker/internal/models"
	"price-tracker/internal/platform"
	"price-tracker/internal/scraper"
)

// Store is the slice of the catalog the on-demand path needs.
type Store interface {
	FindOne(ctx context.Context, p models.Platform, productID string) (*models.Product, error)
	Insert(ctx context.Context, rec *models.Product) error
	SetImage(ctx context.Context, p models.Platform, productID, image string) error
	SetOwner(ctx context.Context, p models.Platform, productID, owner string) error
}

// Service is the on-demand fetch orchestrator. It holds no mutable state and
// is safe for arbitrary concurrent use; creation races on the same product
// are settled by the store's unique index.
type Service struct {
	store    Store
	launcher browser.Launcher
}

// New constructs a Service.
func New(store Store, launcher browser.Launcher) *Service {
	return &Service{store: store, launcher: launcher}
}

// Track resolves rawURL to its ProductRecord. A catalogued product with a
// usable image is returned without any network call; one with a missing image
// gets a lightweight image-only refresh; an unknown product is scraped,
// stored and returned. A non-empty owner is attached to the record when it
// has none yet. At most one browser round-trip happens per call.
func (s *Service) Track(ctx context.Context, rawURL, owner string) (*models.Product, error) {
	plat, pid, err := platform.Classify(rawURL)
	if err != nil {
		return nil, err
	}
	log.Info().Str("platform", string(plat)).Str("product_id", pid).Msg("track requested")

	existing, err := s.store.FindOne(ctx, plat, pid)
	switch {
	case err == nil:
		if !existing.HasImage() {
			if existing, err = s.refreshImage(ctx, existing); err != nil {
				return nil, err
			}
		}
		return s.claimOwner(ctx, existing, owner)
	case !errors.Is(err, catalog.ErrNotFound):
		return nil, err
	}

	return s.scrapeNew(ctx, rawURL, plat, pid, owner)
}

// claimOwner attaches owner to a record that has none yet. An ownerless
// submission or an already-owned record leaves the record as is.
func (s *Service) claimOwner(ctx context.Context, rec *models.Product, owner string) (*models.Product, error) {
	if owner == "" || rec.Owner != "" {
		return rec, nil
	}
	if err := s.store.SetOwner(ctx, rec.Platform, rec.ProductID, owner); err != nil {
		return nil, err
	}
	rec.Owner = owner
	return rec, nil
}

// refreshImage re-scrapes only the image of an already-tracked product whose
// stored reference is the sentinel. Price and history are untouched on this
// path even if the page shows a different price.
func (s *Service) refreshImage(ctx context.Context, rec *models.Product) (*models.Product, error) {
	page, closeAll, err := s.openPage(ctx, rec.URL)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	image := scraper.ExtractImage(page, rec.Platform)
	if image == models.NoData {
		// Still nothing on the page; keep the record as stored rather than
		// failing the whole call.
		return rec, nil
	}
	if err := s.store.SetImage(ctx, rec.Platform, rec.ProductID, image); err != nil {
		return nil, err
	}
	rec.Image = image
	log.Info().Str("product_id", rec.ProductID).Msg("backfilled product image")
	return rec, nil
}

func (s *Service) scrapeNew(ctx context.Context, rawURL string, plat models.Platform, pid, owner string) (*models.Product, error) {
	page, closeAll, err := s.openPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	snap, err := scraper.Extract(page, plat)
	if err != nil {
		return nil, err
	}

	rec := &models.Product{
		ProductID:    pid,
		Platform:     plat,
		URL:          rawURL,
		Name:         snap.Title,
		Price:        snap.Price,
		Image:        snap.Image,
		Ratings:      snap.Ratings,
		TotalRatings: snap.TotalRatings,
		Discount:     snap.Discount,
		Availability: snap.Availability,
		PriceHistory: []models.PricePoint{{Price: snap.Price, Date: time.Now()}},
		Owner:        owner,
	}

	err = s.store.Insert(ctx, rec)
	if errors.Is(err, catalog.ErrDuplicate) {
		// Another request created the product between our lookup and insert.
		// The unique index is the arbiter; return whichever record won.
		winner, err := s.store.FindOne(ctx, plat, pid)
		if err != nil {
			return nil, err
		}
		return s.claimOwner(ctx, winner, owner)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("platform", string(plat)).
		Str("product_id", pid).
		Float64("price", snap.Price).
		Msg("product tracked")
	return rec, nil
}

// openPage launches a browser, opens one tab and navigates it. The returned
// closer tears both down and must be called on every exit path.
func (s *Service) openPage(ctx context.Context, url string) (browser.Page, func(), error) {
	sess, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	page, err := sess.NewPage(ctx)
	if err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}

	if err := page.Navigate(url); err != nil {
		page.Close()
		sess.Close()
		return nil, nil, err
	}

	closeAll := func() {
		page.Close()
		sess.Close()
	}
	return page, closeAll, nil
}
