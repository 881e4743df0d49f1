// Package monitor is the scheduled refresh orchestrator: it re-scrapes the
// whole catalog on a fixed interval, appends to price histories when prices
// move, and reports each change to a notifier.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"price-tracker/internal/browser"
	"price-tracker/internal/catalog"
	"price-tracker/internal/models"
	"price-tracker/internal/scraper"
)

// PriceChange is emitted when a refresh observes a new price for a tracked
// product.
type PriceChange struct {
	Record        *models.Product
	PreviousPrice float64
	NewPrice      float64
}

// Notifier consumes price-change events. Whether a change warrants a message
// is the notifier's decision; the monitor only reports it.
type Notifier interface {
	PriceChanged(ctx context.Context, change PriceChange)
}

// Store is the slice of the catalog the refresh path needs.
type Store interface {
	All(ctx context.Context) ([]models.Product, error)
	ApplyRefresh(ctx context.Context, p models.Platform, productID string, r catalog.Refresh) error
}

// Monitor runs the periodic refresh.
type Monitor struct {
	store     Store
	launcher  browser.Launcher
	notifier  Notifier
	interval  time.Duration
	itemDelay time.Duration
}

// New constructs a Monitor. notifier may be nil when no alert channel is
// configured.
func New(store Store, launcher browser.Launcher, notifier Notifier, interval, itemDelay time.Duration) *Monitor {
	return &Monitor{
		store:     store,
		launcher:  launcher,
		notifier:  notifier,
		interval:  interval,
		itemDelay: itemDelay,
	}
}

// Start runs one refresh immediately, then one per interval, until ctx is
// cancelled. Batch failures are logged and never crash the process.
func (m *Monitor) Start(ctx context.Context) {
	log.Info().Dur("interval", m.interval).Msg("price monitor started")

	if err := m.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("refresh batch failed")
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("price monitor stopped")
			return
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("refresh batch failed")
			}
		}
	}
}

// RunOnce performs a single full pass over the catalog. One browser serves
// the whole batch; records are processed strictly sequentially with a fixed
// delay between items, keeping outbound traffic below the sites' rate limits.
// A failing record is logged and skipped, never aborting the batch.
func (m *Monitor) RunOnce(ctx context.Context) error {
	products, err := m.store.All(ctx)
	if err != nil {
		return fmt.Errorf("listing catalog: %w", err)
	}
	if len(products) == 0 {
		log.Debug().Msg("no products to refresh")
		return nil
	}

	sess, err := m.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer sess.Close()

	log.Info().Int("products", len(products)).Msg("starting refresh batch")

	for i := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			// Throttle between items only; cancellation cuts the wait short.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.itemDelay):
			}
		}
		if err := m.refreshOne(ctx, sess, &products[i]); err != nil {
			log.Error().
				Err(err).
				Str("product_id", products[i].ProductID).
				Str("url", products[i].URL).
				Msg("product refresh failed, skipping")
		}
	}

	log.Info().Msg("refresh batch completed")
	return nil
}

func (m *Monitor) refreshOne(ctx context.Context, sess browser.Session, rec *models.Product) error {
	page, err := sess.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(rec.URL); err != nil {
		return err
	}

	snap, err := scraper.Extract(page, rec.Platform)
	if err != nil {
		return err
	}

	refresh := catalog.Refresh{
		Ratings:      snap.Ratings,
		TotalRatings: snap.TotalRatings,
		Discount:     snap.Discount,
		Availability: snap.Availability,
	}
	if snap.Price != rec.Price {
		refresh.NewPrice = &models.PricePoint{Price: snap.Price, Date: time.Now()}
	}

	if err := m.store.ApplyRefresh(ctx, rec.Platform, rec.ProductID, refresh); err != nil {
		return err
	}

	if refresh.NewPrice != nil {
		log.Info().
			Str("name", rec.Name).
			Float64("previous", rec.Price).
			Float64("current", snap.Price).
			Msg("price changed")
		if m.notifier != nil {
			m.notifier.PriceChanged(ctx, PriceChange{
				Record:        rec,
				PreviousPrice: rec.Price,
				NewPrice:      snap.Price,
			})
		}
	}
	return nil
}
