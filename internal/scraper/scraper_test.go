package scraper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-tracker/internal/models"
)

// fakePage serves canned selector results, standing in for a rendered page.
type fakePage struct {
	texts map[string]string
	attrs map[string]map[string]string
	html  string
}

func (p *fakePage) Navigate(string) error { return nil }

func (p *fakePage) Text(selector string) (string, error) {
	if v, ok := p.texts[selector]; ok {
		return v, nil
	}
	return "", fmt.Errorf("selector %q not found", selector)
}

func (p *fakePage) Attr(selector, attr string) (string, error) {
	if m, ok := p.attrs[selector]; ok {
		if v, ok := m[attr]; ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("attribute %q not found on %q", attr, selector)
}

func (p *fakePage) HTML() (string, error) {
	if p.html == "" {
		return "", fmt.Errorf("no rendered html")
	}
	return p.html, nil
}

func (p *fakePage) Close() {}

func TestExtractAmazon(t *testing.T) {
	page := &fakePage{
		texts: map[string]string{
			"#productTitle":                "Widget Deluxe",
			".a-price-whole":               "₹1,299.00",
			".savingsPercentage":           "-17%",
			"#availability .a-size-medium": "In stock",
			"#acrPopover > span.a-declarative > a > span": "4.3",
			"#acrCustomerReviewText":                      "12,897 ratings",
		},
		attrs: map[string]map[string]string{
			"#landingImage": {
				"data-a-dynamic-image": `{"https://img.example/widget.jpg":[500,500]}`,
			},
		},
	}

	snap, err := Extract(page, models.PlatformAmazon)
	require.NoError(t, err)

	assert.Equal(t, "Widget Deluxe", snap.Title)
	assert.Equal(t, "https://img.example/widget.jpg", snap.Image)
	assert.Equal(t, 1299.0, snap.Price)
	assert.Equal(t, "-17%", snap.Discount)
	assert.Equal(t, "In stock", snap.Availability)
	assert.Equal(t, 4.3, snap.Ratings)
	assert.Equal(t, 12897, snap.TotalRatings)
}

func TestExtractFlipkart(t *testing.T) {
	page := &fakePage{
		texts: map[string]string{
			".VU-ZEz":           "Gadget Pro",
			".Nx9bqj":           "₹949",
			".UkUFwK span":      "5% off",
			".XQDdHH":           "4.1",
			".Wphh3N span span": "1,204 Ratings",
		},
	}

	snap, err := Extract(page, models.PlatformFlipkart)
	require.NoError(t, err)

	assert.Equal(t, "Gadget Pro", snap.Title)
	assert.Equal(t, 949.0, snap.Price)
	// Flipkart has no availability element; listings are assumed in stock.
	assert.Equal(t, "Available", snap.Availability)
	assert.Equal(t, 1204, snap.TotalRatings)
	assert.Equal(t, models.NoData, snap.Image)
}

func TestExtractMissingTitleFailsScrape(t *testing.T) {
	page := &fakePage{
		texts: map[string]string{
			".a-price-whole": "999",
		},
	}

	_, err := Extract(page, models.PlatformAmazon)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractDegradesPerField(t *testing.T) {
	// Only the title resolves; everything else must fall back to sentinels,
	// never error out.
	page := &fakePage{
		texts: map[string]string{
			"#productTitle": "Bare Widget",
		},
	}

	snap, err := Extract(page, models.PlatformAmazon)
	require.NoError(t, err)

	assert.Equal(t, "Bare Widget", snap.Title)
	assert.Equal(t, models.NoData, snap.Image)
	assert.Equal(t, models.NoData, snap.Discount)
	assert.Equal(t, models.NoData, snap.Availability)
	assert.Zero(t, snap.Price)
	assert.Zero(t, snap.Ratings)
	assert.Zero(t, snap.TotalRatings)
}

func TestExtractImageFallbackOrder(t *testing.T) {
	t.Run("dynamic image wins when present", func(t *testing.T) {
		page := &fakePage{attrs: map[string]map[string]string{
			"#landingImage": {
				"data-a-dynamic-image": `{"https://img.example/dynamic.jpg":[1,1]}`,
				"data-old-hires":       "https://img.example/hires.jpg",
				"src":                  "https://img.example/small.jpg",
			},
		}}
		assert.Equal(t, "https://img.example/dynamic.jpg", ExtractImage(page, models.PlatformAmazon))
	})

	t.Run("hires attribute next", func(t *testing.T) {
		page := &fakePage{attrs: map[string]map[string]string{
			"#landingImage": {
				"data-old-hires": "https://img.example/hires.jpg",
				"src":            "https://img.example/small.jpg",
			},
		}}
		assert.Equal(t, "https://img.example/hires.jpg", ExtractImage(page, models.PlatformAmazon))
	})

	t.Run("plain src next", func(t *testing.T) {
		page := &fakePage{attrs: map[string]map[string]string{
			"#landingImage": {"src": "https://img.example/small.jpg"},
		}}
		assert.Equal(t, "https://img.example/small.jpg", ExtractImage(page, models.PlatformAmazon))
	})

	t.Run("rendered html sweep as last resort", func(t *testing.T) {
		page := &fakePage{
			html: `<html><body><div id="imgTagWrapperId"><img src="https://img.example/swept.jpg"></div></body></html>`,
		}
		assert.Equal(t, "https://img.example/swept.jpg", ExtractImage(page, models.PlatformAmazon))
	})

	t.Run("all strategies miss", func(t *testing.T) {
		assert.Equal(t, models.NoData, ExtractImage(&fakePage{}, models.PlatformAmazon))
	})
}

func TestExtractImageIgnoresMalformedDynamicImage(t *testing.T) {
	page := &fakePage{attrs: map[string]map[string]string{
		"#landingImage": {
			"data-a-dynamic-image": `{not json`,
			"src":                  "https://img.example/small.jpg",
		},
	}}
	assert.Equal(t, "https://img.example/small.jpg", ExtractImage(page, models.PlatformAmazon))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"₹1,299.00", 1299},
		{"", 0},
		{"No Data Found", 0},
		{"4.3", 4.3},
		{"949", 949},
		{"₹84,999", 84999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNumber(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"12,897 ratings", 12897},
		{"1,204 Ratings", 1204},
		{"", 0},
		{"No Data Found", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCount(tt.raw), "raw=%q", tt.raw)
	}
}
