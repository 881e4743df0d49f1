// Package scraper turns a rendered product page into a Snapshot. Every field
// is read through an ordered chain of strategies; the first one that yields a
// value wins and a chain where everything misses resolves to the NoData
// sentinel instead of an error. The sites A/B-test their markup constantly,
// so partial extraction is the normal case, not the exception.
package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"price-tracker/internal/browser"
	"price-tracker/internal/models"
)

// ErrExtractionFailed is returned when the product title cannot be read.
// Every other field may degrade to NoData, but a page without a title is not
// a product page worth tracking.
var ErrExtractionFailed = errors.New("could not extract product details from page")

// strategy is one attempt at reading a single field from a rendered page.
type strategy interface {
	extract(page browser.Page) (string, bool)
}

// text waits for selector and reads its text content.
type text struct {
	selector string
}

func (s text) extract(page browser.Page) (string, bool) {
	v, err := page.Text(s.selector)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// attr waits for selector and reads one of its attributes.
type attr struct {
	selector string
	name     string
}

func (s attr) extract(page browser.Page) (string, bool) {
	v, err := page.Attr(s.selector, s.name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// dynamicImage reads Amazon's data-a-dynamic-image attribute, a JSON object
// keyed by image URL, and returns one of its keys. It is the most reliable
// image source when present.
type dynamicImage struct {
	selector string
}

func (s dynamicImage) extract(page browser.Page) (string, bool) {
	raw, err := page.Attr(s.selector, "data-a-dynamic-image")
	if err != nil || raw == "" {
		return "", false
	}
	var urls map[string]any
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return "", false
	}
	for u := range urls {
		return u, true
	}
	return "", false
}

// docQuery parses the rendered HTML with goquery and runs fn over the
// document. Last-resort fallback for markup the selector strategies cannot
// reach, such as meta tags.
type docQuery struct {
	fn func(doc *goquery.Document) string
}

func (s docQuery) extract(page browser.Page) (string, bool) {
	html, err := page.HTML()
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	if v := strings.TrimSpace(s.fn(doc)); v != "" {
		return v, true
	}
	return "", false
}

// literal always yields a fixed value, for fields a platform has no reliable
// element for.
type literal string

func (s literal) extract(browser.Page) (string, bool) {
	return string(s), true
}

// fields lists the strategy chains for one platform.
type fields struct {
	title        []strategy
	image        []strategy
	price        []strategy
	discount     []strategy
	availability []strategy
	ratings      []strategy
	totalRatings []strategy
}

func platformFields(p models.Platform) (fields, bool) {
	switch p {
	case models.PlatformAmazon:
		return amazonFields, true
	case models.PlatformFlipkart:
		return flipkartFields, true
	}
	return fields{}, false
}

// first returns the first value yielded by the chain, or NoData.
func first(page browser.Page, chain []strategy) string {
	for _, s := range chain {
		if v, ok := s.extract(page); ok {
			return v
		}
	}
	return models.NoData
}

// Extract reads a full product snapshot from a rendered page.
func Extract(page browser.Page, p models.Platform) (*models.Snapshot, error) {
	f, ok := platformFields(p)
	if !ok {
		return nil, fmt.Errorf("no selectors registered for platform %q", p)
	}

	title := first(page, f.title)
	if title == models.NoData {
		return nil, fmt.Errorf("%w: product title not found", ErrExtractionFailed)
	}

	return &models.Snapshot{
		Title:        title,
		Image:        first(page, f.image),
		Price:        ParseNumber(first(page, f.price)),
		Discount:     first(page, f.discount),
		Availability: first(page, f.availability),
		Ratings:      ParseNumber(first(page, f.ratings)),
		TotalRatings: int(ParseCount(first(page, f.totalRatings))),
	}, nil
}

// ExtractImage runs only the image chain. The on-demand path uses it to
// backfill a missing image without re-reading price or ratings.
func ExtractImage(page browser.Page, p models.Platform) string {
	f, ok := platformFields(p)
	if !ok {
		return models.NoData
	}
	return first(page, f.image)
}

var (
	nonNumeric = regexp.MustCompile(`[^0-9.]`)
	nonDigit   = regexp.MustCompile(`[^0-9]`)
)

// ParseNumber strips currency symbols, separators and labels from raw element
// text and parses the remainder. Empty or unparsable text yields 0 so a
// broken selector never aborts a scrape.
func ParseNumber(raw string) float64 {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCount is ParseNumber for integer counts such as rating totals, where
// dots are thousand noise rather than decimal points.
func ParseCount(raw string) int64 {
	cleaned := nonDigit.ReplaceAllString(raw, "")
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
