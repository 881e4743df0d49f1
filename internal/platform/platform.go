package platform

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"price-tracker/internal/models"
)

var (
	// ErrUnsupportedPlatform means the URL's hostname is not on the allow-list.
	ErrUnsupportedPlatform = errors.New("site is not supported for price tracking")
	// ErrMalformedURL means the platform is known but no product id could be
	// derived from the URL.
	ErrMalformedURL = errors.New("url does not contain a product id")
)

// hostPlatforms maps exact hostnames to their platform. Lookups are exact,
// not suffix matches, so lookalike domains never classify.
var hostPlatforms = map[string]models.Platform{
	"amazon.in":        models.PlatformAmazon,
	"www.amazon.in":    models.PlatformAmazon,
	"amazon.com":       models.PlatformAmazon,
	"www.amazon.com":   models.PlatformAmazon,
	"amzn.in":          models.PlatformAmazon,
	"flipkart.com":     models.PlatformFlipkart,
	"www.flipkart.com": models.PlatformFlipkart,
}

// Classify determines the platform of a product URL and derives its native
// product id. It is pure: the same URL always yields the same pair, and no
// network access happens here.
func Classify(rawURL string) (models.Platform, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	}

	p, ok := hostPlatforms[u.Hostname()]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, u.Hostname())
	}

	id, err := productID(u, p)
	if err != nil {
		return "", "", err
	}
	return p, id, nil
}

func productID(u *url.URL, p models.Platform) (string, error) {
	switch p {
	case models.PlatformAmazon:
		// The id is the path segment immediately after /dp/.
		_, rest, found := strings.Cut(u.Path, "/dp/")
		if !found {
			return "", fmt.Errorf("%w: no /dp/ segment in %q", ErrMalformedURL, u.Path)
		}
		id := rest
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			return "", fmt.Errorf("%w: empty /dp/ segment in %q", ErrMalformedURL, u.Path)
		}
		return id, nil

	case models.PlatformFlipkart:
		id := u.Query().Get("pid")
		if id == "" {
			return "", fmt.Errorf("%w: missing pid parameter", ErrMalformedURL)
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p)
}
