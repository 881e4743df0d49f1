package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform identifies a supported e-commerce site.
type Platform string

const (
	PlatformAmazon   Platform = "amazon"
	PlatformFlipkart Platform = "flipkart"
)

// NoData is stored in place of any field that could not be extracted from a
// product page. Scrapes degrade field by field instead of failing outright.
const NoData = "No Data Found"

// PricePoint is one entry in a product's price history.
type PricePoint struct {
	Price float64   `bson:"price" json:"price"`
	Date  time.Time `bson:"date" json:"date"`
}

// AlertSettings holds a price-drop alert attached to a tracked product.
type AlertSettings struct {
	Enabled     bool    `bson:"enabled" json:"enabled"`
	TargetPrice float64 `bson:"targetPrice" json:"targetPrice"`
	ChatID      int64   `bson:"chatId,omitempty" json:"chatId,omitempty"`
	Owner       string  `bson:"owner,omitempty" json:"owner,omitempty"`
}

// Product is a tracked product. Identity is the (platform, productId) pair,
// enforced unique by the catalog; PriceHistory is append-only and its newest
// entry always matches Price.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID    string             `bson:"productId" json:"productId"`
	Platform     Platform           `bson:"platform" json:"platform"`
	URL          string             `bson:"url" json:"url"`
	Name         string             `bson:"name" json:"name"`
	Price        float64            `bson:"price" json:"price"`
	Image        string             `bson:"image" json:"image"`
	Ratings      float64            `bson:"ratings" json:"ratings"`
	TotalRatings int                `bson:"totalRatings" json:"totalRatings"`
	Discount     string             `bson:"discount,omitempty" json:"discount,omitempty"`
	Availability string             `bson:"availability,omitempty" json:"availability,omitempty"`
	PriceHistory []PricePoint       `bson:"priceHistory" json:"priceHistory"`
	Alert        *AlertSettings     `bson:"alert,omitempty" json:"alert,omitempty"`
	Owner        string             `bson:"owner,omitempty" json:"owner,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasImage reports whether a usable image reference is stored for the product.
func (p *Product) HasImage() bool {
	return p.Image != "" && p.Image != NoData
}

// Snapshot holds the fields read from a single scrape attempt, before
// persistence. String fields degrade to NoData when no selector matched;
// numeric fields degrade to 0.
type Snapshot struct {
	Title        string
	Image        string
	Price        float64
	Discount     string
	Availability string
	Ratings      float64
	TotalRatings int
}
