// Package catalog persists tracked products in MongoDB. A unique compound
// index on (platform, productId) is the only concurrency-safety mechanism the
// engine relies on: concurrent creation races are settled by the store, not
// by application locks, so the on-demand path stays horizontally scalable.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"price-tracker/internal/models"
)

var (
	// ErrNotFound means no product matched the query.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicate means an insert lost a creation race; the caller should
	// read back the record that won.
	ErrDuplicate = errors.New("product already tracked")
)

// Catalog is the mongo-backed store of tracked products.
type Catalog struct {
	col *mongo.Collection
}

// New wraps the products collection of db.
func New(db *mongo.Database) *Catalog {
	return &Catalog{col: db.Collection("products")}
}

// EnsureIndexes creates the unique compound index on (platform, productId).
// Must run before the first insert.
func (c *Catalog) EnsureIndexes(ctx context.Context) error {
	_, err := c.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "productId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating product index: %w", err)
	}
	return nil
}

// FindOne looks a product up by its composite identity.
func (c *Catalog) FindOne(ctx context.Context, p models.Platform, productID string) (*models.Product, error) {
	var rec models.Product
	err := c.col.FindOne(ctx, bson.M{"platform": p, "productId": productID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding product %s/%s: %w", p, productID, err)
	}
	return &rec, nil
}

// FindByID looks a product up by its document id.
func (c *Catalog) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	var rec models.Product
	err = c.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding product %s: %w", id, err)
	}
	return &rec, nil
}

// All returns the full catalog.
func (c *Catalog) All(ctx context.Context) ([]models.Product, error) {
	cur, err := c.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return out, nil
}

// FindByOwner returns one user's tracked products, most recently updated
// first.
func (c *Catalog) FindByOwner(ctx context.Context, owner string) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := c.col.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing products for %s: %w", owner, err)
	}
	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return out, nil
}

// Insert stores a newly scraped product. The unique index arbitrates
// concurrent inserts of the same product; the loser gets ErrDuplicate.
func (c *Catalog) Insert(ctx context.Context, rec *models.Product) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	res, err := c.col.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s/%s", ErrDuplicate, rec.Platform, rec.ProductID)
	}
	if err != nil {
		return fmt.Errorf("inserting product %s/%s: %w", rec.Platform, rec.ProductID, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = id
	}
	return nil
}

// SetImage updates only the stored image reference.
func (c *Catalog) SetImage(ctx context.Context, p models.Platform, productID, image string) error {
	_, err := c.col.UpdateOne(ctx,
		bson.M{"platform": p, "productId": productID},
		bson.M{"$set": bson.M{"image": image, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("updating image for %s/%s: %w", p, productID, err)
	}
	return nil
}

// SetOwner records which user submitted the product. Only set when the
// record has no owner yet; the first submitter keeps it.
func (c *Catalog) SetOwner(ctx context.Context, p models.Platform, productID, owner string) error {
	_, err := c.col.UpdateOne(ctx,
		bson.M{"platform": p, "productId": productID, "owner": bson.M{"$in": bson.A{"", nil}}},
		bson.M{"$set": bson.M{"owner": owner, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("setting owner for %s/%s: %w", p, productID, err)
	}
	return nil
}

// Refresh carries the outcome of one scheduled re-scrape. NewPrice is non-nil
// only when the observed price differs from the stored one.
type Refresh struct {
	Ratings      float64
	TotalRatings int
	Discount     string
	Availability string
	NewPrice     *models.PricePoint
}

// ApplyRefresh writes one refresh as a single update. Volatile fields are
// always set; when the price moved, the new point is pushed onto the history
// atomically alongside the price itself, keeping the newest-entry invariant.
func (c *Catalog) ApplyRefresh(ctx context.Context, p models.Platform, productID string, r Refresh) error {
	_, err := c.col.UpdateOne(ctx,
		bson.M{"platform": p, "productId": productID},
		refreshUpdate(r, time.Now()),
	)
	if err != nil {
		return fmt.Errorf("refreshing product %s/%s: %w", p, productID, err)
	}
	return nil
}

// refreshUpdate builds the update document for one refresh.
func refreshUpdate(r Refresh, now time.Time) bson.M {
	set := bson.M{
		"ratings":      r.Ratings,
		"totalRatings": r.TotalRatings,
		"discount":     r.Discount,
		"availability": r.Availability,
		"updatedAt":    now,
	}
	update := bson.M{"$set": set}
	if r.NewPrice != nil {
		set["price"] = r.NewPrice.Price
		update["$push"] = bson.M{"priceHistory": *r.NewPrice}
	}
	return update
}

// SetAlert attaches a price-drop alert to a product.
func (c *Catalog) SetAlert(ctx context.Context, id string, alert models.AlertSettings) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	res, err := c.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"alert": alert, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("setting alert on %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product. The monitoring engine never calls this; it backs
// the user-facing untrack operation only.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	res, err := c.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
