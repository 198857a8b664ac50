package database

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SampleProducts is the fixed catalog inserted on first boot.
var SampleProducts = []domain.Product{
	{
		Name:        "Wireless Mouse",
		Description: "Compact 2.4GHz wireless mouse with adjustable DPI",
		Price:       19.99,
		Category:    "Electronics",
		Stock:       120,
		ImageURL:    "https://example.com/images/wireless-mouse.jpg",
	},
	{
		Name:        "Bluetooth Headphones",
		Description: "Over-ear headphones with 30 hour battery life",
		Price:       59.99,
		Category:    "Electronics",
		Stock:       45,
		ImageURL:    "https://example.com/images/bluetooth-headphones.jpg",
	},
	{
		Name:        "Mechanical Keyboard",
		Description: "Tenkeyless mechanical keyboard with brown switches",
		Price:       89.99,
		Category:    "Electronics",
		Stock:       30,
		ImageURL:    "https://example.com/images/mechanical-keyboard.jpg",
	},
	{
		Name:        "USB-C Cable",
		Description: "1m braided USB-C to USB-C charging cable",
		Price:       9.99,
		Category:    "Electronics",
		Stock:       300,
	},
	{
		Name:        "Ceramic Coffee Mug",
		Description: "350ml ceramic mug, dishwasher safe",
		Price:       12.50,
		Category:    "Home & Kitchen",
		Stock:       200,
	},
	{
		Name:        "Desk Lamp",
		Description: "LED desk lamp with three brightness levels",
		Price:       34.90,
		Category:    "Home & Kitchen",
		Stock:       80,
		ImageURL:    "https://example.com/images/desk-lamp.jpg",
	},
	{
		Name:        "Running Shoes",
		Description: "Lightweight road running shoes",
		Price:       74.99,
		Category:    "Sports",
		Stock:       60,
	},
	{
		Name:        "Yoga Mat",
		Description: "6mm non-slip yoga mat",
		Price:       24.99,
		Category:    "Sports",
		Stock:       150,
	},
}

// SeedProducts inserts the sample catalog if and only if the collection is
// currently empty. A populated collection is left untouched.
func SeedProducts(ctx context.Context, products *mongo.Collection, logger *zap.Logger) error {
	count, err := products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	if count > 0 {
		logger.Debug("Product collection already populated, skipping seed",
			zap.Int64("count", count),
		)
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(SampleProducts))
	for _, p := range SampleProducts {
		p.CreatedAt = now
		p.UpdatedAt = now
		docs = append(docs, p)
	}

	if _, err := products.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	logger.Info("Seeded product catalog", zap.Int("count", len(docs)))
	return nil
}
