package database

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const pingTimeout = 2 * time.Second

// Service wraps the MongoDB client and the application database. It is
// created once at startup and handed to the server explicitly; there are no
// package-level connection globals.
type Service struct {
	client *mongo.Client
	db     *mongo.Database
}

// New establishes a client for the configured deployment. The connection is
// lazy; use Ping or Health to probe actual connectivity.
func New(ctx context.Context, cfg config.MongoConfig) (*Service, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to configure mongo client: %w", err)
	}

	return &Service{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Ping round-trips to the primary with a short timeout.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return s.client.Ping(ctx, readpref.Primary())
}

// Health reports store connectivity in the shape the health endpoint
// serves. It never errors; an unreachable store yields an unhealthy status.
func (s *Service) Health(ctx context.Context) map[string]string {
	if err := s.Ping(ctx); err != nil {
		return map[string]string{
			"status":   "unhealthy",
			"database": "MongoDB disconnected",
		}
	}

	return map[string]string{
		"status":   "healthy",
		"database": "MongoDB connected",
	}
}

// Users returns the users collection handle.
func (s *Service) Users() *mongo.Collection {
	return s.db.Collection("users")
}

// Products returns the products collection handle.
func (s *Service) Products() *mongo.Collection {
	return s.db.Collection("products")
}

// Close disconnects the underlying client.
func (s *Service) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
