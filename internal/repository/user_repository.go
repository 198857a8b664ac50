package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrWriteNotAcknowledged means the store accepted the call but reported
	// no identifier for the inserted document.
	ErrWriteNotAcknowledged = errors.New("write not acknowledged by store")
)

// UserRepository defines data access for the users collection.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(coll *mongo.Collection) UserRepository {
	return &userRepository{coll: coll}
}

// Create inserts a new user document and returns the store-assigned id.
// There is no unique index on email; uniqueness is the caller's concern.
func (r *userRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, ErrWriteNotAcknowledged
	}

	return id, nil
}

// FindByEmail retrieves a user by email, including the password hash.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// FindAll returns every user with the password hash projected out at the
// store, so it never crosses the wire.
func (r *userRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetProjection(bson.M{"hashed_password": 0})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, nil
}
