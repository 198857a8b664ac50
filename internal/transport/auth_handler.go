package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignupRequest represents the registration payload
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly minted bearer token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UsersResponse is the user listing with its page count
type UsersResponse struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}

// AuthHandler handles HTTP requests for signup, login and user listing
type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// RegisterRoutes registers the auth routes. limitMiddleware throttles the
// credential endpoints; tokenMiddleware guards the profile route.
func (h *AuthHandler) RegisterRoutes(r chi.Router, tokenMiddleware, limitMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(limitMiddleware)
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Get("/users", h.ListUsers)

	r.Group(func(r chi.Router) {
		r.Use(tokenMiddleware)
		r.Get("/me", h.CurrentUser)
	})
}

// Signup handles account creation and returns a bearer token
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Signup validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			h.logger.Debug("Signup rejected, email taken", zap.String("email", req.Email))
			middleware.RespondWithError(w, http.StatusBadRequest, "email already registered")
			return
		}

		h.logger.Error("Signup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.logger.Info("User registered", zap.String("email", req.Email))
	middleware.RespondWithJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Login authenticates form-encoded credentials and returns a bearer token.
// The email travels in the username field, the OAuth2 password-form shape.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("Login form parse failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login rejected")
			middleware.RespondWithError(w, http.StatusBadRequest, "incorrect email or password")
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// ListUsers returns every user without password hashes
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UsersResponse{
		Users: users,
		Count: len(users),
	})
}

// CurrentUser resolves the authenticated token subject to the stored user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.Subject(r.Context())
	if !ok {
		h.logger.Error("Token subject not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.auth.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}

		h.logger.Error("Failed to load current user", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}
