package services

import (
	"context"
	"log"
	"strings"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/domain"
	"askyaguy/internal/metrics"
	"askyaguy/internal/util"
	apperrors "askyaguy/pkg/errors"

	"goa.design/goa/v3/security"
)

// ScopeAdmin is the JWT scope required by admin endpoints
const ScopeAdmin = "admin"

// UserStore is the persistence AuthService needs
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// RegisterInput is a sign-up request
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token     string
	TokenType string
	User      *domain.User
}

// AuthService implements the auth service
type AuthService struct {
	users UserStore
	cfg   *config.AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, cfg *config.AuthConfig) *AuthService {
	return &AuthService{users: users, cfg: cfg}
}

// JWTAuth implements the authorization logic for the JWT security scheme
func (s *AuthService) JWTAuth(ctx context.Context, token string, schema *security.JWTScheme) (context.Context, error) {
	claims, err := util.ValidateToken(s.cfg, token)
	if err != nil {
		return ctx, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid or expired token")
	}

	// Roles are read from the database so a demotion takes effect before the token expires
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return ctx, apperrors.New(apperrors.ErrCodeUnauthorized, "user not found")
		}
		return ctx, err
	}
	if claims.IsAdmin() != user.IsAdmin() {
		log.Printf("[AUTH] Token role %s for user %s is stale, using %s", claims.Role, user.ID, user.Role)
	}

	if schema != nil {
		for _, scope := range schema.RequiredScopes {
			if scope == ScopeAdmin && !user.IsAdmin() {
				return ctx, apperrors.New(apperrors.ErrCodeAccessDenied, "admin access required")
			}
		}
	}

	return WithCaller(ctx, &Caller{UserID: user.ID, Email: user.Email, Role: user.Role}), nil
}

// Register creates a user account and signs them in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	password := in.Password

	log.Printf("[AUTH] Register request: email=%s", email)

	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "email and password are required")
	}
	if !validEmail(email) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "email is not a valid address")
	}
	if len(password) < util.MinPasswordLength {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidInput, "password must be at least %d characters", util.MinPasswordLength)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		log.Printf("[AUTH] Register failed: email '%s' already exists", email)
		return nil, apperrors.New(apperrors.ErrCodeConflict, "user with this email already exists")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		log.Printf("[AUTH] Register failed: password hashing error: %v", err)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to register user", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = &name
	}

	if err := s.users.Create(ctx, user); err != nil {
		log.Printf("[AUTH] Register failed: %v", err)
		return nil, err
	}

	token, err := util.GenerateToken(s.cfg, user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to generate token", err)
	}

	log.Printf("[AUTH] Register successful: email=%s, id=%s", email, user.ID)
	return &AuthResult{Token: token, TokenType: "bearer", User: user}, nil
}

// Login implements the login method
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)

	log.Printf("[AUTH] Login attempt for user: %s", email)

	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		if apperrors.IsNotFound(err) {
			log.Printf("[AUTH] Login failed: user '%s' not found", email)
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid credentials")
		}
		log.Printf("[AUTH] Login failed: database error for user '%s': %v", email, err)
		return nil, err
	}

	if user.PasswordHash == "" || !util.CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", email)
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("[AUTH] Failed to update last login for '%s': %v", email, err)
	} else {
		user.LastLogin = &now
	}

	token, err := util.GenerateToken(s.cfg, user)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", email, err)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to generate token", err)
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%s, role=%s)", email, user.ID, user.Role)
	metrics.RecordAuthAttempt(true)

	return &AuthResult{Token: token, TokenType: "bearer", User: user}, nil
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context, caller *Caller) (*domain.User, error) {
	if caller == nil {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "authentication required")
	}
	return s.users.FindByID(ctx, caller.UserID)
}
