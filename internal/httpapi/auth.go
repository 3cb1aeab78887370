package httpapi

import (
	"context"
	"net/http"
	"strings"

	"askyaguy/internal/services"
	apperrors "askyaguy/pkg/errors"

	"goa.design/goa/v3/security"
)

// access is the authentication an endpoint requires
type access int

const (
	public access = iota
	optional
	required
	admin
)

var (
	userScheme = &security.JWTScheme{
		Name:   "jwt",
		Scopes: []string{services.ScopeAdmin},
	}
	adminScheme = &security.JWTScheme{
		Name:           "jwt",
		Scopes:         []string{services.ScopeAdmin},
		RequiredScopes: []string{services.ScopeAdmin},
	}
)

// bearerToken extracts the token from an Authorization header
func bearerToken(r *http.Request) (string, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// authenticate resolves the caller for a request according to the endpoint's access level.
// A token presented to an optional endpoint must still be valid.
func (s *Server) authenticate(r *http.Request, level access) (context.Context, error) {
	ctx := r.Context()
	if level == public {
		return ctx, nil
	}

	token, present, err := bearerToken(r)
	if err != nil {
		return ctx, err
	}
	if !present {
		if level == optional {
			return ctx, nil
		}
		return ctx, apperrors.New(apperrors.ErrCodeUnauthorized, "authorization header required")
	}

	scheme := userScheme
	if level == admin {
		scheme = adminScheme
	}
	return s.auth.JWTAuth(ctx, token, scheme)
}
