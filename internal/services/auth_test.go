package services

import (
	"context"
	"testing"

	"askyaguy/internal/domain"
	apperrors "askyaguy/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/goa/v3/security"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	reg, err := h.auth.Register(ctx, RegisterInput{Email: " New@Example.com ", Password: "long-enough", Name: "New"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "new@example.com", reg.User.Email)
	assert.Equal(t, domain.RoleUser, reg.User.Role)

	_, err = h.auth.Register(ctx, RegisterInput{Email: "new@example.com", Password: "long-enough"})
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))

	_, err = h.auth.Register(ctx, RegisterInput{Email: "short@example.com", Password: "short"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	login, err := h.auth.Login(ctx, "NEW@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "bearer", login.TokenType)
	assert.NotNil(t, login.User.LastLogin)

	_, err = h.auth.Login(ctx, "new@example.com", "wrong-password")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = h.auth.Login(ctx, "nobody@example.com", "whatever")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestJWTAuthScopes(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	reg, err := h.auth.Register(ctx, RegisterInput{Email: "plain@example.com", Password: "long-enough"})
	require.NoError(t, err)

	authed, err := h.auth.JWTAuth(ctx, reg.Token, &security.JWTScheme{})
	require.NoError(t, err)
	caller := CallerFrom(authed)
	require.NotNil(t, caller)
	assert.Equal(t, reg.User.ID, caller.UserID)
	assert.False(t, caller.IsAdmin())

	_, err = h.auth.JWTAuth(ctx, reg.Token, &security.JWTScheme{RequiredScopes: []string{ScopeAdmin}})
	assert.True(t, apperrors.IsAccessDenied(err))

	_, err = h.auth.JWTAuth(ctx, "not-a-token", &security.JWTScheme{})
	assert.True(t, apperrors.IsUnauthorized(err))

	me, err := h.auth.Me(authed, caller)
	require.NoError(t, err)
	assert.Equal(t, "plain@example.com", me.Email)

	_, err = h.auth.Me(ctx, nil)
	assert.True(t, apperrors.IsUnauthorized(err))
}
