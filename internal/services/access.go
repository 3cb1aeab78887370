package services

import (
	"context"
	"strings"

	"askyaguy/internal/domain"
)

// Caller is the authenticated identity behind a request. A nil *Caller is anonymous.
type Caller struct {
	UserID string
	Email  string
	Role   domain.Role
}

// IsAdmin reports whether the caller holds the admin role
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == domain.RoleAdmin
}

// CanView reports whether the caller may read a question: admins, the owning
// user, or anyone whose account email matches the question's email.
//
// Matching on email lets a user see questions asked before they registered.
// It also means that whoever controls an address sees every question filed
// under it.
func CanView(c *Caller, q *domain.Question) bool {
	if c == nil || q == nil {
		return false
	}
	if c.IsAdmin() || q.IsOwnedBy(c.UserID) {
		return true
	}
	return c.Email != "" && strings.EqualFold(strings.TrimSpace(c.Email), strings.TrimSpace(q.Email))
}

// CanMutate reports whether the caller may drive admin transitions
func CanMutate(c *Caller, q *domain.Question) bool {
	return c.IsAdmin()
}

type callerKey struct{}

// WithCaller stores the caller on the context
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored on the context, or nil
func CallerFrom(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerKey{}).(*Caller)
	return c
}
