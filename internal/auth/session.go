package auth

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ErrNoSession is returned when a request carries no authenticated session.
var ErrNoSession = errors.New("no authenticated session")

// SessionContext is the caller's identity and resolved role. It is built
// once per request by the auth middleware and passed explicitly to services.
type SessionContext struct {
	UserID string
	Email  string
	Role   models.UserRole
}

func (s SessionContext) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// CanModerate is true for moderators and administrators.
func (s SessionContext) CanModerate() bool {
	return s.Role == models.RoleModerator || s.Role == models.RoleAdmin
}

// HasRole reports whether the session holds any of roles. Admin always passes.
func (s SessionContext) HasRole(roles ...models.UserRole) bool {
	if s.IsAdmin() {
		return true
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (SessionContext, error) {
	s, ok := ctx.Value(sessionKey{}).(SessionContext)
	if !ok || s.UserID == "" {
		return SessionContext{}, ErrNoSession
	}
	return s, nil
}
