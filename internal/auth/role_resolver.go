package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
)

// RoleSource reads the stored role for a user.
type RoleSource interface {
	GetRole(ctx context.Context, userID string) (models.UserRole, error)
}

// RoleSourceFunc adapts a function to RoleSource.
type RoleSourceFunc func(ctx context.Context, userID string) (models.UserRole, error)

func (f RoleSourceFunc) GetRole(ctx context.Context, userID string) (models.UserRole, error) {
	return f(ctx, userID)
}

// RoleResolver resolves roles cache-aside in redis, keyed by user id.
type RoleResolver struct {
	source RoleSource
	cache  *cache.CacheHelper
	logger *slog.Logger
}

func NewRoleResolver(source RoleSource, cacheHelper *cache.CacheHelper, logger *slog.Logger) *RoleResolver {
	return &RoleResolver{
		source: source,
		cache:  cacheHelper,
		logger: logger.With("component", "role_resolver"),
	}
}

// Resolve returns the user's role. Unknown stored values fall back to the
// least privileged role.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) (models.UserRole, error) {
	if cached, err := r.cache.GetString(ctx, userID); err == nil {
		if role := models.UserRole(cached); role.Valid() {
			return role, nil
		}
	} else if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		r.logger.WarnContext(ctx, "Role cache read failed", "error", err, "user_id", userID)
	}

	role, err := r.source.GetRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	if !role.Valid() {
		r.logger.WarnContext(ctx, "Unknown stored role, treating as user", "user_id", userID, "role", role)
		role = models.RoleUser
	}

	if err := r.cache.SetString(ctx, userID, string(role), 0); err != nil {
		r.logger.WarnContext(ctx, "Role cache write failed", "error", err, "user_id", userID)
	}
	return role, nil
}

// Invalidate drops the cached role so the next request re-reads it.
func (r *RoleResolver) Invalidate(ctx context.Context, userID string) {
	cache.SafeDelete(ctx, r.cache, userID)
}
