package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

func TestSessionContext_Roles(t *testing.T) {
	user := SessionContext{UserID: "u", Role: models.RoleUser}
	mod := SessionContext{UserID: "m", Role: models.RoleModerator}
	admin := SessionContext{UserID: "a", Role: models.RoleAdmin}

	assert.False(t, user.CanModerate())
	assert.True(t, mod.CanModerate())
	assert.True(t, admin.CanModerate())
	assert.True(t, admin.HasRole(models.RoleModerator))
	assert.False(t, user.HasRole(models.RoleModerator))
	assert.True(t, mod.HasRole(models.RoleModerator))
}

func TestSessionFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	ctx := WithSession(context.Background(), SessionContext{UserID: "u1", Role: models.RoleAdmin})
	s, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
}

type countingSource struct {
	roles map[string]models.UserRole
	calls int
}

func (c *countingSource) GetRole(ctx context.Context, userID string) (models.UserRole, error) {
	c.calls++
	role, ok := c.roles[userID]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return role, nil
}

func newResolver(t *testing.T, source RoleSource) (*RoleResolver, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cm := cache.NewCacheManager(client)
	return NewRoleResolver(source, cm.Role, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRoleResolver_CachesRole(t *testing.T) {
	source := &countingSource{roles: map[string]models.UserRole{"u1": models.RoleModerator}}
	resolver, mr := newResolver(t, source)
	ctx := context.Background()

	role, err := resolver.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, role)

	role, err = resolver.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, role)
	assert.Equal(t, 1, source.calls)

	got, err := mr.Get("role:u1")
	require.NoError(t, err)
	assert.Equal(t, "moderador", got)
}

func TestRoleResolver_Invalidate(t *testing.T) {
	source := &countingSource{roles: map[string]models.UserRole{"u1": models.RoleUser}}
	resolver, _ := newResolver(t, source)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "u1")
	require.NoError(t, err)

	source.roles["u1"] = models.RoleAdmin
	resolver.Invalidate(ctx, "u1")

	role, err := resolver.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
	assert.Equal(t, 2, source.calls)
}

func TestRoleResolver_UnknownRoleFallsBack(t *testing.T) {
	source := RoleSourceFunc(func(ctx context.Context, userID string) (models.UserRole, error) {
		return "superuser", nil
	})
	resolver := NewRoleResolver(source, cache.NewCacheManager(nil).Role, slog.New(slog.NewTextHandler(io.Discard, nil)))

	role, err := resolver.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}

func TestRoleResolver_SourceError(t *testing.T) {
	resolver, _ := newResolver(t, &countingSource{roles: map[string]models.UserRole{}})

	_, err := resolver.Resolve(context.Background(), "ghost")
	assert.True(t, repositories.IsNotFoundError(err))
}
