package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
)

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, userSession, "Ana", "Lopez")

	user, err := f.manager.User().UpdateProfile(ctx, userSession, &ProfileUpdateRequest{
		Description: strPtr("Designer"),
		Tags:        []string{"ux", "figma"},
		Location:    strPtr("CDMX"),
	}, file("me.jpg", "image/jpeg", "jpg"))
	require.NoError(t, err)

	assert.Equal(t, "Designer", user.Description)
	assert.Equal(t, []string{"ux", "figma"}, []string(user.Tags))
	require.NotNil(t, user.Location)
	assert.Equal(t, "CDMX", *user.Location)

	path := storage.ProfilePicPath(userSession.UserID)
	_, ok := f.blobs.Object(path)
	assert.True(t, ok)
	require.NotNil(t, user.ProfileImageURL)
	assert.Equal(t, f.blobs.PublicURL(path), *user.ProfileImageURL)
}

func TestUserService_SkipProfileSetup(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSession, "Ana", "Lopez")

	user, err := f.manager.User().SkipProfileSetup(context.Background(), userSession)
	require.NoError(t, err)
	require.NotNil(t, user.ProfileImageURL)
	assert.Equal(t, models.DefaultProfileImage, *user.ProfileImageURL)
}

func TestUserService_AdminCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := &AdminUserCreateRequest{
		FirstName: "Mora",
		LastName:  "Diaz",
		Email:     "mora@ipsumtechnology.co",
		Password:  "secret123",
		Role:      "moderador",
	}

	_, err := f.manager.User().Create(ctx, modSession, req, nil)
	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Empty(t, f.identity.Calls())

	bad := *req
	bad.Email = "mora@example.com"
	_, err = f.manager.User().Create(ctx, adminSession, &bad, nil)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, f.identity.Calls())

	user, err := f.manager.User().Create(ctx, adminSession, req, file("p.png", "image/png", "x"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, user.Role)
	require.NotNil(t, user.ProfileImageURL)

	resp, err := f.manager.Auth().SignIn(ctx, &SignInRequest{Email: req.Email, Password: req.Password})
	require.NoError(t, err)
	assert.Equal(t, "/moderador", resp.RedirectPath)
}

func TestUserService_ListWithRoleFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, adminSession, "Root", "Admin")
	f.seedUser(t, modSession, "Mora", "Diaz")
	f.seedUser(t, userSession, "Ana", "Lopez")

	_, err := f.manager.User().List(ctx, userSession, repositories.UserFilters{})
	assert.ErrorIs(t, err, ErrForbidden)

	role := models.RoleModerator
	resp, err := f.manager.User().List(ctx, adminSession, repositories.UserFilters{Role: &role})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, modSession.UserID, resp.Users[0].ID)

	resp, err = f.manager.User().List(ctx, adminSession, repositories.UserFilters{Query: "LOP"})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, userSession.UserID, resp.Users[0].ID)

	bogus := models.UserRole("root")
	_, err = f.manager.User().List(ctx, adminSession, repositories.UserFilters{Role: &bogus})
	assert.True(t, IsValidationError(err))
}

func TestUserService_GetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, userSession, "Ana", "Lopez")
	f.seedUser(t, modSession, "Mora", "Diaz")

	_, err := f.manager.User().GetByID(ctx, userSession, userSession.UserID)
	require.NoError(t, err)

	_, err = f.manager.User().GetByID(ctx, userSession, modSession.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.manager.User().GetByID(ctx, adminSession, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_AdminUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, userSession, "Ana", "Lopez")

	user, err := f.manager.User().Update(ctx, adminSession, userSession.UserID, &AdminUserUpdateRequest{
		LastName: strPtr("Lopez Ruiz"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez Ruiz", user.FullName())

	err = f.manager.User().Delete(ctx, adminSession, adminSession.UserID)
	var ruleErr *BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)

	require.NoError(t, f.manager.User().Delete(ctx, adminSession, userSession.UserID))
	assert.Contains(t, f.identity.Calls(), "delete")

	_, err = f.repo.User().GetByID(ctx, nil, userSession.UserID)
	assert.True(t, repositories.IsNotFoundError(err))

	_, err = f.manager.Auth().Authenticate(ctx, "token-"+userSession.UserID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
