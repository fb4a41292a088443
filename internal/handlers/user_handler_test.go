package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/storage"
)

func TestUserHandler_Profile(t *testing.T) {
	s := newTestServer(t)
	user := s.seedUser(t, "user-1", models.RoleUser)

	body, contentType := multipartBody(t,
		map[string]interface{}{"description": "Designer", "tags": []string{"ux", "figma"}, "location": "CDMX"},
		upload{field: "image", name: "me.png", contentType: "image/png", body: "png"},
	)
	w := s.do(t, request{method: http.MethodPut, path: "/api/v1/users/me", token: user, body: body,
		headers: map[string]string{"Content-Type": contentType}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	profile := decode[models.User](t, w)
	assert.Equal(t, "Designer", profile.Description)
	assert.Equal(t, []string{"ux", "figma"}, []string(profile.Tags))
	require.NotNil(t, profile.ProfileImageURL)
	assert.Equal(t, s.blobs.PublicURL(storage.ProfilePicPath("user-1")), *profile.ProfileImageURL)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/me", token: user})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Designer", decode[models.User](t, w).Description)
}

func TestUserHandler_SkipSetup(t *testing.T) {
	s := newTestServer(t)
	user := s.seedUser(t, "user-1", models.RoleUser)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/users/me/skip-setup", token: user})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode[models.User](t, w).ProfileImageURL)
}

func TestUserHandler_Administration(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	user := s.seedUser(t, "user-1", models.RoleUser)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/users", token: admin, body: jsonBody(t, map[string]string{
		"first_name": "Mia", "last_name": "Reyes", "email": "mia@ipsumtechnology.co",
		"password": "secret123", "role": "moderador",
	})})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.User](t, w)
	assert.Equal(t, models.RoleModerator, created.Role)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users?role=moderador", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 1, list["total"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users?role=owner", token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// a user may read their own record but not someone else's
	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/user-1", token: user})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/" + created.ID, token: user})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/users/user-1/role", token: admin,
		body: jsonBody(t, map[string]string{"role": "moderador"})})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the new role applies to the next request
	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/announcements", token: user,
		body: jsonBody(t, map[string]interface{}{"title": "Promoted"})})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/users/admin-1", token: admin})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	details, _ := decode[errorBody](t, w).Details.(map[string]interface{})
	assert.Equal(t, "SELF_DELETE", details["rule"])

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/users/" + created.ID, token: admin})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/" + created.ID, token: admin})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
