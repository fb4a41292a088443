package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type fakeCasdoor struct {
	users   map[string]*casdoorsdk.User // by email
	added   []*casdoorsdk.User
	deleted []string
}

func newFakeCasdoor() *fakeCasdoor {
	return &fakeCasdoor{users: map[string]*casdoorsdk.User{}}
}

func (f *fakeCasdoor) AddUser(user *casdoorsdk.User) (bool, error) {
	if _, ok := f.users[user.Email]; ok {
		return false, nil
	}
	f.users[user.Email] = user
	f.added = append(f.added, user)
	return true, nil
}

func (f *fakeCasdoor) GetUserByEmail(email string) (*casdoorsdk.User, error) {
	return f.users[email], nil
}

func (f *fakeCasdoor) GetUserByUserId(id string) (*casdoorsdk.User, error) {
	for _, u := range f.users {
		if u.Id == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeCasdoor) DeleteUser(user *casdoorsdk.User) (bool, error) {
	delete(f.users, user.Email)
	f.deleted = append(f.deleted, user.Id)
	return true, nil
}

func (f *fakeCasdoor) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	for _, u := range f.users {
		if token == "jwt-"+u.Name {
			return &casdoorsdk.Claims{User: *u}, nil
		}
	}
	return nil, errors.New("bad signature")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tokenServer fakes the Casdoor token endpoint for the password grant.
func tokenServer(t *testing.T, fake *fakeCasdoor, password string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("password") != password {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "jwt-" + r.PostForm.Get("username"),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIdentity(t *testing.T, fake *fakeCasdoor, password string) *IdentityCasdoor {
	srv := tokenServer(t, fake, password)
	return newIdentityCasdoor(fake, CasdoorConfig{
		Endpoint:         srv.URL,
		ClientID:         "client-id",
		ClientSecret:     "secret",
		OrganizationName: "ipsum",
		ApplicationName:  "lms",
	}, discard())
}

func TestIdentityCasdoor_RegisterAndSignIn(t *testing.T) {
	fake := newFakeCasdoor()
	identity := newTestIdentity(t, fake, "s3cret!")
	ctx := context.Background()

	id, err := identity.Register(ctx, "ana@ipsumtechnology.co", "s3cret!", "Ana Ruiz")
	require.NoError(t, err)
	require.Len(t, fake.added, 1)
	assert.Equal(t, id, fake.added[0].Name)
	assert.Equal(t, "ipsum", fake.added[0].Owner)

	got, err := identity.SignIn(ctx, "ana@ipsumtechnology.co", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "jwt-"+id, got.AccessToken)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestIdentityCasdoor_RegisterDuplicate(t *testing.T) {
	fake := newFakeCasdoor()
	identity := newTestIdentity(t, fake, "pw")

	_, err := identity.Register(context.Background(), "ana@ipsumtechnology.co", "pw", "Ana")
	require.NoError(t, err)
	_, err = identity.Register(context.Background(), "ana@ipsumtechnology.co", "pw", "Ana")
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestIdentityCasdoor_SignInFailures(t *testing.T) {
	fake := newFakeCasdoor()
	identity := newTestIdentity(t, fake, "right")
	ctx := context.Background()

	_, err := identity.SignIn(ctx, "nobody@ipsumtechnology.co", "right")
	assert.ErrorIs(t, err, repositories.ErrInvalidCredentials)

	_, err = identity.Register(ctx, "ana@ipsumtechnology.co", "right", "Ana")
	require.NoError(t, err)

	_, err = identity.SignIn(ctx, "ana@ipsumtechnology.co", "wrong")
	assert.ErrorIs(t, err, repositories.ErrInvalidCredentials)
}

func TestIdentityCasdoor_VerifyToken(t *testing.T) {
	fake := newFakeCasdoor()
	identity := newTestIdentity(t, fake, "pw")
	ctx := context.Background()

	id, err := identity.Register(ctx, "ana@ipsumtechnology.co", "pw", "Ana")
	require.NoError(t, err)

	got, err := identity.VerifyToken(ctx, "Bearer jwt-"+id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "ana@ipsumtechnology.co", got.Email)

	_, err = identity.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, repositories.ErrInvalidToken)

	_, err = identity.VerifyToken(ctx, "")
	assert.ErrorIs(t, err, repositories.ErrInvalidToken)
}

func TestIdentityCasdoor_Delete(t *testing.T) {
	fake := newFakeCasdoor()
	identity := newTestIdentity(t, fake, "pw")
	ctx := context.Background()

	id, err := identity.Register(ctx, "ana@ipsumtechnology.co", "pw", "Ana")
	require.NoError(t, err)

	require.NoError(t, identity.Delete(ctx, id))
	assert.Equal(t, []string{id}, fake.deleted)
	assert.ErrorIs(t, identity.Delete(ctx, id), repositories.ErrNotFound)
}
