package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	handlers *HandlerManager
	repo     repositories.Repository
	identity *testutil.FakeIdentity
	blobs    *storage.MemoryStore
	bus      *events.Bus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	slogger := testutil.DiscardLogger()
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: testutil.NewTestDB(t)})
	identity := testutil.NewFakeIdentity()
	blobs := storage.NewMemoryStore("https://cdn.test")
	bus := events.NewInProcessBus(slogger)
	t.Cleanup(func() { _ = bus.Close() })

	roles := auth.NewRoleResolver(
		auth.RoleSourceFunc(func(ctx context.Context, userID string) (models.UserRole, error) {
			return repo.User().GetRole(ctx, nil, userID)
		}),
		cache.NewCacheManager(nil).Role,
		slogger,
	)

	manager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Identity:  identity,
		Blobs:     blobs,
		Changes:   bus,
		Roles:     roles,
		Validator: validator.New(config.DefaultEmailDomains),
		Logger:    slogger,
	})
	require.NoError(t, manager.Initialize(context.Background()))

	logger := utils.NewSlogLogger(slogger)
	router := gin.New()
	SetupMiddleware(router, logger, []string{"*"})
	hm := NewHandlerManager(manager, bus, logger)
	hm.SetupRoutes(router)

	return &testServer{router: router, handlers: hm, repo: repo, identity: identity, blobs: blobs, bus: bus}
}

// seedUser stores a profile and identity account and returns a bearer token.
func (s *testServer) seedUser(t *testing.T, id string, role models.UserRole) string {
	t.Helper()
	email := id + "@ipsumtechnology.co"
	require.NoError(t, s.repo.User().Create(context.Background(), nil, &models.User{
		ID: id, Email: email, FirstName: "Test", LastName: id, Role: role,
	}))
	s.identity.Seed(id, email, "secret123")
	return "token-" + id
}

type request struct {
	method  string
	path    string
	token   string
	body    io.Reader
	headers map[string]string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type upload struct {
	field       string
	name        string
	contentType string
	body        string
}

// multipartBody builds a form with a JSON "data" field and the given files.
func multipartBody(t *testing.T, data interface{}, files ...upload) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		require.NoError(t, mw.WriteField(formDataField, string(b)))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type errorBody struct {
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details"`
}

type lessonsBody struct {
	CourseID string          `json:"course_id"`
	Version  int             `json:"version"`
	Lessons  []models.Lesson `json:"lessons"`
}

func (s *testServer) createCourse(t *testing.T, token, title string) map[string]interface{} {
	t.Helper()
	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/courses", token: token,
		body: jsonBody(t, map[string]interface{}{"title": title, "duration_hours": 1})})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]interface{}](t, w)
}

func (s *testServer) addLesson(t *testing.T, token, courseID, title string, step int) lessonsBody {
	t.Helper()
	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/courses/" + courseID + "/lessons", token: token,
		body: jsonBody(t, map[string]interface{}{"title": title, "step": step})})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[lessonsBody](t, w)
}
