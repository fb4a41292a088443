package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	adminSession = auth.SessionContext{UserID: "admin-1", Email: "admin@ipsumtechnology.co", Role: models.RoleAdmin}
	modSession   = auth.SessionContext{UserID: "mod-1", Email: "mod@ipsumtechnology.co", Role: models.RoleModerator}
	userSession  = auth.SessionContext{UserID: "user-1", Email: "ana@ipsumtechnology.mx", Role: models.RoleUser}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (p *recordingPublisher) PublishChange(ctx context.Context, evt events.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []events.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ChangeEvent(nil), p.events...)
}

type fixture struct {
	repo      repositories.Repository
	identity  *testutil.FakeIdentity
	blobs     *storage.MemoryStore
	publisher *recordingPublisher
	roles     *auth.RoleResolver
	manager   ServiceManager
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRedis(t, nil)
}

func newFixtureWithRedis(t *testing.T, redisClient *redis.Client) *fixture {
	t.Helper()

	logger := testutil.DiscardLogger()
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:          testutil.NewTestDB(t),
		RedisClient: redisClient,
	})
	roles := auth.NewRoleResolver(
		auth.RoleSourceFunc(func(ctx context.Context, userID string) (models.UserRole, error) {
			return repo.User().GetRole(ctx, nil, userID)
		}),
		cache.NewCacheManager(redisClient).Role,
		logger,
	)

	f := &fixture{
		repo:      repo,
		identity:  testutil.NewFakeIdentity(),
		blobs:     storage.NewMemoryStore("https://cdn.test"),
		publisher: &recordingPublisher{},
		roles:     roles,
	}
	f.manager = NewServiceManager(Dependencies{
		Repo:      repo,
		Identity:  f.identity,
		Blobs:     f.blobs,
		Changes:   f.publisher,
		Roles:     roles,
		Validator: validator.New(config.DefaultEmailDomains),
		Logger:    logger,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, f.manager.Initialize(context.Background()))
	return f
}

// seedUser stores a profile and a matching identity account.
func (f *fixture) seedUser(t *testing.T, sess auth.SessionContext, first, last string) *models.User {
	t.Helper()
	user := &models.User{ID: sess.UserID, Email: sess.Email, FirstName: first, LastName: last, Role: sess.Role}
	require.NoError(t, f.repo.User().Create(context.Background(), nil, user))
	f.identity.Seed(sess.UserID, sess.Email, "secret123")
	return user
}

func (f *fixture) createCourse(t *testing.T, title string) *CourseResponse {
	t.Helper()
	course, err := f.manager.Course().Create(context.Background(), adminSession, &CourseRequest{Title: title, DurationHours: 1}, nil)
	require.NoError(t, err)
	return course
}

func (f *fixture) addLesson(t *testing.T, courseID, title string, step int) *LessonsResponse {
	t.Helper()
	resp, err := f.manager.Course().SaveLesson(context.Background(), adminSession, courseID,
		&LessonRequest{Title: title, Step: step}, LessonEdit{})
	require.NoError(t, err)
	return resp
}

func file(name, contentType, body string) *storage.File {
	return &storage.File{Name: name, ContentType: contentType, Content: bytes.NewBufferString(body)}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func lessonTitles(lessons []models.Lesson) []string {
	out := make([]string, len(lessons))
	for i, l := range lessons {
		out[i] = l.Title
	}
	return out
}
