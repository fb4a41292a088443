package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type SignInRequest = validator.SignInRequest
type CourseRequest = validator.CourseRequest
type LessonRequest = validator.LessonRequest
type EventRequest = validator.EventRequest
type AnnouncementRequest = validator.AnnouncementRequest
type ProfileUpdateRequest = validator.ProfileUpdateRequest
type AdminUserCreateRequest = validator.AdminUserCreateRequest
type AdminUserUpdateRequest = validator.AdminUserUpdateRequest
type RoleUpdateRequest = validator.RoleUpdateRequest

type CourseResponse struct {
	*models.Course
	LessonCount     int    `json:"lesson_count"`
	DurationDisplay string `json:"duration_display"`
	CanEdit         bool   `json:"can_edit"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// LessonsResponse is the lesson sequence after an editor read or write.
type LessonsResponse struct {
	CourseID string          `json:"course_id"`
	Version  int             `json:"version"`
	Lessons  []models.Lesson `json:"lessons"`
}

// LessonEdit addresses one lesson write. A nil Index appends.
type LessonEdit struct {
	Index           *int
	ExpectedVersion *int
	Thumbnail       *storage.File
}

type UserListResponse struct {
	Users  []*models.User `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type SignInResponse struct {
	AccessToken  string          `json:"access_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
	User         *models.User    `json:"user,omitempty"`
	Role         models.UserRole `json:"role"`
	RedirectPath string          `json:"redirect_path"`
}

type AnnouncementListResponse struct {
	Announcements []*models.Announcement `json:"announcements"`
	Total         int64                  `json:"total"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

type ProgressResponse struct {
	*models.UserCourseProgress
	TotalLessons int  `json:"total_lessons"`
	BadgeAwarded bool `json:"badge_awarded"`
}

type CourseProgressView struct {
	Course   *CourseResponse            `json:"course"`
	Progress *models.UserCourseProgress `json:"progress"`
}

type MyCoursesResponse struct {
	InProgress []*CourseProgressView `json:"in_progress"`
	Completed  []*CourseProgressView `json:"completed"`
	Available  []*CourseResponse     `json:"available"`
}

// ===== SERVICE INTERFACES =====

// ChangePublisher receives a notification after every committed write to a
// watchable collection.
type ChangePublisher interface {
	PublishChange(ctx context.Context, evt events.ChangeEvent) error
}

type CourseService interface {
	Create(ctx context.Context, sess auth.SessionContext, req *CourseRequest, thumbnail *storage.File) (*CourseResponse, error)
	Update(ctx context.Context, sess auth.SessionContext, id string, req *CourseRequest, thumbnail *storage.File) (*CourseResponse, error)
	Delete(ctx context.Context, sess auth.SessionContext, id string) error
	GetByID(ctx context.Context, sess auth.SessionContext, id string) (*CourseResponse, error)
	List(ctx context.Context, sess auth.SessionContext, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Lesson editing
	ListLessons(ctx context.Context, sess auth.SessionContext, courseID string) (*LessonsResponse, error)
	SaveLesson(ctx context.Context, sess auth.SessionContext, courseID string, req *LessonRequest, edit LessonEdit) (*LessonsResponse, error)
	DeleteLesson(ctx context.Context, sess auth.SessionContext, courseID string, index int, expectedVersion *int) (*LessonsResponse, error)
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	SignIn(ctx context.Context, req *SignInRequest) (*SignInResponse, error)
	// Authenticate turns a bearer token into a session with a resolved role.
	Authenticate(ctx context.Context, token string) (auth.SessionContext, error)
}

type UserService interface {
	// Self-service profile
	GetProfile(ctx context.Context, sess auth.SessionContext) (*models.User, error)
	UpdateProfile(ctx context.Context, sess auth.SessionContext, req *ProfileUpdateRequest, image *storage.File) (*models.User, error)
	SkipProfileSetup(ctx context.Context, sess auth.SessionContext) (*models.User, error)

	// Administration
	Create(ctx context.Context, sess auth.SessionContext, req *AdminUserCreateRequest, image *storage.File) (*models.User, error)
	GetByID(ctx context.Context, sess auth.SessionContext, id string) (*models.User, error)
	List(ctx context.Context, sess auth.SessionContext, filters repositories.UserFilters) (*UserListResponse, error)
	Update(ctx context.Context, sess auth.SessionContext, id string, req *AdminUserUpdateRequest, image *storage.File) (*models.User, error)
	ChangeRole(ctx context.Context, sess auth.SessionContext, id string, req *RoleUpdateRequest) (*models.User, error)
	Delete(ctx context.Context, sess auth.SessionContext, id string) error
}

type EventService interface {
	Create(ctx context.Context, sess auth.SessionContext, req *EventRequest) (*models.Event, error)
	Update(ctx context.Context, sess auth.SessionContext, id string, req *EventRequest) (*models.Event, error)
	Delete(ctx context.Context, sess auth.SessionContext, id string) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListUpcoming(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, error)
	ListPast(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, error)
	Search(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, error)
}

type AnnouncementService interface {
	Create(ctx context.Context, sess auth.SessionContext, req *AnnouncementRequest, files []storage.File, cover *storage.File) (*models.Announcement, error)
	Update(ctx context.Context, sess auth.SessionContext, id string, req *AnnouncementRequest, files []storage.File, cover *storage.File) (*models.Announcement, error)
	Delete(ctx context.Context, sess auth.SessionContext, id string) error
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, filters repositories.AnnouncementFilters) (*AnnouncementListResponse, error)
}

type ProgressService interface {
	StartCourse(ctx context.Context, sess auth.SessionContext, courseID string) (*ProgressResponse, error)
	CompleteLesson(ctx context.Context, sess auth.SessionContext, courseID string) (*ProgressResponse, error)
	RetakeCourse(ctx context.Context, sess auth.SessionContext, courseID string) (*ProgressResponse, error)
	MyCourses(ctx context.Context, sess auth.SessionContext) (*MyCoursesResponse, error)
	Badges(ctx context.Context, sess auth.SessionContext) ([]*models.Badge, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Course() CourseService
	Auth() AuthService
	User() UserService
	Event() EventService
	Announcement() AnnouncementService
	Progress() ProgressService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
