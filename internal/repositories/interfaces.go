package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Query     string  `json:"query"` // case-insensitive title contains
	Category  *string `json:"category"`
	CreatedBy *string `json:"created_by"`
	VisibleTo *string `json:"visible_to"` // hides restricted courses the user is not listed on
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

type UserFilters struct {
	Query  string           // matches first name, last name or email
	Role   *models.UserRole // exact role match
	Limit  int
	Offset int
}

type EventFilters struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type AnnouncementFilters struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// CourseUpdateOptions controls how a course-level update is written.
type CourseUpdateOptions struct {
	// IncludeLessons writes the lessons column too. Course-level edits leave
	// it false so an existing sequence is never clobbered.
	IncludeLessons bool

	// ExpectedVersion, when set, turns the write into a compare-and-swap.
	ExpectedVersion *int
}

// ===== REPOSITORY INTERFACES =====

// CourseRepository stores course documents with their embedded lessons.
type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Course, error)
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)

	// Update overwrites course-level fields and bumps the version. The new
	// version is written back into course.
	Update(ctx context.Context, tx *gorm.DB, course *models.Course, opts CourseUpdateOptions) error

	// WriteLessons replaces the whole lesson array and returns the new version.
	// A nil expectedVersion is a last-writer-wins write.
	WriteLessons(ctx context.Context, tx *gorm.DB, id string, lessons []models.Lesson, expectedVersion *int) (int, error)

	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

// UserRepository stores profile documents. Identity lives in IdentityProvider.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error
	UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error
	GetRole(ctx context.Context, tx *gorm.DB, id string) (models.UserRole, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type EventRepository interface {
	Create(ctx context.Context, tx *gorm.DB, event *models.Event) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error)
	Update(ctx context.Context, tx *gorm.DB, event *models.Event) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	ListUpcoming(ctx context.Context, tx *gorm.DB, now time.Time, filters EventFilters) ([]*models.Event, error)
	ListPast(ctx context.Context, tx *gorm.DB, now time.Time, filters EventFilters) ([]*models.Event, error)
	Search(ctx context.Context, tx *gorm.DB, filters EventFilters) ([]*models.Event, error)
}

type AnnouncementRepository interface {
	Create(ctx context.Context, tx *gorm.DB, announcement *models.Announcement) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Announcement, error)
	Update(ctx context.Context, tx *gorm.DB, announcement *models.Announcement) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	List(ctx context.Context, tx *gorm.DB, filters AnnouncementFilters) ([]*models.Announcement, int64, error)
}

type ProgressRepository interface {
	Get(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.UserCourseProgress, error)
	// Save upserts the record keyed by (user_id, course_id).
	Save(ctx context.Context, tx *gorm.DB, progress *models.UserCourseProgress) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserCourseProgress, error)
}

type BadgeRepository interface {
	// Award creates the badge if absent and reports whether it was new.
	Award(ctx context.Context, tx *gorm.DB, badge *models.Badge) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Badge, error)
}

// IdentityProvider is the external authentication system.
type IdentityProvider interface {
	// Register creates an account and returns its identity key.
	Register(ctx context.Context, email, password, displayName string) (string, error)
	// SignIn exchanges credentials for an access token.
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	// VerifyToken validates an access token and returns its subject.
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	Delete(ctx context.Context, id string) error
}

// Identity is the authenticated subject as seen by the identity provider.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}
