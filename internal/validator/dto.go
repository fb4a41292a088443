package validator

import "time"

// ===== AUTH =====

type RegisterRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,email_domain"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,email_domain"`
	Password string `json:"password" validate:"required"`
}

// ===== COURSES =====

type CourseRequest struct {
	Title            string           `json:"title" validate:"required,max=200"`
	ShortDescription string           `json:"short_description" validate:"max=500"`
	About            string           `json:"about"`
	Category         string           `json:"category" validate:"max=100"`
	Visibility       string           `json:"visibility" validate:"omitempty,oneof=all restricted"`
	AllowedUsers     []string         `json:"allowed_users"`
	DurationHours    int              `json:"duration_hours" validate:"min=0"`
	DurationMinutes  int              `json:"duration_minutes" validate:"course_minutes"`
	Lessons          *[]LessonRequest `json:"lessons" validate:"omitempty,dive"`
	ExpectedVersion  *int             `json:"expected_version" validate:"omitempty,min=1"`
}

type ResourceRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	URL  string `json:"url" validate:"required,url"`
}

type LessonRequest struct {
	Title            string            `json:"title" validate:"required,max=200"`
	ShortDescription string            `json:"short_description" validate:"max=500"`
	About            string            `json:"about"`
	ThumbnailURL     *string           `json:"thumbnail_url"`
	Resources        []ResourceRequest `json:"resources" validate:"omitempty,dive"`
	DurationHours    int               `json:"duration_hours" validate:"min=0"`
	DurationMinutes  int               `json:"duration_minutes" validate:"course_minutes"`
	Step             int               `json:"step" validate:"min=0"`
	ExpectedVersion  *int              `json:"expected_version" validate:"omitempty,min=1"`
}

// ===== EVENTS & ANNOUNCEMENTS =====

type EventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Color       string    `json:"color" validate:"omitempty,hexcolor"`
	Tags        []string  `json:"tags"`
}

type LinkRequest struct {
	Name string `json:"name" validate:"max=200"`
	URL  string `json:"url" validate:"required,url"`
}

type AnnouncementRequest struct {
	Title         string        `json:"title" validate:"required,max=200"`
	Description   string        `json:"description"`
	Date          *time.Time    `json:"date"`
	ScheduledDate *time.Time    `json:"scheduled_date"`
	Links         []LinkRequest `json:"links" validate:"omitempty,dive"`
}

// ===== USERS =====

type ProfileUpdateRequest struct {
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=50"`
	Location    *string  `json:"location" validate:"omitempty,max=100"`
}

type AdminUserCreateRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email,email_domain"`
	Password  string  `json:"password" validate:"required,min=6"`
	Role      string  `json:"role" validate:"required,user_role"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
}

type AdminUserUpdateRequest struct {
	FirstName   *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string  `json:"last_name" validate:"omitempty,max=100"`
	Location    *string  `json:"location" validate:"omitempty,max=100"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=50"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
}

type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}
