package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type CourseVisibility string

const (
	VisibilityAll        CourseVisibility = "all"
	VisibilityRestricted CourseVisibility = "restricted"
)

// Resource is a named link attached to a lesson.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Lesson is embedded in its course document. It has no identity of its own:
// it is addressed only by its position in Course.Lessons at write time.
type Lesson struct {
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description"`
	About            string     `json:"about"`
	ThumbnailURL     *string    `json:"thumbnail_url"`
	Resources        []Resource `json:"resources"`
	DurationHours    int        `json:"duration_hours"`
	DurationMinutes  int        `json:"duration_minutes"`
	Duration         string     `json:"duration"`
	Step             int        `json:"step"`
}

type Course struct {
	ID               string                      `json:"id" gorm:"primaryKey;size:36"`
	Title            string                      `json:"title" gorm:"not null;size:200;index"`
	ShortDescription string                      `json:"short_description" gorm:"size:500"`
	About            string                      `json:"about" gorm:"type:text"`
	Category         string                      `json:"category" gorm:"size:100;index"`
	Visibility       CourseVisibility            `json:"visibility" gorm:"size:20;default:all"`
	AllowedUsers     datatypes.JSONSlice[string] `json:"allowed_users"`
	DurationHours    int                         `json:"duration_hours"`
	DurationMinutes  int                         `json:"duration_minutes"`
	Duration         string                      `json:"duration" gorm:"size:20"`
	ThumbnailURL     *string                     `json:"thumbnail_url" gorm:"size:500"`
	Lessons          datatypes.JSONSlice[Lesson] `json:"lessons"`

	// Version increments on every write of the document. Lesson writes can
	// pass it back as a compare-and-swap token.
	Version int `json:"version" gorm:"not null;default:1"`

	CreatedBy string    `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// VisibleTo reports whether a standard user may see the course.
func (c *Course) VisibleTo(userID string) bool {
	if c.Visibility != VisibilityRestricted {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// LessonCount is the total used by progress tracking.
func (c *Course) LessonCount() int {
	return len(c.Lessons)
}

// FormatDuration renders hours and minutes as "Xh Ym".
func FormatDuration(hours, minutes int) string {
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
