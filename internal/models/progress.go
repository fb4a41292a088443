package models

import "time"

// UserCourseProgress is created lazily when a user starts a course and is
// reset in place on retake. It is never deleted, not even with its course.
type UserCourseProgress struct {
	UserID      string     `json:"user_id" gorm:"primaryKey;size:255"`
	CourseID    string     `json:"course_id" gorm:"primaryKey;size:36"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	Progress    int        `json:"progress" gorm:"not null;default:0"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (UserCourseProgress) TableName() string {
	return "user_courses"
}

// Badge is awarded once per (user, course) when the course is completed.
type Badge struct {
	UserID      string    `json:"user_id" gorm:"primaryKey;size:255"`
	CourseID    string    `json:"course_id" gorm:"primaryKey;size:36"`
	CourseTitle string    `json:"course_title" gorm:"size:200"`
	UserName    string    `json:"user_name" gorm:"size:200"`
	AwardedAt   time.Time `json:"awarded_at"`
}

func (Badge) TableName() string {
	return "badges"
}
