package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string
type Role = UserRole // Alias for compatibility

// Wire values match the role strings already stored in user profiles.
const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderador"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r belongs to the closed role set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath is the landing route for a freshly signed-in user of this role.
func (r UserRole) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleModerator:
		return "/moderador"
	default:
		return "/dashboard"
	}
}

// DefaultProfileImage is stored when a user skips profile setup.
const DefaultProfileImage = "default-gray-profile.png"

type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100"`
	Role      UserRole `json:"role" gorm:"not null;size:20;default:user;index"`

	// Profile info
	Location        *string                     `json:"location" gorm:"size:100"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	ProfileImageURL *string                     `json:"profile_image_url" gorm:"size:500"`
	Description     string                      `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name the way badges and headers display it.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
