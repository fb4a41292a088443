package models

import (
	"time"

	"gorm.io/datatypes"
)

// Pastel palette offered by the event editor; any hex color is accepted.
const (
	EventColorRed    = "#FFB3BA"
	EventColorOrange = "#FFDFBA"
	EventColorYellow = "#FFFFBA"
	EventColorGreen  = "#BAFFC9"
	EventColorBlue   = "#BAE1FF"
)

type Event struct {
	ID          string                      `json:"id" gorm:"primaryKey;size:36"`
	Title       string                      `json:"title" gorm:"not null;size:200;index"`
	Description string                      `json:"description" gorm:"type:text"`
	StartDate   time.Time                   `json:"start_date" gorm:"not null;index"`
	EndDate     time.Time                   `json:"end_date" gorm:"not null;index"`
	Color       string                      `json:"color" gorm:"size:20"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`

	CreatedBy string    `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// IsPast reports whether the event ended before now.
func (e *Event) IsPast(now time.Time) bool {
	return e.EndDate.Before(now)
}
