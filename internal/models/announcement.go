package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
	AttachmentLink  AttachmentType = "link"
)

type Attachment struct {
	URL  string         `json:"url"`
	Name string         `json:"name"`
	Type AttachmentType `json:"type"`
}

type Announcement struct {
	ID            string                          `json:"id" gorm:"primaryKey;size:36"`
	Title         string                          `json:"title" gorm:"not null;size:200;index"`
	Description   string                          `json:"description" gorm:"type:text"`
	Date          time.Time                       `json:"date" gorm:"not null;index"`
	ScheduledDate *time.Time                      `json:"scheduled_date"`
	Attachments   datatypes.JSONSlice[Attachment] `json:"attachments"`
	CoverImageURL *string                         `json:"cover_image_url" gorm:"size:500"`

	CreatedBy string    `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}
