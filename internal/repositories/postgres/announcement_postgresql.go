package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnnouncementPostgreSQL struct {
	db *gorm.DB
}

func NewAnnouncementPostgreSQL(db *gorm.DB) repositories.AnnouncementRepository {
	return &AnnouncementPostgreSQL{db: db}
}

func (a *AnnouncementPostgreSQL) Create(ctx context.Context, tx *gorm.DB, announcement *models.Announcement) error {
	announcement.Attachments = nonNil(announcement.Attachments)
	if err := pickDB(a.db, tx).WithContext(ctx).Create(announcement).Error; err != nil {
		return fmt.Errorf("failed to create announcement: %w", translateError(err))
	}
	return nil
}

func (a *AnnouncementPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := pickDB(a.db, tx).WithContext(ctx).First(&announcement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}
	return &announcement, nil
}

func (a *AnnouncementPostgreSQL) Update(ctx context.Context, tx *gorm.DB, announcement *models.Announcement) error {
	updates := map[string]interface{}{
		"title":           announcement.Title,
		"description":     announcement.Description,
		"date":            announcement.Date,
		"scheduled_date":  announcement.ScheduledDate,
		"attachments":     datatypes.JSONSlice[models.Attachment](nonNil(announcement.Attachments)),
		"cover_image_url": announcement.CoverImageURL,
		"updated_at":      time.Now(),
	}

	result := pickDB(a.db, tx).WithContext(ctx).Model(&models.Announcement{}).Where("id = ?", announcement.ID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update announcement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (a *AnnouncementPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := pickDB(a.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&models.Announcement{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete announcement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// List returns announcements newest first, optionally filtered by title.
func (a *AnnouncementPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AnnouncementFilters) ([]*models.Announcement, int64, error) {
	query := pickDB(a.db, tx).WithContext(ctx).Model(&models.Announcement{})
	if filters.Query != "" {
		query = query.Where(lowerContains("title"), containsPattern(filters.Query))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count announcements: %w", err)
	}

	var announcements []*models.Announcement
	if err := paginate(query.Order("date DESC"), filters.Limit, filters.Offset).Find(&announcements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list announcements: %w", err)
	}
	return announcements, total, nil
}
