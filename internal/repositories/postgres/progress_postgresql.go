package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.UserCourseProgress, error) {
	var progress models.UserCourseProgress
	err := pickDB(p.db, tx).WithContext(ctx).
		First(&progress, "user_id = ? AND course_id = ?", userID, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return &progress, nil
}

// Save upserts on the (user_id, course_id) key.
func (p *ProgressPostgreSQL) Save(ctx context.Context, tx *gorm.DB, progress *models.UserCourseProgress) error {
	err := pickDB(p.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "progress", "started_at", "completed_at", "updated_at"}),
		}).
		Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to save course progress: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserCourseProgress, error) {
	var records []*models.UserCourseProgress
	err := pickDB(p.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}
	return records, nil
}

type BadgePostgreSQL struct {
	db *gorm.DB
}

func NewBadgePostgreSQL(db *gorm.DB) repositories.BadgeRepository {
	return &BadgePostgreSQL{db: db}
}

// Award inserts the badge unless one already exists for the pair.
func (b *BadgePostgreSQL) Award(ctx context.Context, tx *gorm.DB, badge *models.Badge) (bool, error) {
	result := pickDB(b.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(badge)
	if result.Error != nil {
		return false, fmt.Errorf("failed to award badge: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (b *BadgePostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Badge, error) {
	var badges []*models.Badge
	err := pickDB(b.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}
