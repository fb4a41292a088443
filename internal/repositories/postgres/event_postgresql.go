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

type EventPostgreSQL struct {
	db *gorm.DB
}

func NewEventPostgreSQL(db *gorm.DB) repositories.EventRepository {
	return &EventPostgreSQL{db: db}
}

func (e *EventPostgreSQL) Create(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	event.Tags = nonNil(event.Tags)
	if err := pickDB(e.db, tx).WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", translateError(err))
	}
	return nil
}

func (e *EventPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	if err := pickDB(e.db, tx).WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (e *EventPostgreSQL) Update(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	updates := map[string]interface{}{
		"title":       event.Title,
		"description": event.Description,
		"start_date":  event.StartDate,
		"end_date":    event.EndDate,
		"color":       event.Color,
		"tags":        datatypes.JSONSlice[string](nonNil(event.Tags)),
		"updated_at":  time.Now(),
	}

	result := pickDB(e.db, tx).WithContext(ctx).Model(&models.Event{}).Where("id = ?", event.ID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (e *EventPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := pickDB(e.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&models.Event{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ListUpcoming returns events that have not ended yet, soonest first.
func (e *EventPostgreSQL) ListUpcoming(ctx context.Context, tx *gorm.DB, now time.Time, filters repositories.EventFilters) ([]*models.Event, error) {
	query := e.applyFilters(pickDB(e.db, tx).WithContext(ctx), filters).
		Where("end_date >= ?", now).
		Order("start_date ASC")

	var events []*models.Event
	if err := paginate(query, filters.Limit, filters.Offset).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	return events, nil
}

// ListPast returns events that already ended, most recent first.
func (e *EventPostgreSQL) ListPast(ctx context.Context, tx *gorm.DB, now time.Time, filters repositories.EventFilters) ([]*models.Event, error) {
	query := e.applyFilters(pickDB(e.db, tx).WithContext(ctx), filters).
		Where("end_date < ?", now).
		Order("start_date DESC")

	var events []*models.Event
	if err := paginate(query, filters.Limit, filters.Offset).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list past events: %w", err)
	}
	return events, nil
}

func (e *EventPostgreSQL) Search(ctx context.Context, tx *gorm.DB, filters repositories.EventFilters) ([]*models.Event, error) {
	query := e.applyFilters(pickDB(e.db, tx).WithContext(ctx), filters).Order("start_date ASC")

	var events []*models.Event
	if err := paginate(query, filters.Limit, filters.Offset).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	return events, nil
}

func (e *EventPostgreSQL) applyFilters(query *gorm.DB, filters repositories.EventFilters) *gorm.DB {
	if filters.Query != "" {
		query = query.Where(lowerContains("title"), containsPattern(filters.Query))
	}
	return query
}
