package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/google/uuid"
)

type eventService struct {
	repo      repositories.Repository
	changes   changeNotifier
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewEventService(repo repositories.Repository, publisher ChangePublisher, logger *slog.Logger, validator *validator.Validator, now func() time.Time) EventService {
	return &eventService{
		repo:      repo,
		changes:   changeNotifier{publisher: publisher, collection: events.CollectionEvents, logger: logger, now: now},
		logger:    logger,
		validator: validator,
		now:       now,
	}
}

func (s *eventService) Create(ctx context.Context, sess auth.SessionContext, req *EventRequest) (*models.Event, error) {
	s.logger.Info("Creating event", "title", req.Title, "created_by", sess.UserID)

	if err := requireModerator(sess, "event", "", "create"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateEvent(req); len(errs) > 0 {
		return nil, errs
	}

	event := &models.Event{ID: uuid.NewString(), CreatedBy: sess.UserID}
	applyEventRequest(event, req)

	if err := s.repo.Event().Create(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.changes.notify(ctx, event.ID, events.OpCreated, 0)
	return event, nil
}

func (s *eventService) Update(ctx context.Context, sess auth.SessionContext, id string, req *EventRequest) (*models.Event, error) {
	s.logger.Info("Updating event", "event_id", id, "user_id", sess.UserID)

	if err := requireModerator(sess, "event", id, "update"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateEvent(req); len(errs) > 0 {
		return nil, errs
	}

	event, err := s.repo.Event().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	applyEventRequest(event, req)

	if err := s.repo.Event().Update(ctx, nil, event); err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}

	s.changes.notify(ctx, event.ID, events.OpUpdated, 0)
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, sess auth.SessionContext, id string) error {
	s.logger.Info("Deleting event", "event_id", id, "user_id", sess.UserID)

	if err := requireModerator(sess, "event", id, "delete"); err != nil {
		return err
	}
	if err := s.repo.Event().Delete(ctx, nil, id); err != nil {
		return notFound(err, ErrEventNotFound)
	}

	s.changes.notify(ctx, id, events.OpDeleted, 0)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.Event().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return event, nil
}

// ListUpcoming returns events that have not ended yet, soonest first.
func (s *eventService) ListUpcoming(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, error) {
	return s.repo.Event().ListUpcoming(ctx, nil, s.now(), filters)
}

// ListPast returns events that already ended, most recent first.
func (s *eventService) ListPast(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, error) {
	return s.repo.Event().ListPast(ctx, nil, s.now(), filters)
}

func (s *eventService) Search(ctx context.Context, filters repositories.EventFilters) ([]*models.Event, error) {
	filters.Query = strings.TrimSpace(filters.Query)
	return s.repo.Event().Search(ctx, nil, filters)
}

func applyEventRequest(event *models.Event, req *EventRequest) {
	event.Title = req.Title
	event.Description = req.Description
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate
	event.Color = req.Color
	if event.Color == "" {
		event.Color = models.EventColorBlue
	}
	event.Tags = append([]string{}, req.Tags...)
}
