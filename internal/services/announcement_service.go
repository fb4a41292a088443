package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds the attachment fan-out per request.
const maxParallelUploads = 4

type announcementService struct {
	repo      repositories.Repository
	blobs     storage.BlobStore
	changes   changeNotifier
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewAnnouncementService(repo repositories.Repository, blobs storage.BlobStore, publisher ChangePublisher, logger *slog.Logger, validator *validator.Validator, now func() time.Time) AnnouncementService {
	return &announcementService{
		repo:      repo,
		blobs:     blobs,
		changes:   changeNotifier{publisher: publisher, collection: events.CollectionAnnouncements, logger: logger, now: now},
		logger:    logger,
		validator: validator,
		now:       now,
	}
}

func (s *announcementService) Create(ctx context.Context, sess auth.SessionContext, req *AnnouncementRequest, files []storage.File, cover *storage.File) (*models.Announcement, error) {
	s.logger.Info("Creating announcement", "title", req.Title, "attachments", len(files), "created_by", sess.UserID)

	if err := requireModerator(sess, "announcement", "", "create"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateAnnouncement(req); len(errs) > 0 {
		return nil, errs
	}

	announcement := &models.Announcement{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Date:        s.now().UTC(),
		CreatedBy:   sess.UserID,
	}
	if req.Date != nil {
		announcement.Date = *req.Date
	}
	announcement.ScheduledDate = req.ScheduledDate

	attachments, err := s.collectAttachments(ctx, req, files)
	if err != nil {
		return nil, err
	}
	announcement.Attachments = attachments

	if cover != nil {
		url, err := s.uploadCover(ctx, cover)
		if err != nil {
			return nil, err
		}
		announcement.CoverImageURL = &url
	}

	if err := s.repo.Announcement().Create(ctx, nil, announcement); err != nil {
		s.logger.Warn("Announcement write failed after uploads, blobs left orphaned",
			"attachments", len(files), "error", err)
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	s.changes.notify(ctx, announcement.ID, events.OpCreated, 0)
	return announcement, nil
}

// Update overwrites the text fields and appends new attachments to the
// existing list. A new cover replaces the old one.
func (s *announcementService) Update(ctx context.Context, sess auth.SessionContext, id string, req *AnnouncementRequest, files []storage.File, cover *storage.File) (*models.Announcement, error) {
	s.logger.Info("Updating announcement", "announcement_id", id, "attachments", len(files), "user_id", sess.UserID)

	if err := requireModerator(sess, "announcement", id, "update"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateAnnouncement(req); len(errs) > 0 {
		return nil, errs
	}

	announcement, err := s.repo.Announcement().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrAnnouncementNotFound)
	}

	announcement.Title = req.Title
	announcement.Description = req.Description
	if req.Date != nil {
		announcement.Date = *req.Date
	}
	announcement.ScheduledDate = req.ScheduledDate

	added, err := s.collectAttachments(ctx, req, files)
	if err != nil {
		return nil, err
	}
	announcement.Attachments = append(announcement.Attachments, added...)

	if cover != nil {
		url, err := s.uploadCover(ctx, cover)
		if err != nil {
			return nil, err
		}
		announcement.CoverImageURL = &url
	}

	if err := s.repo.Announcement().Update(ctx, nil, announcement); err != nil {
		return nil, notFound(err, ErrAnnouncementNotFound)
	}

	s.changes.notify(ctx, announcement.ID, events.OpUpdated, 0)
	return announcement, nil
}

func (s *announcementService) Delete(ctx context.Context, sess auth.SessionContext, id string) error {
	s.logger.Info("Deleting announcement", "announcement_id", id, "user_id", sess.UserID)

	if err := requireModerator(sess, "announcement", id, "delete"); err != nil {
		return err
	}
	if err := s.repo.Announcement().Delete(ctx, nil, id); err != nil {
		return notFound(err, ErrAnnouncementNotFound)
	}

	s.changes.notify(ctx, id, events.OpDeleted, 0)
	return nil
}

func (s *announcementService) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.Announcement().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrAnnouncementNotFound)
	}
	return announcement, nil
}

func (s *announcementService) List(ctx context.Context, filters repositories.AnnouncementFilters) (*AnnouncementListResponse, error) {
	announcements, total, err := s.repo.Announcement().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	return &AnnouncementListResponse{
		Announcements: announcements,
		Total:         total,
		Limit:         filters.Limit,
		Offset:        filters.Offset,
	}, nil
}

// collectAttachments uploads files in parallel and appends the request's
// links. Upload order is preserved in the result; the first failed upload
// cancels the rest and the files already stored are removed.
func (s *announcementService) collectAttachments(ctx context.Context, req *AnnouncementRequest, files []storage.File) ([]models.Attachment, error) {
	uploaded := make([]models.Attachment, len(files))
	paths := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i := range files {
		f := &files[i]
		g.Go(func() error {
			path := storage.TimestampedPath(storage.PrefixAttachments, f.Name, s.now())
			url, err := uploadFile(gctx, s.blobs, path, f)
			if err != nil {
				return err
			}
			paths[i] = path

			kind := models.AttachmentFile
			contentType := f.ContentType
			if contentType == "" {
				contentType = storage.ContentTypeForName(f.Name)
			}
			if storage.IsImage(contentType) {
				kind = models.AttachmentImage
			}
			uploaded[i] = models.Attachment{URL: url, Name: f.Name, Type: kind}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		discardBlobs(ctx, s.blobs, s.logger, paths...)
		return nil, err
	}

	attachments := make([]models.Attachment, 0, len(uploaded)+len(req.Links))
	attachments = append(attachments, uploaded...)
	for _, link := range req.Links {
		name := link.Name
		if name == "" {
			name = link.URL
		}
		attachments = append(attachments, models.Attachment{URL: link.URL, Name: name, Type: models.AttachmentLink})
	}
	return attachments, nil
}

func (s *announcementService) uploadCover(ctx context.Context, cover *storage.File) (string, error) {
	path := storage.TimestampedPath(storage.PrefixCoverImages, cover.Name, s.now())
	return uploadFile(ctx, s.blobs, path, cover)
}
