package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/editor"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/google/uuid"
)

type courseService struct {
	repo      repositories.Repository
	blobs     storage.BlobStore
	changes   changeNotifier
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewCourseService(repo repositories.Repository, blobs storage.BlobStore, publisher ChangePublisher, logger *slog.Logger, validator *validator.Validator, now func() time.Time) CourseService {
	return &courseService{
		repo:      repo,
		blobs:     blobs,
		changes:   changeNotifier{publisher: publisher, collection: events.CollectionCourses, logger: logger, now: now},
		logger:    logger,
		validator: validator,
		now:       now,
	}
}

// ===== COURSE CRUD =====

func (s *courseService) Create(ctx context.Context, sess auth.SessionContext, req *CourseRequest, thumbnail *storage.File) (*CourseResponse, error) {
	s.logger.Info("Creating course", "title", req.Title, "created_by", sess.UserID)

	if err := requireAdmin(sess, "course", "", "create"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateCourse(req); len(errs) > 0 {
		return nil, errs
	}

	course := &models.Course{
		ID:        uuid.NewString(),
		Lessons:   []models.Lesson{},
		Version:   1,
		CreatedBy: sess.UserID,
	}
	applyCourseRequest(course, req)

	var thumbnailPath string
	if thumbnail != nil {
		thumbnailPath = storage.TimestampedPath(storage.PrefixCourseThumbnails, req.Title, s.now())
		url, err := uploadFile(ctx, s.blobs, thumbnailPath, thumbnail)
		if err != nil {
			return nil, err
		}
		course.ThumbnailURL = &url
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		if thumbnailPath != "" {
			s.logger.Warn("Course write failed after thumbnail upload, blob left orphaned",
				"path", thumbnailPath, "error", err)
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.changes.notify(ctx, course.ID, events.OpCreated, course.Version)
	s.logger.Info("Course created", "course_id", course.ID, "title", course.Title)
	return s.toResponse(sess, course), nil
}

// Update overwrites course-level fields. Lessons are kept unless the request
// carries them.
func (s *courseService) Update(ctx context.Context, sess auth.SessionContext, id string, req *CourseRequest, thumbnail *storage.File) (*CourseResponse, error) {
	s.logger.Info("Updating course", "course_id", id, "user_id", sess.UserID)

	if err := requireAdmin(sess, "course", id, "update"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateCourse(req); len(errs) > 0 {
		return nil, errs
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}

	applyCourseRequest(course, req)
	opts := repositories.CourseUpdateOptions{ExpectedVersion: req.ExpectedVersion}
	if req.Lessons != nil {
		course.Lessons = toLessons(*req.Lessons)
		opts.IncludeLessons = true
	}

	if thumbnail != nil {
		path := storage.TimestampedPath(storage.PrefixCourseThumbnails, req.Title, s.now())
		url, err := uploadFile(ctx, s.blobs, path, thumbnail)
		if err != nil {
			return nil, err
		}
		course.ThumbnailURL = &url
	}

	if err := s.repo.Course().Update(ctx, nil, course, opts); err != nil {
		if repositories.IsVersionConflict(err) {
			return nil, err
		}
		return nil, notFound(err, ErrCourseNotFound)
	}

	s.changes.notify(ctx, course.ID, events.OpUpdated, course.Version)
	return s.toResponse(sess, course), nil
}

func (s *courseService) Delete(ctx context.Context, sess auth.SessionContext, id string) error {
	s.logger.Info("Deleting course", "course_id", id, "user_id", sess.UserID)

	if err := requireAdmin(sess, "course", id, "delete"); err != nil {
		return err
	}
	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return notFound(err, ErrCourseNotFound)
	}

	s.changes.notify(ctx, id, events.OpDeleted, 0)
	return nil
}

func (s *courseService) GetByID(ctx context.Context, sess auth.SessionContext, id string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !s.canView(sess, course) {
		return nil, ErrCourseNotFound
	}
	return s.toResponse(sess, course), nil
}

// List returns courses visible to the caller. Standard users only see
// restricted courses they are listed on.
func (s *courseService) List(ctx context.Context, sess auth.SessionContext, filters repositories.CourseFilters) (*CourseListResponse, error) {
	filters.VisibleTo = nil
	if !sess.CanModerate() {
		filters.VisibleTo = &sess.UserID
	}
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}

	out := make([]*CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, s.toResponse(sess, course))
	}

	return &CourseListResponse{
		Courses: out,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// ===== LESSON EDITING =====

func (s *courseService) ListLessons(ctx context.Context, sess auth.SessionContext, courseID string) (*LessonsResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !s.canView(sess, course) {
		return nil, ErrCourseNotFound
	}
	return &LessonsResponse{CourseID: course.ID, Version: course.Version, Lessons: course.Lessons}, nil
}

// SaveLesson appends or replaces one lesson and writes the whole sequence
// back. An expected version turns the write into a compare-and-swap.
func (s *courseService) SaveLesson(ctx context.Context, sess auth.SessionContext, courseID string, req *LessonRequest, edit LessonEdit) (*LessonsResponse, error) {
	s.logger.Info("Saving lesson", "course_id", courseID, "index", edit.Index, "user_id", sess.UserID)

	if err := requireAdmin(sess, "lesson", courseID, "save"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateLesson(req); len(errs) > 0 {
		return nil, errs
	}

	expected := edit.ExpectedVersion
	if expected == nil {
		expected = req.ExpectedVersion
	}

	session, err := s.openEditor(ctx, courseID, expected)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	lesson := toLesson(*req)
	if edit.Index != nil {
		if err := session.BeginEdit(*edit.Index); err != nil {
			return nil, s.lessonWriteError(err)
		}
		if lesson.ThumbnailURL == nil {
			lesson.ThumbnailURL = session.Lessons()[*edit.Index].ThumbnailURL
		}
	} else if err := session.BeginAdd(); err != nil {
		return nil, err
	}

	if edit.Thumbnail != nil {
		path := storage.TimestampedPath(storage.PrefixLessonThumbnails, req.Title, s.now())
		url, err := uploadFile(ctx, s.blobs, path, edit.Thumbnail)
		if err != nil {
			return nil, err
		}
		lesson.ThumbnailURL = &url
	}

	if err := session.AddOrUpdateLesson(ctx, lesson, edit.Index); err != nil {
		return nil, s.lessonWriteError(err)
	}

	s.changes.notify(ctx, courseID, events.OpUpdated, session.Version())
	return editorResponse(session), nil
}

// DeleteLesson removes the lesson at index. Later lessons shift left and
// keep their step numbers.
func (s *courseService) DeleteLesson(ctx context.Context, sess auth.SessionContext, courseID string, index int, expectedVersion *int) (*LessonsResponse, error) {
	s.logger.Info("Deleting lesson", "course_id", courseID, "index", index, "user_id", sess.UserID)

	if err := requireAdmin(sess, "lesson", courseID, "delete"); err != nil {
		return nil, err
	}

	session, err := s.openEditor(ctx, courseID, expectedVersion)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.DeleteLesson(ctx, index); err != nil {
		return nil, s.lessonWriteError(err)
	}

	s.changes.notify(ctx, courseID, events.OpUpdated, session.Version())
	return editorResponse(session), nil
}

// openEditor starts an editor session on the course. With an expected
// version the session runs in compare-and-swap mode and must have loaded
// exactly that version.
func (s *courseService) openEditor(ctx context.Context, courseID string, expected *int) (*editor.Session, error) {
	mode := editor.LastWriterWins
	if expected != nil {
		mode = editor.CompareAndSwap
	}

	session := editor.NewSession(lessonStore{courses: s.repo.Course()}, mode)
	if err := session.OpenCourse(ctx, courseID); err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if expected != nil {
		if err := session.ExpectVersion(*expected); err != nil {
			session.Close()
			return nil, err
		}
	}
	return session, nil
}

func (s *courseService) lessonWriteError(err error) error {
	switch {
	case errors.Is(err, editor.ErrIndexOutOfRange):
		return lessonIndexError(err)
	case repositories.IsVersionConflict(err):
		return err
	case repositories.IsNotFoundError(err):
		return ErrCourseNotFound
	}
	return fmt.Errorf("failed to write lessons: %w", err)
}

func (s *courseService) canView(sess auth.SessionContext, course *models.Course) bool {
	return sess.CanModerate() || course.VisibleTo(sess.UserID)
}

func (s *courseService) toResponse(sess auth.SessionContext, course *models.Course) *CourseResponse {
	return courseSummary(sess, course)
}
