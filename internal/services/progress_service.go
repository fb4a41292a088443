package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type progressService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger, now func() time.Time) ProgressService {
	return &progressService{repo: repo, logger: logger, now: now}
}

// StartCourse creates the progress record if absent and returns it.
func (s *progressService) StartCourse(ctx context.Context, sess auth.SessionContext, courseID string) (*ProgressResponse, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	course, err := s.visibleCourse(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.repo.Progress().Get(ctx, nil, sess.UserID, courseID)
	switch {
	case err == nil:
		return &ProgressResponse{UserCourseProgress: progress, TotalLessons: course.LessonCount()}, nil
	case !repositories.IsNotFoundError(err):
		return nil, err
	}

	now := s.now().UTC()
	progress = &models.UserCourseProgress{
		UserID:    sess.UserID,
		CourseID:  courseID,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Progress().Save(ctx, nil, progress); err != nil {
		return nil, err
	}

	s.logger.Info("Course started", "user_id", sess.UserID, "course_id", courseID)
	return &ProgressResponse{UserCourseProgress: progress, TotalLessons: course.LessonCount()}, nil
}

// CompleteLesson advances progress by one lesson. Reaching the lesson total
// completes the course and awards its badge in the same transaction.
func (s *progressService) CompleteLesson(ctx context.Context, sess auth.SessionContext, courseID string) (*ProgressResponse, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	course, err := s.visibleCourse(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}

	resp := &ProgressResponse{TotalLessons: course.LessonCount()}
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		progress, err := s.startedProgress(ctx, tx, sess.UserID, courseID)
		if err != nil {
			return err
		}
		resp.UserCourseProgress = progress
		if progress.Completed {
			return nil
		}

		now := s.now().UTC()
		progress.Progress++
		progress.UpdatedAt = now
		if progress.Progress >= resp.TotalLessons {
			progress.Progress = resp.TotalLessons
			progress.Completed = true
			progress.CompletedAt = &now
		}
		if err := tx.Progress().Save(ctx, nil, progress); err != nil {
			return err
		}
		if !progress.Completed {
			return nil
		}

		awarded, err := tx.Badge().Award(ctx, nil, &models.Badge{
			UserID:      sess.UserID,
			CourseID:    courseID,
			CourseTitle: course.Title,
			UserName:    s.displayName(ctx, tx, sess),
			AwardedAt:   now,
		})
		if err != nil {
			return err
		}
		resp.BadgeAwarded = awarded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.BadgeAwarded {
		s.logger.Info("Course completed, badge awarded", "user_id", sess.UserID, "course_id", courseID)
	}
	return resp, nil
}

// RetakeCourse resets the record in place. An earned badge is kept.
func (s *progressService) RetakeCourse(ctx context.Context, sess auth.SessionContext, courseID string) (*ProgressResponse, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	course, err := s.visibleCourse(ctx, sess, courseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.startedProgress(ctx, s.repo, sess.UserID, courseID)
	if err != nil {
		return nil, err
	}

	progress.Completed = false
	progress.Progress = 0
	progress.CompletedAt = nil
	progress.UpdatedAt = s.now().UTC()
	if err := s.repo.Progress().Save(ctx, nil, progress); err != nil {
		return nil, err
	}

	s.logger.Info("Course retake", "user_id", sess.UserID, "course_id", courseID)
	return &ProgressResponse{UserCourseProgress: progress, TotalLessons: course.LessonCount()}, nil
}

// MyCourses splits the caller's courses by progress. Records whose course was
// deleted are skipped.
func (s *progressService) MyCourses(ctx context.Context, sess auth.SessionContext) (*MyCoursesResponse, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	records, err := s.repo.Progress().ListByUser(ctx, nil, sess.UserID)
	if err != nil {
		return nil, err
	}
	courses, _, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	resp := &MyCoursesResponse{
		InProgress: []*CourseProgressView{},
		Completed:  []*CourseProgressView{},
		Available:  []*CourseResponse{},
	}
	started := make(map[string]bool, len(records))
	for _, rec := range records {
		started[rec.CourseID] = true
		course, ok := byID[rec.CourseID]
		if !ok {
			s.logger.Debug("Skipping progress for missing course", "user_id", sess.UserID, "course_id", rec.CourseID)
			continue
		}
		view := &CourseProgressView{Course: courseSummary(sess, course), Progress: rec}
		if rec.Completed {
			resp.Completed = append(resp.Completed, view)
		} else {
			resp.InProgress = append(resp.InProgress, view)
		}
	}

	for _, course := range courses {
		if started[course.ID] || !(sess.CanModerate() || course.VisibleTo(sess.UserID)) {
			continue
		}
		resp.Available = append(resp.Available, courseSummary(sess, course))
	}
	return resp, nil
}

func (s *progressService) Badges(ctx context.Context, sess auth.SessionContext) ([]*models.Badge, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return s.repo.Badge().ListByUser(ctx, nil, sess.UserID)
}

func (s *progressService) visibleCourse(ctx context.Context, sess auth.SessionContext, courseID string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !sess.CanModerate() && !course.VisibleTo(sess.UserID) {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *progressService) startedProgress(ctx context.Context, repo repositories.Repository, userID, courseID string) (*models.UserCourseProgress, error) {
	progress, err := repo.Progress().Get(ctx, nil, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewBusinessRuleError("COURSE_NOT_STARTED", "course has not been started",
				map[string]interface{}{"course_id": courseID})
		}
		return nil, err
	}
	return progress, nil
}

func (s *progressService) displayName(ctx context.Context, repo repositories.Repository, sess auth.SessionContext) string {
	user, err := repo.User().GetByID(ctx, nil, sess.UserID)
	if err != nil {
		s.logger.Warn("Badge holder has no profile, using email", "user_id", sess.UserID, "error", err)
		return sess.Email
	}
	return user.FullName()
}

func courseSummary(sess auth.SessionContext, course *models.Course) *CourseResponse {
	return &CourseResponse{
		Course:          course,
		LessonCount:     course.LessonCount(),
		DurationDisplay: models.FormatDuration(course.DurationHours, course.DurationMinutes),
		CanEdit:         sess.IsAdmin(),
	}
}
