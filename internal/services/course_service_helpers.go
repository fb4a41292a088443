package services

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/editor"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// lessonStore adapts the course repository to the editor's store.
type lessonStore struct {
	courses repositories.CourseRepository
}

func (l lessonStore) LoadCourse(ctx context.Context, id string) (*models.Course, error) {
	return l.courses.GetByID(ctx, nil, id)
}

func (l lessonStore) WriteLessons(ctx context.Context, id string, lessons []models.Lesson, expectedVersion *int) (int, error) {
	return l.courses.WriteLessons(ctx, nil, id, lessons, expectedVersion)
}

func applyCourseRequest(course *models.Course, req *CourseRequest) {
	course.Title = req.Title
	course.ShortDescription = req.ShortDescription
	course.About = req.About
	course.Category = req.Category
	course.Visibility = models.VisibilityAll
	if req.Visibility != "" {
		course.Visibility = models.CourseVisibility(req.Visibility)
	}
	course.AllowedUsers = append([]string{}, req.AllowedUsers...)
	course.DurationHours = req.DurationHours
	course.DurationMinutes = req.DurationMinutes
	course.Duration = models.FormatDuration(req.DurationHours, req.DurationMinutes)
}

func toLesson(req LessonRequest) models.Lesson {
	resources := make([]models.Resource, 0, len(req.Resources))
	for _, r := range req.Resources {
		resources = append(resources, models.Resource{Name: r.Name, URL: r.URL})
	}
	return models.Lesson{
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		About:            req.About,
		ThumbnailURL:     req.ThumbnailURL,
		Resources:        resources,
		DurationHours:    req.DurationHours,
		DurationMinutes:  req.DurationMinutes,
		Duration:         models.FormatDuration(req.DurationHours, req.DurationMinutes),
		Step:             req.Step,
	}
}

func toLessons(reqs []LessonRequest) []models.Lesson {
	lessons := make([]models.Lesson, 0, len(reqs))
	for _, r := range reqs {
		lessons = append(lessons, toLesson(r))
	}
	return lessons
}

func lessonIndexError(err error) error {
	return fieldError("index", err.Error(), "range")
}

func editorResponse(session *editor.Session) *LessonsResponse {
	return &LessonsResponse{
		CourseID: session.CourseID(),
		Version:  session.Version(),
		Lessons:  session.Lessons(),
	}
}
