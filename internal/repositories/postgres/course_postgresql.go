package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// Create inserts a new course. Lessons start empty and version at 1.
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	course.Lessons = nonNil(course.Lessons)
	course.AllowedUsers = nonNil(course.AllowedUsers)
	if course.Version == 0 {
		course.Version = 1
	}

	if err := pickDB(c.db, tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", translateError(err))
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// GetByID reads through the course cache outside transactions.
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	fetch := func() (interface{}, error) {
		var course models.Course
		if err := pickDB(c.db, tx).WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &course, nil
	}

	if tx != nil {
		course, err := fetch()
		if err != nil {
			return nil, err
		}
		return course.(*models.Course), nil
	}

	var course models.Course
	if err := c.cacheManager.Course.CacheOrExecute(ctx, "id:"+id, &course, fetch); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Course, error) {
	var courses []*models.Course
	if len(ids) == 0 {
		return courses, nil
	}
	if err := pickDB(c.db, tx).WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return courses, nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := pickDB(c.db, tx).WithContext(ctx).Model(&models.Course{})
	if filters.Query != "" {
		query = query.Where(lowerContains("title"), containsPattern(filters.Query))
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.VisibleTo != nil {
		query = query.Where(c.db.Where("visibility <> ?", models.VisibilityRestricted).
			Or(datatypes.JSONArrayQuery("allowed_users").Contains(*filters.VisibleTo)))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []*models.Course
	if err := paginate(query.Order("created_at DESC"), filters.Limit, filters.Offset).Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

// Update overwrites course-level fields. Lessons are only written when
// opts.IncludeLessons is set.
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course, opts repositories.CourseUpdateOptions) error {
	updates := map[string]interface{}{
		"title":             course.Title,
		"short_description": course.ShortDescription,
		"about":             course.About,
		"category":          course.Category,
		"visibility":        course.Visibility,
		"allowed_users":     datatypes.JSONSlice[string](nonNil(course.AllowedUsers)),
		"duration_hours":    course.DurationHours,
		"duration_minutes":  course.DurationMinutes,
		"duration":          course.Duration,
		"thumbnail_url":     course.ThumbnailURL,
	}
	if opts.IncludeLessons {
		updates["lessons"] = datatypes.JSONSlice[models.Lesson](nonNil(course.Lessons))
	}

	version, err := c.writeVersioned(ctx, tx, course.ID, updates, opts.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	course.Version = version
	return nil
}

// WriteLessons replaces the whole embedded lesson array.
func (c *CoursePostgreSQL) WriteLessons(ctx context.Context, tx *gorm.DB, id string, lessons []models.Lesson, expectedVersion *int) (int, error) {
	updates := map[string]interface{}{
		"lessons": datatypes.JSONSlice[models.Lesson](nonNil(lessons)),
	}
	version, err := c.writeVersioned(ctx, tx, id, updates, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to write lessons: %w", err)
	}
	return version, nil
}

// writeVersioned applies updates, bumps the version and returns the new one.
// With expectedVersion set the UPDATE is conditioned on it; zero affected
// rows on an existing course is a conflict.
func (c *CoursePostgreSQL) writeVersioned(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}, expectedVersion *int) (int, error) {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	var version int
	err := pickDB(c.db, tx).WithContext(ctx).Transaction(func(t *gorm.DB) error {
		query := t.Model(&models.Course{}).Where("id = ?", id)
		if expectedVersion != nil {
			query = query.Where("version = ?", *expectedVersion)
		}

		result := query.Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := t.Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return repositories.ErrNotFound
			}
			return repositories.ErrVersionConflict
		}

		var current models.Course
		if err := t.Select("version").First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		version = current.Version
		return nil
	})
	if err != nil {
		return 0, err
	}

	cache.InvalidateCourse(ctx, c.cacheManager, id)
	return version, nil
}

// Delete removes the course document. Progress and badges are left alone.
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := pickDB(c.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&models.Course{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateCourse(ctx, c.cacheManager, id)
	return nil
}
