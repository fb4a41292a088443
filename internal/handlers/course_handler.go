package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// CreateCourse creates a new course
// @Summary Create course
// @Description Accepts JSON, or multipart with a "data" JSON field and an optional "thumbnail" file
// @Tags courses
// @Accept json,mpfd
// @Produce json
// @Param course body services.CourseRequest true "Course data"
// @Success 201 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.CourseRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	var uploads uploadCloser
	defer uploads.Close()
	thumbnail, err := formFile(c, "thumbnail", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid thumbnail upload", err)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), sess, &req, thumbnail)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course created", "course_id", course.ID)
	setETag(c, course.Version)
	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course by ID
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	setETag(c, course.Version)
	c.JSON(http.StatusOK, course)
}

// ListCourses lists courses visible to the caller
// @Summary List courses
// @Tags courses
// @Produce json
// @Param q query string false "Title contains"
// @Param category query string false "Category"
// @Param created_by query string false "Creator user ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	limit, offset := h.pagination(c)
	filters := repositories.CourseFilters{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	}
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}

	list, err := h.courseService.List(c.Request.Context(), sess, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// UpdateCourse updates course-level fields
// @Summary Update course
// @Description Lessons are preserved unless the body carries a "lessons" array. If-Match turns the write into a compare-and-swap.
// @Tags courses
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Course ID"
// @Param If-Match header string false "Expected version"
// @Param course body services.CourseRequest true "Course data"
// @Success 200 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.CourseRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}
	expected, err := expectedVersion(c)
	if err != nil {
		h.badRequest(c, "Invalid If-Match header", err)
		return
	}
	if expected != nil {
		req.ExpectedVersion = expected
	}

	var uploads uploadCloser
	defer uploads.Close()
	thumbnail, err := formFile(c, "thumbnail", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid thumbnail upload", err)
		return
	}

	id := c.Param("id")
	course, err := h.courseService.Update(c.Request.Context(), sess, id, &req, thumbnail)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course updated", "course_id", id, "version", course.Version)
	setETag(c, course.Version)
	c.JSON(http.StatusOK, course)
}

// DeleteCourse deletes a course
// @Summary Delete course
// @Tags courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.courseService.Delete(c.Request.Context(), sess, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course deleted", "course_id", id)
	c.Status(http.StatusNoContent)
}

// ListLessons returns the lesson sequence of a course
// @Summary List lessons
// @Tags lessons
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.LessonsResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/lessons [get]
func (h *CourseHandler) ListLessons(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	lessons, err := h.courseService.ListLessons(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	setETag(c, lessons.Version)
	c.JSON(http.StatusOK, lessons)
}

// AddLesson appends a lesson
// @Summary Add lesson
// @Tags lessons
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Course ID"
// @Param If-Match header string false "Expected version"
// @Param lesson body services.LessonRequest true "Lesson data"
// @Success 201 {object} services.LessonsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/lessons [post]
func (h *CourseHandler) AddLesson(c *gin.Context) {
	h.saveLesson(c, nil, http.StatusCreated)
}

// UpdateLesson replaces the lesson at index
// @Summary Update lesson
// @Tags lessons
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Course ID"
// @Param index path int true "Lesson position"
// @Param If-Match header string false "Expected version"
// @Param lesson body services.LessonRequest true "Lesson data"
// @Success 200 {object} services.LessonsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/lessons/{index} [put]
func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	index, ok := h.lessonIndex(c)
	if !ok {
		return
	}
	h.saveLesson(c, &index, http.StatusOK)
}

func (h *CourseHandler) saveLesson(c *gin.Context, index *int, status int) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.LessonRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}
	expected, err := expectedVersion(c)
	if err != nil {
		h.badRequest(c, "Invalid If-Match header", err)
		return
	}

	var uploads uploadCloser
	defer uploads.Close()
	thumbnail, err := formFile(c, "thumbnail", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid thumbnail upload", err)
		return
	}

	courseID := c.Param("id")
	lessons, err := h.courseService.SaveLesson(c.Request.Context(), sess, courseID, &req, services.LessonEdit{
		Index:           index,
		ExpectedVersion: expected,
		Thumbnail:       thumbnail,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Lesson saved", "course_id", courseID, "lessons", len(lessons.Lessons), "version", lessons.Version)
	setETag(c, lessons.Version)
	c.JSON(status, lessons)
}

// DeleteLesson removes the lesson at index
// @Summary Delete lesson
// @Tags lessons
// @Produce json
// @Param id path string true "Course ID"
// @Param index path int true "Lesson position"
// @Param If-Match header string false "Expected version"
// @Success 200 {object} services.LessonsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/lessons/{index} [delete]
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := h.lessonIndex(c)
	if !ok {
		return
	}
	expected, err := expectedVersion(c)
	if err != nil {
		h.badRequest(c, "Invalid If-Match header", err)
		return
	}

	courseID := c.Param("id")
	lessons, err := h.courseService.DeleteLesson(c.Request.Context(), sess, courseID, index, expected)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Lesson deleted", "course_id", courseID, "index", index)
	setETag(c, lessons.Version)
	c.JSON(http.StatusOK, lessons)
}

func (h *CourseHandler) lessonIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, "Invalid lesson index", err)
		return 0, false
	}
	return index, true
}
