package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

type progressAction func(ctx context.Context, sess auth.SessionContext, courseID string) (*services.ProgressResponse, error)

// StartCourse starts tracking progress in a course
// @Summary Start course
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.ProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/progress/start [post]
func (h *ProgressHandler) StartCourse(c *gin.Context) {
	h.run(c, "Course started", h.progressService.StartCourse)
}

// CompleteLesson advances progress by one lesson
// @Summary Complete lesson
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.ProgressResponse
// @Failure 422 {object} ErrorResponse
// @Router /courses/{id}/progress/complete-lesson [post]
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	h.run(c, "Lesson completed", h.progressService.CompleteLesson)
}

// RetakeCourse resets progress in a course
// @Summary Retake course
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.ProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/progress/retake [post]
func (h *ProgressHandler) RetakeCourse(c *gin.Context) {
	h.run(c, "Course retaken", h.progressService.RetakeCourse)
}

func (h *ProgressHandler) run(c *gin.Context, msg string, action progressAction) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	courseID := c.Param("id")
	progress, err := action(c.Request.Context(), sess, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, msg, "course_id", courseID, "progress", progress.Progress, "completed", progress.Completed)
	c.JSON(http.StatusOK, progress)
}

// MyCourses splits courses into in progress, completed and available
// @Summary My courses
// @Tags progress
// @Produce json
// @Success 200 {object} services.MyCoursesResponse
// @Router /me/courses [get]
func (h *ProgressHandler) MyCourses(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	mine, err := h.progressService.MyCourses(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mine)
}

// Badges lists the caller's course completion badges
// @Summary My badges
// @Tags progress
// @Produce json
// @Success 200 {array} models.Badge
// @Router /me/badges [get]
func (h *ProgressHandler) Badges(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	badges, err := h.progressService.Badges(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}
