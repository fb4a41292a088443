package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type AnnouncementHandler struct {
	BaseHandler
	announcementService services.AnnouncementService
}

func NewAnnouncementHandler(announcementService services.AnnouncementService, logger utils.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		BaseHandler:         NewBaseHandler(logger),
		announcementService: announcementService,
	}
}

// CreateAnnouncement publishes an announcement
// @Summary Create announcement
// @Description Multipart with a "data" JSON field, any number of "attachments" files and an optional "cover" image
// @Tags announcements
// @Accept json,mpfd
// @Produce json
// @Param announcement body services.AnnouncementRequest true "Announcement data"
// @Success 201 {object} models.Announcement
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /announcements [post]
func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	req, files, cover, uploads, ok := h.bindAnnouncement(c)
	defer uploads.Close()
	if !ok {
		return
	}

	announcement, err := h.announcementService.Create(c.Request.Context(), sess, req, files, cover)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Announcement created", "announcement_id", announcement.ID, "attachments", len(announcement.Attachments))
	c.JSON(http.StatusCreated, announcement)
}

// UpdateAnnouncement updates an announcement and appends new attachments
// @Summary Update announcement
// @Tags announcements
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Announcement ID"
// @Param announcement body services.AnnouncementRequest true "Announcement data"
// @Success 200 {object} models.Announcement
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	req, files, cover, uploads, ok := h.bindAnnouncement(c)
	defer uploads.Close()
	if !ok {
		return
	}

	announcement, err := h.announcementService.Update(c.Request.Context(), sess, c.Param("id"), req, files, cover)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, announcement)
}

// DeleteAnnouncement deletes an announcement
// @Summary Delete announcement
// @Tags announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.announcementService.Delete(c.Request.Context(), sess, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Announcement deleted", "announcement_id", id)
	c.Status(http.StatusNoContent)
}

// GetAnnouncement retrieves an announcement by ID
// @Summary Get announcement
// @Tags announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} models.Announcement
// @Failure 404 {object} ErrorResponse
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) GetAnnouncement(c *gin.Context) {
	announcement, err := h.announcementService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, announcement)
}

// ListAnnouncements lists announcements, newest first
// @Summary List announcements
// @Tags announcements
// @Produce json
// @Param q query string false "Title contains"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.AnnouncementListResponse
// @Router /announcements [get]
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	limit, offset := h.pagination(c)
	list, err := h.announcementService.List(c.Request.Context(), repositories.AnnouncementFilters{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AnnouncementHandler) bindAnnouncement(c *gin.Context) (*services.AnnouncementRequest, []storage.File, *storage.File, uploadCloser, bool) {
	var uploads uploadCloser

	var req services.AnnouncementRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return nil, nil, nil, uploads, false
	}

	files, err := formFiles(c, "attachments", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid attachment upload", err)
		return nil, nil, nil, uploads, false
	}
	cover, err := formFile(c, "cover", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid cover upload", err)
		return nil, nil, nil, uploads, false
	}

	return &req, files, cover, uploads, true
}
