package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// multipart form field carrying the JSON document next to uploaded files
	formDataField = "data"
)

// BaseHandler carries what every handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// session returns the caller's session or writes a 401.
func (h *BaseHandler) session(c *gin.Context) (auth.SessionContext, bool) {
	sess, err := GetSessionFromContext(c)
	if err != nil {
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "User not authenticated", nil)
		return auth.SessionContext{}, false
	}
	return sess, true
}

func (h *BaseHandler) respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

func (h *BaseHandler) badRequest(c *gin.Context, message string, err error) {
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	h.respondError(c, http.StatusBadRequest, "bad_request", message, details)
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.respondError(c, http.StatusBadRequest, "validation_failed", "Validation failed", validationErrors)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.respondError(c, http.StatusUnprocessableEntity, "business_rule", businessRuleError.Message, map[string]interface{}{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.respondError(c, http.StatusForbidden, "forbidden", "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrValidationFailed):
		h.respondError(c, http.StatusBadRequest, "validation_failed", "Validation failed", nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "Invalid credentials or token", nil)
	case errors.Is(err, services.ErrForbidden):
		h.respondError(c, http.StatusForbidden, "forbidden", "Access denied", nil)
	case errors.Is(err, services.ErrVersionConflict):
		h.respondError(c, http.StatusConflict, "version_conflict", "The document was changed by someone else; reload and retry", nil)
	case errors.Is(err, services.ErrDuplicate):
		h.respondError(c, http.StatusConflict, "duplicate", err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", notFoundMessage(err), nil)
	default:
		h.LogError(c, err, "Unhandled service error")
		h.respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return "Course not found"
	case errors.Is(err, services.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, services.ErrEventNotFound):
		return "Event not found"
	case errors.Is(err, services.ErrAnnouncementNotFound):
		return "Announcement not found"
	}
	return "Not found"
}

// pagination reads ?limit=&offset=, falling back to ?page=&size=.
func (h *BaseHandler) pagination(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit", 0)
	if limit == 0 {
		limit = queryInt(c, "size", defaultPageSize)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset = queryInt(c, "offset", -1)
	if offset < 0 {
		page := queryInt(c, "page", 1)
		if page < 1 {
			page = 1
		}
		offset = (page - 1) * limit
	}
	return limit, offset
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// expectedVersion reads the If-Match header. Quoted entity tags and the
// weak prefix are accepted.
func expectedVersion(c *gin.Context) (*int, error) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, fmt.Errorf("If-Match must carry a positive version, got %q", c.GetHeader("If-Match"))
	}
	return &v, nil
}

func setETag(c *gin.Context, version int) {
	c.Header("ETag", fmt.Sprintf(`"%d"`, version))
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindDocument binds the JSON body, or the "data" field of a multipart form.
func bindDocument(c *gin.Context, dest interface{}) error {
	if !isMultipart(c) {
		return c.ShouldBindJSON(dest)
	}
	raw := c.PostForm(formDataField)
	if raw == "" {
		return fmt.Errorf("multipart form is missing the %q field", formDataField)
	}
	return json.Unmarshal([]byte(raw), dest)
}

// uploadCloser releases opened multipart files.
type uploadCloser []multipart.File

func (u uploadCloser) Close() {
	for _, f := range u {
		_ = f.Close()
	}
}

// formFile opens an optional single upload.
func formFile(c *gin.Context, field string, closer *uploadCloser) (*storage.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return openUpload(header, closer)
}

// formFiles opens every upload under field, in form order.
func formFiles(c *gin.Context, field string, closer *uploadCloser) ([]storage.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File[field]
	files := make([]storage.File, 0, len(headers))
	for _, header := range headers {
		f, err := openUpload(header, closer)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

func openUpload(header *multipart.FileHeader, closer *uploadCloser) (*storage.File, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	*closer = append(*closer, f)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForName(header.Filename)
	}
	return &storage.File{Name: header.Filename, ContentType: contentType, Content: f}, nil
}
