package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetProfile returns the caller's profile
// @Summary Get my profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates description, tags and location, and optionally the profile image
// @Summary Update my profile
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Param profile body services.ProfileUpdateRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.ProfileUpdateRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	var uploads uploadCloser
	defer uploads.Close()
	image, err := formFile(c, "image", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid image upload", err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), sess, &req, image)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SkipProfileSetup assigns the default profile image
// @Summary Skip profile setup
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me/skip-setup [post]
func (h *UserHandler) SkipProfileSetup(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	user, err := h.userService.SkipProfileSetup(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser creates an account with a chosen role
// @Summary Create user
// @Tags admin
// @Accept json,mpfd
// @Produce json
// @Param user body services.AdminUserCreateRequest true "User data"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.AdminUserCreateRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	var uploads uploadCloser
	defer uploads.Close()
	image, err := formFile(c, "image", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid image upload", err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), sess, &req, image)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User created", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusCreated, user)
}

// ListUsers lists users
// @Summary List users
// @Tags admin
// @Produce json
// @Param q query string false "Name or email contains"
// @Param role query string false "user, moderador or admin"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.UserListResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	limit, offset := h.pagination(c)
	filters := repositories.UserFilters{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filters.Role = &r
	}

	list, err := h.userService.List(c.Request.Context(), sess, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetUser retrieves a user by ID
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser updates profile fields of any user
// @Summary Update user
// @Tags admin
// @Accept json,mpfd
// @Produce json
// @Param id path string true "User ID"
// @Param user body services.AdminUserUpdateRequest true "User fields"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.AdminUserUpdateRequest
	if err := bindDocument(c, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	var uploads uploadCloser
	defer uploads.Close()
	image, err := formFile(c, "image", &uploads)
	if err != nil {
		h.badRequest(c, "Invalid image upload", err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), sess, c.Param("id"), &req, image)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangeRole sets a user's role
// @Summary Change role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body services.RoleUpdateRequest true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	id := c.Param("id")
	user, err := h.userService.ChangeRole(c.Request.Context(), sess, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User role changed", "user_id", id, "role", user.Role)
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user's profile and identity
// @Summary Delete user
// @Tags admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.userService.Delete(c.Request.Context(), sess, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User deleted", "user_id", id)
	c.Status(http.StatusNoContent)
}
