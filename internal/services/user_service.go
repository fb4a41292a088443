package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"gorm.io/datatypes"
)

type userService struct {
	repo      repositories.Repository
	identity  repositories.IdentityProvider
	blobs     storage.BlobStore
	roles     *auth.RoleResolver
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, identity repositories.IdentityProvider, blobs storage.BlobStore, roles *auth.RoleResolver, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		identity:  identity,
		blobs:     blobs,
		roles:     roles,
		logger:    logger,
		validator: validator,
	}
}

// ===== SELF-SERVICE PROFILE =====

func (s *userService) GetProfile(ctx context.Context, sess auth.SessionContext) (*models.User, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByID(ctx, nil, sess.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, sess auth.SessionContext, req *ProfileUpdateRequest, image *storage.File) (*models.User, error) {
	s.logger.Info("Updating profile", "user_id", sess.UserID)

	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateProfileUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](req.Tags)
	}
	if image != nil {
		url, err := uploadFile(ctx, s.blobs, storage.ProfilePicPath(sess.UserID), image)
		if err != nil {
			return nil, err
		}
		updates["profile_image_url"] = url
	}

	return s.applyUpdates(ctx, sess.UserID, updates)
}

// SkipProfileSetup stores the default profile image so the setup screen is
// not shown again.
func (s *userService) SkipProfileSetup(ctx context.Context, sess auth.SessionContext) (*models.User, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return s.applyUpdates(ctx, sess.UserID, map[string]interface{}{
		"profile_image_url": models.DefaultProfileImage,
	})
}

// ===== ADMINISTRATION =====

func (s *userService) Create(ctx context.Context, sess auth.SessionContext, req *AdminUserCreateRequest, image *storage.File) (*models.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	s.logger.Info("Admin creating user", "email", req.Email, "role", req.Role, "admin_id", sess.UserID)

	if err := requireAdmin(sess, "user", "", "create"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateAdminUserCreate(req); len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	user := &models.User{
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      models.UserRole(req.Role),
		Location:  req.Location,
	}

	id, err := s.identity.Register(ctx, req.Email, req.Password, user.FullName())
	if err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}
	user.ID = id

	if image != nil {
		url, err := uploadFile(ctx, s.blobs, storage.ProfilePicPath(id), image)
		if err != nil {
			s.logger.Warn("Profile image upload failed, creating user without it", "user_id", id, "error", err)
		} else {
			user.ProfileImageURL = &url
		}
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if delErr := s.identity.Delete(ctx, id); delErr != nil {
			s.logger.Error("Failed to remove identity after profile write failure", "user_id", id, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("User created by admin", "user_id", id, "role", user.Role)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, sess auth.SessionContext, id string) (*models.User, error) {
	if sess.UserID != id {
		if err := requireAdmin(sess, "user", id, "read"); err != nil {
			return nil, err
		}
	}
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, sess auth.SessionContext, filters repositories.UserFilters) (*UserListResponse, error) {
	if err := requireAdmin(sess, "user", "", "list"); err != nil {
		return nil, err
	}
	if filters.Role != nil && !filters.Role.Valid() {
		return nil, fieldError("role", "must be one of: user, moderador, admin", "user_role")
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	return &UserListResponse{Users: users, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
}

func (s *userService) Update(ctx context.Context, sess auth.SessionContext, id string, req *AdminUserUpdateRequest, image *storage.File) (*models.User, error) {
	s.logger.Info("Admin updating user", "user_id", id, "admin_id", sess.UserID)

	if err := requireAdmin(sess, "user", id, "update"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateAdminUserUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](req.Tags)
	}
	if image != nil {
		url, err := uploadFile(ctx, s.blobs, storage.ProfilePicPath(id), image)
		if err != nil {
			return nil, err
		}
		updates["profile_image_url"] = url
	}

	return s.applyUpdates(ctx, id, updates)
}

// ChangeRole writes the new role and drops the cached one so the user's next
// request sees it.
func (s *userService) ChangeRole(ctx context.Context, sess auth.SessionContext, id string, req *RoleUpdateRequest) (*models.User, error) {
	s.logger.Info("Changing user role", "user_id", id, "role", req.Role, "admin_id", sess.UserID)

	if err := requireAdmin(sess, "user", id, "change_role"); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateRoleUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.User().UpdateRole(ctx, nil, id, models.UserRole(req.Role)); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	s.roles.Invalidate(ctx, id)

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// Delete removes the profile document, then the identity account. A missing
// identity account is not an error.
func (s *userService) Delete(ctx context.Context, sess auth.SessionContext, id string) error {
	s.logger.Info("Deleting user", "user_id", id, "admin_id", sess.UserID)

	if err := requireAdmin(sess, "user", id, "delete"); err != nil {
		return err
	}
	if id == sess.UserID {
		return NewBusinessRuleError("SELF_DELETE", "administrators cannot delete their own account", nil)
	}

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	s.roles.Invalidate(ctx, id)

	if err := s.identity.Delete(ctx, id); err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

func (s *userService) applyUpdates(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		if err := s.repo.User().Update(ctx, nil, id, updates); err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
	}
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}
