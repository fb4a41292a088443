package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	identity  repositories.IdentityProvider
	roles     *auth.RoleResolver
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAuthService(repo repositories.Repository, identity repositories.IdentityProvider, roles *auth.RoleResolver, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		identity:  identity,
		roles:     roles,
		logger:    logger,
		validator: validator,
	}
}

// Register checks the request locally, then creates the identity and the
// profile document with the standard role. Nothing remote is called when
// local checks fail.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	s.logger.Info("Registering user", "email", req.Email)

	if errs := s.validator.GetBusinessValidator().ValidateRegister(req); len(errs) > 0 {
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
		Role:      models.RoleUser,
	}

	id, err := s.identity.Register(ctx, req.Email, req.Password, user.FullName())
	if err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}
	user.ID = id

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		s.logger.Error("Profile write failed after identity registration", "user_id", id, "error", err)
		if delErr := s.identity.Delete(ctx, id); delErr != nil {
			s.logger.Error("Failed to remove identity after profile write failure", "user_id", id, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("User registered", "user_id", id)
	return user, nil
}

// SignIn exchanges credentials for a token and tells the caller where the
// user's role lands.
func (s *authService) SignIn(ctx context.Context, req *SignInRequest) (*SignInResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if errs := s.validator.GetBusinessValidator().ValidateSignIn(req); len(errs) > 0 {
		return nil, errs
	}

	identity, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, nil, identity.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Signed-in identity has no profile", "user_id", identity.ID)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	role, err := s.roles.Resolve(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	resp := &SignInResponse{
		AccessToken: identity.AccessToken,
		ExpiresAt:   identity.ExpiresAt,
		Role:        role,
		User:        user,
	}
	resp.RedirectPath = resp.Role.DashboardPath()
	s.logger.Info("User signed in", "user_id", identity.ID, "role", resp.Role)
	return resp, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (auth.SessionContext, error) {
	if strings.TrimSpace(token) == "" {
		return auth.SessionContext{}, ErrUnauthorized
	}

	identity, err := s.identity.VerifyToken(ctx, token)
	if err != nil {
		return auth.SessionContext{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	// a verified token without a profile belongs to a deleted user
	role, err := s.roles.Resolve(ctx, identity.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Token for a user without a profile", "user_id", identity.ID)
			return auth.SessionContext{}, ErrUnauthorized
		}
		return auth.SessionContext{}, err
	}

	return auth.SessionContext{UserID: identity.ID, Email: identity.Email, Role: role}, nil
}
