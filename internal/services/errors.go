package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ValidationErrors is re-exported so handlers only depend on services.
type ValidationErrors = validator.ValidationErrors

type ValidationError = validator.ValidationError

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")

	ErrNotFound        = repositories.ErrNotFound
	ErrVersionConflict = repositories.ErrVersionConflict
	ErrDuplicate       = repositories.ErrDuplicate

	ErrCourseNotFound       = fmt.Errorf("course %w", repositories.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", repositories.ErrNotFound)
	ErrEventNotFound        = fmt.Errorf("event %w", repositories.ErrNotFound)
	ErrAnnouncementNotFound = fmt.Errorf("announcement %w", repositories.ErrNotFound)
	ErrProgressNotFound     = fmt.Errorf("progress %w", repositories.ErrNotFound)

	ErrEmailAlreadyRegistered = fmt.Errorf("email already registered: %w", repositories.ErrDuplicate)
)

// PermissionError is returned when the caller's role does not allow an action.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id,omitempty"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError reports a request that is well-formed but not allowed in
// the current state.
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

// IsValidationError reports whether err carries field validation failures.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve) || errors.Is(err, ErrValidationFailed)
}

func fieldError(field, message, rule string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Rule: rule}}
}

// notFound maps a repository miss onto the service-level sentinel.
func notFound(err, sentinel error) error {
	if repositories.IsNotFoundError(err) {
		return sentinel
	}
	return err
}
