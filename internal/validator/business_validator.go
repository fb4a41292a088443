package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// BusinessValidator handles struct tags plus the domain rules
type BusinessValidator struct {
	validate     *validator.Validate
	emailDomains []string
}

// NewBusinessValidator creates a validator that only accepts emails under
// the given domain suffixes (each starting with "@").
func NewBusinessValidator(emailDomains []string) *BusinessValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate, emailDomains: emailDomains}
	bv.registerBusinessRules()
	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// AllowedEmail reports whether email ends with one of the allowed domains.
func (bv *BusinessValidator) AllowedEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, d := range bv.emailDomains {
		if strings.HasSuffix(email, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func (bv *BusinessValidator) ValidateRegister(req *RegisterRequest) ValidationErrors {
	return bv.Validate(req)
}

func (bv *BusinessValidator) ValidateSignIn(req *SignInRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateCourse checks the course form. Restricted courses must name at
// least one allowed user.
func (bv *BusinessValidator) ValidateCourse(req *CourseRequest) ValidationErrors {
	errs := bv.Validate(req)
	if req.Visibility == string(models.VisibilityRestricted) && len(req.AllowedUsers) == 0 {
		errs = append(errs, ValidationError{
			Field:   "allowed_users",
			Message: "restricted courses need at least one allowed user",
			Rule:    "business_logic",
		})
	}
	return errs
}

func (bv *BusinessValidator) ValidateLesson(req *LessonRequest) ValidationErrors {
	return bv.Validate(req)
}

func (bv *BusinessValidator) ValidateEvent(req *EventRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateAnnouncement also rejects a scheduled date before the publish date.
func (bv *BusinessValidator) ValidateAnnouncement(req *AnnouncementRequest) ValidationErrors {
	errs := bv.Validate(req)
	if req.Date != nil && req.ScheduledDate != nil && req.ScheduledDate.Before(*req.Date) {
		errs = append(errs, ValidationError{
			Field:   "scheduled_date",
			Message: "must not be before the publish date",
			Value:   req.ScheduledDate,
			Rule:    "business_logic",
		})
	}
	return errs
}

func (bv *BusinessValidator) ValidateProfileUpdate(req *ProfileUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

func (bv *BusinessValidator) ValidateAdminUserCreate(req *AdminUserCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

func (bv *BusinessValidator) ValidateAdminUserUpdate(req *AdminUserUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

func (bv *BusinessValidator) ValidateRoleUpdate(req *RoleUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Registration is limited to organisation addresses
	bv.validate.RegisterValidation("email_domain", func(fl validator.FieldLevel) bool {
		return bv.AllowedEmail(fl.Field().String())
	})

	// Minutes part of an "Xh Ym" duration
	bv.validate.RegisterValidation("course_minutes", func(fl validator.FieldLevel) bool {
		m := fl.Field().Int()
		return m >= 0 && m <= 59
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	bv.validate.RegisterValidation("attachment_type", func(fl validator.FieldLevel) bool {
		switch models.AttachmentType(fl.Field().String()) {
		case models.AttachmentImage, models.AttachmentFile, models.AttachmentLink:
			return true
		}
		return false
	})
}
