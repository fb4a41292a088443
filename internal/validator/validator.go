package validator

// Validator is the entry point handed to services and handlers.
type Validator struct {
	business *BusinessValidator
}

func New(emailDomains []string) *Validator {
	return &Validator{business: NewBusinessValidator(emailDomains)}
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// Struct runs plain tag validation.
func (v *Validator) Struct(s interface{}) error {
	return v.business.Validate(s).Err()
}
