package validator

import (
	"fmt"
	"strings"

	"attorneyvisit/internal/refine"
	"attorneyvisit/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// LookupQuery is the query string of GET /api/pic-lookup.
type LookupQuery struct {
	NYSID       string `validate:"omitempty,max=32,printascii"`
	BookAndCase string `validate:"omitempty,max=32,printascii"`
}

type refineInput struct {
	Text     string `validate:"required,max=5000"`
	Category string `validate:"max=100"`
	Role     string `validate:"max=100"`
}

type IntakeValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewIntakeValidator(log *logger.Logger) *IntakeValidator {
	return &IntakeValidator{
		validate: validator.New(),
		log:      log,
	}
}

// ValidateLookup checks field shape only. Whether exactly one identifier is
// present is decided by the service.
func (v *IntakeValidator) ValidateLookup(q *LookupQuery) error {
	if err := v.validate.Struct(q); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

func (v *IntakeValidator) ValidateRefine(req *refine.Request) error {
	in := refineInput{Text: strings.TrimSpace(req.Text), Category: req.Category, Role: req.Role}
	if err := v.validate.Struct(&in); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

func (v *IntakeValidator) formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, e := range validationErrors {
		messages = append(messages, v.formatFieldError(e))
	}

	v.log.Debug("Request validation failed", "errors", messages)
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}

func (v *IntakeValidator) formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "printascii":
		return fmt.Sprintf("%s must contain printable characters only", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
