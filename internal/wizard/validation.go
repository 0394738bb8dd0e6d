package wizard

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"attorneyvisit/pkg/model"
	"attorneyvisit/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var (
	personNameRegex = regexp.MustCompile(`^[A-Za-z .-]+$`)
	nysidRegex      = regexp.MustCompile(`^[0-9A-Z]+$`)
)

type attorneyStep struct {
	FirstName   string `json:"firstName" validate:"required,max=50,personname"`
	LastName    string `json:"lastName" validate:"required,max=50,personname"`
	Email       string `json:"email" validate:"required,max=254,email"`
	Phone       string `json:"phone" validate:"required,usphone"`
	FirmName    string `json:"firmName" validate:"required,max=120"`
	FirmAddress string `json:"firmAddress" validate:"required,max=300"`
}

type subjectStep struct {
	PICFirstName string `json:"picFirstName" validate:"required,max=50,personname"`
	PICLastName  string `json:"picLastName" validate:"required,max=50,personname"`
	NYSID        string `json:"nysid" validate:"omitempty,max=10,nysid"`
	BookAndCase  string `json:"bookAndCase" validate:"omitempty,len=10,numeric"`
	Facility     string `json:"facility" validate:"required,facility"`
}

type schedulingStep struct {
	PreferredDate       string `json:"preferredDate" validate:"required,visitdate"`
	PreferredTime       string `json:"preferredTime" validate:"required,timeslot"`
	PreferredDuration   string `json:"preferredDuration" validate:"required,duration"`
	AlternativeDate     string `json:"alternativeDate" validate:"required,visitdate"`
	AlternativeTime     string `json:"alternativeTime" validate:"required,timeslot"`
	AlternativeDuration string `json:"alternativeDuration" validate:"required,duration"`
	Message             string `json:"message" validate:"max=2000"`
}

// FieldError is a field-local validation message.
type FieldError struct {
	Field   string
	Message string
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Field returns the message for field, or "".
func (v ValidationErrors) Field(name string) string {
	for _, fe := range v {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

func newStepValidator(catalogue *model.Catalogue, now func() time.Time) *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNameRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "usphone", func(fl validator.FieldLevel) bool {
		return sanitizer.IsValidPhone(fl.Field().String())
	})
	mustRegister(v, "nysid", func(fl validator.FieldLevel) bool {
		return nysidRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "facility", func(fl validator.FieldLevel) bool {
		match, ok := catalogue.MatchFacility(fl.Field().String())
		return ok && match == fl.Field().String()
	})
	mustRegister(v, "timeslot", func(fl validator.FieldLevel) bool {
		return catalogue.HasTimeSlot(fl.Field().String())
	})
	mustRegister(v, "duration", func(fl validator.FieldLevel) bool {
		return catalogue.HasDuration(fl.Field().String())
	})
	mustRegister(v, "visitdate", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if _, err := time.Parse(dateLayout, value); err != nil {
			return false
		}
		return value >= now().Format(dateLayout)
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(subjectStep)
		switch {
		case s.NYSID == "" && s.BookAndCase == "":
			sl.ReportError(s.BookAndCase, "bookAndCase", "BookAndCase", "identifier", "")
		case s.NYSID != "" && s.BookAndCase != "":
			sl.ReportError(s.NYSID, "nysid", "NYSID", "oneidentifier", "")
		}
	}, subjectStep{})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func stepInput(step Step, d *model.Draft) any {
	switch step {
	case StepAttorney:
		return &attorneyStep{
			FirstName:   d.FirstName,
			LastName:    d.LastName,
			Email:       d.Email,
			Phone:       d.Phone,
			FirmName:    d.FirmName,
			FirmAddress: d.FirmAddress,
		}
	case StepSubject:
		return &subjectStep{
			PICFirstName: d.PICFirstName,
			PICLastName:  d.PICLastName,
			NYSID:        d.NYSID,
			BookAndCase:  d.BookAndCase,
			Facility:     d.Facility,
		}
	case StepScheduling:
		return &schedulingStep{
			PreferredDate:       d.PreferredDate,
			PreferredTime:       d.PreferredTime,
			PreferredDuration:   d.PreferredDuration,
			AlternativeDate:     d.AlternativeDate,
			AlternativeTime:     d.AlternativeTime,
			AlternativeDuration: d.AlternativeDuration,
			Message:             d.Message,
		}
	default:
		return nil
	}
}

func validateStep(v *validator.Validate, step Step, d *model.Draft) error {
	input := stepInput(step, d)
	if input == nil {
		return nil
	}

	err := v.Struct(input)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "len":
		return "Book & Case number must be exactly 10 digits."
	case "numeric":
		return "Book & Case number must be numeric only."
	case "personname":
		return "Use letters, spaces, periods and hyphens only."
	case "email":
		return "Enter a valid email address."
	case "usphone":
		return "Enter a valid US phone number."
	case "nysid":
		return "NYSID must be alphanumeric."
	case "facility":
		return "Select a facility from the list."
	case "timeslot":
		return "Select a time window from the list."
	case "duration":
		return "Select a visit duration."
	case "visitdate":
		return "Enter a date (YYYY-MM-DD) that is not in the past."
	case "identifier":
		return "Provide either the Book & Case number or the NYSID."
	case "oneidentifier":
		return "Provide only one identifier."
	default:
		return "Invalid value."
	}
}
