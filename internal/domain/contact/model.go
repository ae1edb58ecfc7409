package contact

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Service interest values. "both" is only meaningful on the contact form.
const (
	ServiceTaxation  = "taxation"
	ServiceWebDesign = "web-design"
	ServiceBoth      = "both"
)

// Issue codes reported for invalid fields.
const (
	CodeTooSmall    = "too_small"
	CodeInvalidText = "invalid_string"
	CodeInvalidEnum = "invalid_enum_value"
)

// Submission is a prospective client's inquiry. It is never persisted.
type Submission struct {
	Name     string `json:"name" validate:"min=2"`
	Email    string `json:"email" validate:"email"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Service  string `json:"service" validate:"oneof=taxation web-design both"`
	Message  string `json:"message" validate:"min=10"`
	Budget   string `json:"budget,omitempty" validate:"omitempty,oneof=under-1k 1k-5k 5k-10k 10k-plus not-sure"`
	Timeline string `json:"timeline,omitempty" validate:"omitempty,oneof=asap 1-month 2-3-months 3-plus-months flexible"`
}

// FieldError describes one invalid field.
type FieldError struct {
	Path    []string `json:"path"`
	Field   string   `json:"field"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// ValidationError collects every invalid field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid contact submission: " + strings.Join(parts, "; ")
}

var messages = map[string]string{
	"name":     "Name must be at least 2 characters",
	"email":    "Please enter a valid email address",
	"service":  "Please select taxation, web-design or both",
	"message":  "Message must be at least 10 characters",
	"budget":   "Please select a valid budget range",
	"timeline": "Please select a valid timeline",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims surrounding whitespace from every text field, so length
// rules apply to what the visitor actually typed.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Message = strings.TrimSpace(s.Message)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Company = strings.TrimSpace(s.Company)
	s.Budget = strings.TrimSpace(s.Budget)
	s.Timeline = strings.TrimSpace(s.Timeline)
}

// Validate checks every field and reports all problems at once.
// PRE: Submission is populated from the request body
// POST: Returns nil if valid, *ValidationError otherwise
func (s *Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Path:    []string{fe.Field()},
			Field:   fe.Field(),
			Code:    issueCode(fe.Tag()),
			Message: messages[fe.Field()],
		})
	}
	return out
}

func issueCode(tag string) string {
	switch tag {
	case "min":
		return CodeTooSmall
	case "oneof":
		return CodeInvalidEnum
	default:
		return CodeInvalidText
	}
}
