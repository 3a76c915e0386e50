package enquiry

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists failures in field order: name, email, message, phone.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the most relevant failure.
func (v ValidationErrors) First() FieldError {
	if len(v) == 0 {
		return FieldError{}
	}
	return v[0]
}

// Missing reports whether any required field was absent rather than malformed.
func (v ValidationErrors) Missing() bool {
	for _, fe := range v {
		if fe.Message == msgRequired {
			return true
		}
	}
	return false
}

// Fields maps field name to message for JSON responses.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

const msgRequired = "is required"

type Validator struct {
	MinName    int
	MinMessage int
	MaxMessage int
	MaxPhone   int
}

func DefaultValidator() Validator {
	return Validator{MinName: 2, MinMessage: 10, MaxMessage: 5000, MaxPhone: 40}
}

// Validate expects a normalized Enquiry.
func (v Validator) Validate(e Enquiry) ValidationErrors {
	var errs ValidationErrors

	switch n := utf8.RuneCountInString(e.Name); {
	case n == 0:
		errs = append(errs, FieldError{"name", msgRequired})
	case n < v.MinName:
		errs = append(errs, FieldError{"name", fmt.Sprintf("must be at least %d characters", v.MinName)})
	}

	switch {
	case e.Email == "":
		errs = append(errs, FieldError{"email", msgRequired})
	case !emailPattern.MatchString(e.Email):
		errs = append(errs, FieldError{"email", "must be a valid email address"})
	}

	switch n := utf8.RuneCountInString(e.Message); {
	case n == 0:
		errs = append(errs, FieldError{"message", msgRequired})
	case n < v.MinMessage:
		errs = append(errs, FieldError{"message", fmt.Sprintf("must be at least %d characters", v.MinMessage)})
	case v.MaxMessage > 0 && n > v.MaxMessage:
		errs = append(errs, FieldError{"message", fmt.Sprintf("must be at most %d characters", v.MaxMessage)})
	}

	if v.MaxPhone > 0 && utf8.RuneCountInString(e.Phone) > v.MaxPhone {
		errs = append(errs, FieldError{"phone", fmt.Sprintf("must be at most %d characters", v.MaxPhone)})
	}

	return errs
}
