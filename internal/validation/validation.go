// Package validation checks account and post input before anything is
// hashed or persisted. All limits come from a Rules value handed to New.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultEmailPattern accepts local@domain.tld shaped addresses.
var DefaultEmailPattern = regexp.MustCompile(`(?i)\A[\w+\-.]+@[a-z\d\-.]+\.[a-z]+\z`)

// Rules holds the limits applied by a Validator.
type Rules struct {
	NameMax      int
	EmailPattern *regexp.Regexp
	SecretMin    int
	SecretMax    int
	PostMax      int
}

// DefaultRules returns the limits used by the application.
func DefaultRules() Rules {
	return Rules{
		NameMax:      50,
		EmailPattern: DefaultEmailPattern,
		SecretMin:    6,
		SecretMax:    40,
		PostMax:      140,
	}
}

// FieldError is a single field-level reason.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Errors is a non-empty list of field-level reasons.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+" "+fe.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has at least one reason.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// AccountInput is the raw data submitted to create or update an account.
type AccountInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Secret       string `json:"secret"`
	Confirmation string `json:"confirmation"`
}

// Validator applies Rules using go-playground/validator.
type Validator struct {
	rules    Rules
	validate *validator.Validate
}

const emailTag = "email_shape"

// New builds a Validator for rules.
func New(rules Rules) *Validator {
	if rules.EmailPattern == nil {
		rules.EmailPattern = DefaultEmailPattern
	}
	v := validator.New()
	pattern := rules.EmailPattern
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	return &Validator{rules: rules, validate: v}
}

// Rules returns the limits this validator enforces.
func (v *Validator) Rules() Rules {
	return v.rules
}

// Account validates in and returns nil when it is acceptable.
func (v *Validator) Account(in AccountInput) Errors {
	var errs Errors
	// whitespace alone counts as blank
	errs = v.check(errs, "name", strings.TrimSpace(in.Name), "required")
	errs = v.check(errs, "name", in.Name, fmt.Sprintf("max=%d", v.rules.NameMax))
	errs = v.check(errs, "email", in.Email, "required,"+emailTag)
	if strings.TrimSpace(in.Secret) == "" {
		errs = v.check(errs, "secret", "", "required")
	} else {
		errs = v.check(errs, "secret", in.Secret, fmt.Sprintf("min=%d,max=%d", v.rules.SecretMin, v.rules.SecretMax))
	}
	if in.Secret != "" {
		if err := v.validate.VarWithValue(in.Secret, in.Confirmation, "eqfield"); err != nil {
			errs = append(errs, v.toFieldErrors("secret", err)...)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PostBody trims body and validates the result.
func (v *Validator) PostBody(body string) (string, Errors) {
	trimmed := strings.TrimSpace(body)
	errs := v.check(nil, "body", trimmed, fmt.Sprintf("required,max=%d", v.rules.PostMax))
	if len(errs) > 0 {
		return "", errs
	}
	return trimmed, nil
}

func (v *Validator) check(errs Errors, field, value, tag string) Errors {
	if err := v.validate.Var(value, tag); err != nil {
		errs = append(errs, v.toFieldErrors(field, err)...)
	}
	return errs
}

func (v *Validator) toFieldErrors(field string, err error) Errors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Errors{{Field: field, Reason: "is invalid"}}
	}
	out := make(Errors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: field, Reason: reason(fe.Tag(), fe.Param())})
	}
	return out
}

func reason(tag, param string) string {
	switch tag {
	case "required":
		return "can't be blank"
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", param)
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", param)
	case "eqfield":
		return "doesn't match confirmation"
	default:
		return "is invalid"
	}
}
