// Package form drives the login and registration forms: per-field
// validation, submission and the resulting notification and navigation.
package form

import (
	"unicode/utf8"

	"github.com/atinyakov/GophChat/internal/models"
)

// MsgRequired is the error shown for a missing field.
const MsgRequired = "Required"

// Validator checks one field. present is false when the field was never
// set. It returns "" for a valid value, or the error message.
type Validator func(value string, present bool) string

// Required accepts any value that is present, the empty string included.
func Required() Validator {
	return func(_ string, present bool) string {
		if !present {
			return MsgRequired
		}
		return ""
	}
}

// MinLength rejects values shorter than n characters.
func MinLength(n int, msg string) Validator {
	return func(value string, present bool) string {
		if !present {
			return MsgRequired
		}
		if utf8.RuneCountInString(value) < n {
			return msg
		}
		return ""
	}
}

// Chain runs validators in order and returns the first failure.
func Chain(validators ...Validator) Validator {
	return func(value string, present bool) string {
		for _, v := range validators {
			if msg := v(value, present); msg != "" {
				return msg
			}
		}
		return ""
	}
}

// Field binds a validator to a field name.
type Field struct {
	Name     string
	Validate Validator
}

// Schema is the ordered set of fields a form validates.
type Schema []Field

// LoginSchema only requires both fields to be present.
func LoginSchema() Schema {
	return Schema{
		{Name: models.FieldEmail, Validate: Required()},
		{Name: models.FieldPassword, Validate: Required()},
	}
}

// RegistrationSchema matches LoginSchema; the stricter rules
// (email format, password length) are not enabled.
func RegistrationSchema() Schema {
	return Schema{
		{Name: models.FieldEmail, Validate: Required()},
		{Name: models.FieldPassword, Validate: Required()},
	}
}

// ValidateField validates a single field against values. Fields the
// schema does not know are always valid.
func (s Schema) ValidateField(name string, values models.FieldValues) string {
	for _, f := range s {
		if f.Name != name {
			continue
		}
		if f.Validate == nil {
			return ""
		}
		v, ok := values[name]
		return f.Validate(v, ok)
	}
	return ""
}

// Validate checks every field in schema order and returns one error per
// failing field. An empty result means values are valid.
func (s Schema) Validate(values models.FieldValues) models.FieldErrors {
	errs := models.FieldErrors{}
	for _, f := range s {
		if _, seen := errs[f.Name]; seen || f.Validate == nil {
			continue
		}
		v, ok := values[f.Name]
		if msg := f.Validate(v, ok); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}
