// Package validation checks inbound payloads before any business logic runs
// and reports every violation as a field-level apierror.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/godilite/krishi-gateway/internal/apierror"
)

// BodyField is the pseudo-field used when the payload as a whole is unusable.
const BodyField = "body"

var indianPhone = regexp.MustCompile(`^(\+91)?[0-9]{10}$`)

type Validator struct {
	validate *validator.Validate
}

// New builds a Validator that names fields by their JSON key and knows the
// gateway's custom tags: notblank and in_phone.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			if form := fld.Tag.Get("form"); form != "" {
				return form
			}
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("in_phone", func(fl validator.FieldLevel) bool {
		return indianPhone.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s. Violations come back as an apierror validation
// failure keyed by leaf field name; a nil error means s is acceptable.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Namespace()]; seen {
			continue
		}
		fields[fe.Namespace()] = Message(fe)
	}
	return apierror.Validation(fields)
}

// Message renders the human-readable text for one violation.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "in_phone":
		return "Invalid Indian phone number"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "min", "max":
		if fe.Kind() == reflect.String {
			if fe.Tag() == "min" {
				return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
			}
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		if fe.Tag() == "min" {
			return fmt.Sprintf("%s must be >= %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
}

// DecodeError turns a JSON binding failure into a validation failure so that
// malformed bodies are reported the same way as constraint violations.
func DecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		field := apierror.LeafField(typeErr.Field)
		return apierror.FieldViolation(typeErr.Field, fmt.Sprintf("%s must be %s", field, jsonKind(typeErr.Type)))
	case errors.As(err, &syntaxErr):
		return apierror.FieldViolation(BodyField, fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	case errors.Is(err, io.EOF), err != nil && err.Error() == "invalid request":
		return apierror.FieldViolation(BodyField, "request body is required")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apierror.FieldViolation(BodyField, "malformed JSON: unexpected end of input")
	}
	return apierror.FieldViolation(BodyField, err.Error())
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	}
	return "a valid " + t.Kind().String()
}
