package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	goa "goa.design/goa/v3/pkg"
)

// emailPattern is loose: something@something.something with a single @ and
// no whitespace. RE2's \s is ASCII only, so Unicode separators and the BOM
// are listed too.
var emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

const emailTag = "leademail"

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func
	_ = v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// checkRequired reports every missing required field of value in one error
func checkRequired(v *validator.Validate, value any) error {
	err := v.Struct(value)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var merged error
	for _, fe := range validationErrors {
		merged = goa.MergeErrors(merged, goa.MissingFieldError(fe.Field(), "body"))
	}
	return merged
}

// checkEmail validates the shape of an already trimmed address
func checkEmail(v *validator.Validate, email string) error {
	if err := v.Var(email, emailTag); err != nil {
		return goa.InvalidFormatError("contactEmail", email, goa.FormatEmail, errors.New("expected an address like name@domain.tld"))
	}
	return nil
}
