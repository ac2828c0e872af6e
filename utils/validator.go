package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return v
}

// ValidateStruct returns nil or a Validation *AppError listing every field
// that failed.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ErrValidation(FieldError{Field: "body", Message: err.Error()})
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "min":
			if fe.Kind() == reflect.String {
				msg = field + " must be at least " + param + " characters"
			} else {
				msg = field + " must be at least " + param
			}
		case "max":
			if fe.Kind() == reflect.String {
				msg = field + " must be at most " + param + " characters"
			} else {
				msg = field + " must be at most " + param
			}
		case "email":
			msg = field + " must be a valid email"
		case "len":
			msg = field + " must be exactly " + param + " characters"
		case "oneof":
			msg = field + " must be one of: " + param
		case "uuid4", "uuid":
			msg = field + " must be a valid id"
		case "password":
			msg = field + " must be at least 8 characters and contain a letter, a digit and one of @$!%*#?&"
		case "gtefield":
			msg = field + " must not be before " + param
		default:
			msg = field + " is invalid"
		}
		fields = append(fields, FieldError{Field: field, Message: msg})
	}
	return ErrValidation(fields...)
}

const passwordSymbols = "@$!%*#?&"

// IsStrongPassword: 8+ characters drawn from letters, digits and @$!%*#?&,
// with at least one of each class.
func IsStrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return letter && digit && symbol
}
