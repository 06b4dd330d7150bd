// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	siretRegexp     = regexp.MustCompile(`^[0-9]{14}$`)
	wasteCodeRegexp = regexp.MustCompile(`^[0-9]{2} [0-9]{2} [0-9]{2}\*?$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("siret", validateSiret)
	validate.RegisterValidation("waste_code", validateWasteCode)
	validate.RegisterValidation("strong_password", validateStrongPassword)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// SIRET is a 14-digit French establishment identifier.
func validateSiret(fl validator.FieldLevel) bool {
	return siretRegexp.MatchString(fl.Field().String())
}

// Waste codes follow the European waste catalogue format "xx xx xx",
// optionally starred for hazardous waste.
func validateWasteCode(fl validator.FieldLevel) bool {
	return wasteCodeRegexp.MatchString(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "siret":
		return e.Field() + " must be a 14-digit SIRET"
	case "waste_code":
		return e.Field() + " must be a waste code like \"01 01 01\" or \"01 01 01*\""
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
	default:
		return e.Field() + " is invalid"
	}
}
