package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on programmer error (bad tag name)
	if err := Validate.RegisterValidation("civil_date", validateCivilDate); err != nil {
		panic(fmt.Sprintf("failed to register civil_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("money", validateMoney); err != nil {
		panic(fmt.Sprintf("failed to register money validator: %v", err))
	}
	if err := Validate.RegisterValidation("subject_kind", validateSubjectKind); err != nil {
		panic(fmt.Sprintf("failed to register subject_kind validator: %v", err))
	}
}

// validateCivilDate accepts YYYY-MM-DD strings
func validateCivilDate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

// validateMoney accepts positive decimal amounts with at most two fractional digits
func validateMoney(fl validator.FieldLevel) bool {
	_, err := models.ParseMoney(fl.Field().String(), "")
	return err == nil
}

func validateSubjectKind(fl validator.FieldLevel) bool {
	return models.SubjectKind(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return strings.TrimSpace(sanitized.String())
}

// FieldErrors flattens validator errors into field -> message pairs for API responses.
func FieldErrors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "civil_date":
		return "must be a date in YYYY-MM-DD format"
	case "money":
		return "must be a positive amount with at most two decimals"
	case "subject_kind":
		return "must be 'task' or 'payment'"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
