package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var qcNamePattern = regexp.MustCompile(`^[A-Za-z ]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("qcname", func(fl validator.FieldLevel) bool {
		return qcNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return models.Priority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("reportstatus", func(fl validator.FieldLevel) bool {
		return models.ReportStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	return v
}

// validateInput runs struct validation and reports the first failing field as an
// *apperrors.ValidationError.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("", "%v", err)
	}
	fe := fieldErrs[0]
	return &apperrors.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "qcname":
		return "Task name must contain only letters and spaces"
	case "priority":
		return "priority must be one of Low, Medium, High"
	case "reportstatus":
		return "status must be one of Approved, Needs Revision, Pending"
	case "role":
		return "role must be one of QC, Editor, Project Manager"
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
