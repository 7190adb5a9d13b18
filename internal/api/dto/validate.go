package dto

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

var validate = validator.New()

// Validate runs struct tag validation and converts failures into the
// domain error shape the error middleware renders.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	details := map[string]any{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return apperrors.NewValidationError("request validation failed", details)
}
