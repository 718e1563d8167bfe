package validate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one failed field for the caller to correct.
type FieldError struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// Struct runs tag-based validation on a service input and maps failures to
// the validation error code with per-field details.
func Struct(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid input")
	}

	details := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, FieldError{
			Field:  fe.Field(),
			Rule:   fe.Tag(),
			Reason: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid input").WithDetails(details)
}
