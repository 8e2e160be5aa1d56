package validation

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps the underlying validator library behind explicit calls
// returning typed field errors.
type Validator struct {
	cli *validator.Validate
}

// ValidationError describes one failed field constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New initializes a Validator.
func New() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (v *Validator) formatError(err error) []ValidationError {
	errs := make([]ValidationError, 0)
	for _, fieldErr := range err.(validator.ValidationErrors) {
		errs = append(errs, ValidationError{
			Field:   fieldErr.StructField(),
			Message: fieldErr.Error(),
		})
	}
	return errs
}

// ValidateStruct validates tagged struct fields and returns the failures.
func (v *Validator) ValidateStruct(s interface{}) []ValidationError {
	if err := v.cli.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Validate checks a single value against the given tag.
func (v *Validator) Validate(value interface{}, tag string) []ValidationError {
	if err := v.cli.Var(value, tag); err != nil {
		return v.formatError(err)
	}
	return nil
}
