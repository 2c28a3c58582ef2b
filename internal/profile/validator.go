package profile

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Check validates every field of p independently.
func Check(p Profile) Errors {
	var out Errors
	err := validate.Struct(p)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	errors.As(err, &verrs)
	for _, fe := range verrs {
		out.set(fe.StructField(), translate(fe))
	}
	return out
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return MsgInvalidEmail
	default:
		return fieldLabels[fe.StructField()] + " is required"
	}
}

// Form keeps the per-field messages of an open edit dialog.
type Form struct {
	mu     sync.Mutex
	errors Errors
}

// NewForm returns a form with no messages.
func NewForm() *Form {
	return &Form{}
}

// Validate checks p, stores the resulting messages and reports whether all
// fields passed.
func (f *Form) Validate(p Profile) bool {
	errs := Check(p)
	f.mu.Lock()
	f.errors = errs
	f.mu.Unlock()
	return errs.Empty()
}

// Clear resets every message.
func (f *Form) Clear() {
	f.mu.Lock()
	f.errors = Errors{}
	f.mu.Unlock()
}

// Errors returns the current messages.
func (f *Form) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors
}
