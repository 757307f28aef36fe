package registration

import (
	"errors"
	"strings"
)

var (
	// ErrTooManyFiles is returned when a batch of attachments would push
	// the list past MaxAttachments. The whole batch is rejected.
	ErrTooManyFiles = errors.New("maximum 5 files allowed")

	// ErrInvalidForm matches (via errors.Is) the FieldErrors returned by
	// Submit when the form has failing fields.
	ErrInvalidForm = errors.New("registration form has invalid fields")

	ErrSubmitInFlight   = errors.New("registration is already being submitted")
	ErrAlreadySubmitted = errors.New("registration has already been submitted")
	ErrFormClosed       = errors.New("registration session is closed")
	ErrSessionNotFound  = errors.New("registration session not found")

	ErrUnknownField  = errors.New("unknown field")
	ErrReadOnlyField = errors.New("field cannot be set directly")
	ErrFieldType     = errors.New("value has the wrong type for field")
	ErrUnknownMeal   = errors.New("unknown meal option")

	ErrPreviewNotFound = errors.New("preview not found or already released")
)

// FieldError is a single failed rule on a single field. Field is the json
// name of the field; Rule is the validator tag that failed.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors is every failing field of a form, in schema order.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, ", ")
}

func (e FieldErrors) Is(target error) bool {
	return target == ErrInvalidForm
}

// For returns the error for one field, or nil.
func (e FieldErrors) For(field string) *FieldError {
	for i := range e {
		if e[i].Field == field {
			return &e[i]
		}
	}
	return nil
}
