package notifications

import "errors"

// ErrNotFound is returned when an operation references a notification id
// that does not exist. "Already read" is not an error; callers must be
// able to tell the two apart.
var ErrNotFound = errors.New("notification not found")

// ValidationError reports a malformed notification payload (missing
// recipient, or a comment notification that doesn't point at exactly one
// of question/answer).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid notification: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
