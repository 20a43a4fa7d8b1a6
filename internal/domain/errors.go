package domain

import "errors"

var (
	// ErrAlreadyAttempted blocks a second play of the same subject on the same day.
	ErrAlreadyAttempted = errors.New("you have already attempted today's quiz")
	// ErrInvalidCredentials is returned when login fails for any reason.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoActiveSession is returned when an answer arrives without a running quiz.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrAnswerInFlight rejects an answer submitted while the previous one is being processed.
	ErrAnswerInFlight = errors.New("previous answer still being processed")
	// ErrQuizNotFound indicates no quiz was authored for the requested day.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates an unknown user id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an email twice.
	ErrUserExists = errors.New("user already exists")
	// ErrWrite wraps store failures surfaced to the author.
	ErrWrite = errors.New("failed to save quiz")
	// ErrForbidden is returned when a student reaches a teacher operation.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports an incomplete or malformed authoring form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with the user-facing message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
