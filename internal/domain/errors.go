package domain

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a referenced entity or blob does not exist.
	ErrNotFound = errors.New("not found")
	// ErrQuizNotFound indicates the quiz id has no matching quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEmpty is returned when a quiz without questions is started.
	ErrQuizEmpty = errors.New("quiz has no questions")
	// ErrSessionNotFound is returned when a user has no live session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionLocked rejects answers outside the presenting phase.
	ErrQuestionLocked = errors.New("question already answered")
	// ErrNotRevealed rejects advancing before the current answer is revealed.
	ErrNotRevealed = errors.New("current question has not been answered")
	// ErrSessionNotComplete rejects finalizing a session with questions left.
	ErrSessionNotComplete = errors.New("quiz session not complete")
	// ErrAlreadyFinalized rejects a second finalize on the same session.
	ErrAlreadyFinalized = errors.New("quiz session already finalized")
	// ErrSessionClosed is returned by a session that has been torn down.
	ErrSessionClosed = errors.New("quiz session closed")

	ErrInvalidName        = errors.New("name must have at least 2 characters")
	ErrInvalidCredentials = errors.New("incorrect admin password")
	ErrUnauthorized       = errors.New("login required")
	ErrForbidden          = errors.New("admin role required")
	ErrProtectedUser      = errors.New("admin users can not be deleted")
	ErrUnknownKind        = errors.New("unknown entity kind")
	ErrInvalidInput       = errors.New("invalid input")
)

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
