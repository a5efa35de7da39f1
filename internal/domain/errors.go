package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidSubmission is returned when a submission carries no answers.
	ErrInvalidSubmission = errors.New("no answers provided")
	// ErrInvalidQuiz is returned when authored quiz content fails validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrUnauthenticated is returned when no valid session backs the caller.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionNotFound is returned when a session token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// QuestionNotFound is the per-result marker for answers referencing unknown questions.
const QuestionNotFound = "Question not found"
