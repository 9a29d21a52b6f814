package domain

import (
	"errors"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or has expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrActionRejected marks an action whose preconditions did not hold. It is never fatal:
	// the session is left untouched and views treat it as a no-op.
	ErrActionRejected = errors.New("quiz action rejected")
	// ErrInvalidDefinition is the sentinel wrapped by ValidationError.
	ErrInvalidDefinition = errors.New("invalid quiz definition")
)

// Problem is a single definition rule violation.
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned when a quiz definition fails to load.
type ValidationError struct {
	Problems []Problem `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+" "+p.Reason)
	}
	return ErrInvalidDefinition.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDefinition
}

// Add records a problem for field.
func (e *ValidationError) Add(field, reason string) {
	e.Problems = append(e.Problems, Problem{Field: field, Reason: reason})
}

// OrNil returns nil when no problem was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
