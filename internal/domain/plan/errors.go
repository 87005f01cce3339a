package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for invariant violations. These indicate a programming
// error in the caller rather than bad user input.
var (
	ErrPersonIDChanged = errors.New("cannot change person id")
	ErrDuplicatePerson = errors.New("person already exists")
)

// ValidationError captures a single field-specific consistency issue.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}
