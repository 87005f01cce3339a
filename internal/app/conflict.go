package service

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/okian/resplan/internal/domain/model"
)

// ConflictError reports that the stored period moved on while the session
// was editing it. Diff is a unified diff from the stored to the local JSON.
type ConflictError struct {
	TeamID string
	Stored model.Period
	Local  model.Period
	Diff   string
	cause  error
}

func newConflictError(teamID string, stored, local model.Period, cause error) *ConflictError { //nolint:gocritic // hugeParam: periods are kept by value
	return &ConflictError{
		TeamID: teamID,
		Stored: stored,
		Local:  local,
		Diff:   unifiedDiff(stored, local),
		cause:  cause,
	}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("period %s/%s was modified concurrently: %v", e.TeamID, e.Local.ID, e.cause)
}

// Unwrap exposes the store error, which wraps repository.ErrConflict.
func (e *ConflictError) Unwrap() error { return e.cause }

func unifiedDiff(stored, local model.Period) string { //nolint:gocritic // hugeParam: periods are kept by value
	a, errA := json.MarshalIndent(stored, "", "  ")
	b, errB := json.MarshalIndent(local, "", "  ")
	if errA != nil || errB != nil {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a) + "\n"),
		B:        difflib.SplitLines(string(b) + "\n"),
		FromFile: "stored",
		ToFile:   "local",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
