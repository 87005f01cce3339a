// Package repository persists teams and periods and enforces the
// lastUpdateUUID optimistic concurrency check on period updates.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/internal/domain/plan"
)

// Store provides read/write access to teams and their periods.
type Store interface {
	// GetAllTeams returns every team ordered by id.
	GetAllTeams(ctx context.Context) ([]model.Team, error)
	// GetTeam returns ErrNotFound if the team is unknown.
	GetTeam(ctx context.Context, teamID string) (model.Team, error)
	// CreateTeam returns ErrAlreadyExists if the id is taken.
	CreateTeam(ctx context.Context, team model.Team) error
	// UpdateTeam returns ErrNotFound if the team is unknown.
	UpdateTeam(ctx context.Context, team model.Team) error

	// GetAllPeriods returns the team's periods ordered by id.
	// Returns ErrNotFound if the team is unknown.
	GetAllPeriods(ctx context.Context, teamID string) ([]model.Period, error)
	// GetPeriod returns ErrNotFound if the team or period is unknown.
	GetPeriod(ctx context.Context, teamID, periodID string) (model.Period, error)
	// CreatePeriod stores a new period under a freshly minted lastUpdateUUID.
	CreatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error)
	// UpdatePeriod replaces a period. The incoming lastUpdateUUID must match
	// the stored one, otherwise ErrConflict is returned. The previous version
	// is kept as a backup.
	UpdatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error)
	// GetPeriodBackups returns the retained backups, oldest first.
	GetPeriodBackups(ctx context.Context, teamID, periodID string) ([]model.PeriodBackup, error)

	Close() error
}

// Open returns the store selected by driver ("memory" or "sqlite").
func Open(driver, path string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return OpenSQLite(path, opts...)
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", ErrInvalidInput, driver)
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

func newUpdateUUID() string {
	return uuid.New().String()
}

func checkConcurrentModification(saved, incoming model.Period) error {
	if saved.LastUpdateUUID != incoming.LastUpdateUUID {
		return fmt.Errorf("%w: last saved UUID=%s, your last loaded UUID=%s",
			ErrConflict, saved.LastUpdateUUID, incoming.LastUpdateUUID)
	}
	return nil
}

func validateTeam(team model.Team) error {
	if team.ID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	return nil
}

func validatePeriod(teamID string, period model.Period) error {
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if period.ID == "" {
		return fmt.Errorf("%w: period id is required", ErrInvalidInput)
	}
	return nil
}

// clonePeriod deep-copies a period so stored state never aliases caller memory.
func clonePeriod(p model.Period) model.Period {
	return plan.FromPeriod(p).ToOriginal()
}

func cloneTeam(t model.Team) model.Team {
	return plan.FromTeam(t).ToOriginal()
}

// appendBackup adds a backup and keeps only the newest keep entries.
func appendBackup(backups []model.PeriodBackup, period model.Period, at time.Time, keep int) []model.PeriodBackup {
	backups = append(backups, model.PeriodBackup{Timestamp: at, Period: period})
	if len(backups) > keep {
		backups = backups[len(backups)-keep:]
	}
	return backups
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
