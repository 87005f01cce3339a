package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/pkg/metrics"
)

type teamRecord struct {
	team    model.Team
	periods map[string]model.Period
	backups map[string][]model.PeriodBackup
}

// MemoryStore keeps everything in process memory. Safe for concurrent use.
type MemoryStore struct {
	opts  options
	mu    sync.RWMutex
	teams map[string]*teamRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{opts: o, teams: make(map[string]*teamRecord)}
}

// GetAllTeams implements Store.GetAllTeams.
func (s *MemoryStore) GetAllTeams(ctx context.Context) ([]model.Team, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Team, 0, len(s.teams))
	for _, rec := range s.teams {
		out = append(out, cloneTeam(rec.team))
	}
	slices.SortFunc(out, func(a, b model.Team) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// GetTeam implements Store.GetTeam.
func (s *MemoryStore) GetTeam(ctx context.Context, teamID string) (model.Team, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.teams[teamID]
	if !ok {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Team{}, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
	}
	return cloneTeam(rec.team), nil
}

// CreateTeam implements Store.CreateTeam.
func (s *MemoryStore) CreateTeam(ctx context.Context, team model.Team) error {
	if err := validateTeam(team); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	s.mu.Lock()
	if _, ok := s.teams[team.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("team %q: %w", team.ID, ErrAlreadyExists)
	}
	s.teams[team.ID] = &teamRecord{
		team:    cloneTeam(team),
		periods: make(map[string]model.Period),
		backups: make(map[string][]model.PeriodBackup),
	}
	count := len(s.teams)
	s.mu.Unlock()

	metrics.UpdateStoreTeamsTotal(count)
	return nil
}

// UpdateTeam implements Store.UpdateTeam.
func (s *MemoryStore) UpdateTeam(ctx context.Context, team model.Team) error {
	if err := validateTeam(team); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.teams[team.ID]
	if !ok {
		return fmt.Errorf("team %q: %w", team.ID, ErrNotFound)
	}
	rec.team = cloneTeam(team)
	return nil
}

// GetAllPeriods implements Store.GetAllPeriods.
func (s *MemoryStore) GetAllPeriods(ctx context.Context, teamID string) ([]model.Period, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
	}
	out := make([]model.Period, 0, len(rec.periods))
	for _, p := range rec.periods {
		out = append(out, clonePeriod(p))
	}
	slices.SortFunc(out, func(a, b model.Period) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// GetPeriod implements Store.GetPeriod.
func (s *MemoryStore) GetPeriod(ctx context.Context, teamID, periodID string) (model.Period, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.periodLocked(teamID, periodID)
	if err != nil {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Period{}, err
	}
	return clonePeriod(p), nil
}

func (s *MemoryStore) periodLocked(teamID, periodID string) (model.Period, error) {
	rec, ok := s.teams[teamID]
	if !ok {
		return model.Period{}, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
	}
	p, ok := rec.periods[periodID]
	if !ok {
		return model.Period{}, fmt.Errorf("period %q for team %q: %w", periodID, teamID, ErrNotFound)
	}
	return p, nil
}

// CreatePeriod implements Store.CreatePeriod.
func (s *MemoryStore) CreatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error) {
	if err := validatePeriod(teamID, period); err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	s.mu.Lock()
	rec, ok := s.teams[teamID]
	if !ok {
		s.mu.Unlock()
		return model.ObjectUpdateResponse{}, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
	}
	if _, exists := rec.periods[period.ID]; exists {
		s.mu.Unlock()
		return model.ObjectUpdateResponse{}, fmt.Errorf("period %q for team %q: %w", period.ID, teamID, ErrAlreadyExists)
	}
	stored := clonePeriod(period)
	stored.LastUpdateUUID = newUpdateUUID()
	rec.periods[period.ID] = stored
	count := s.periodCountLocked()
	s.mu.Unlock()

	metrics.UpdateStorePeriodsTotal(count)
	return model.ObjectUpdateResponse{LastUpdateUUID: stored.LastUpdateUUID}, nil
}

// UpdatePeriod implements Store.UpdatePeriod.
func (s *MemoryStore) UpdatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error) {
	if err := validatePeriod(teamID, period); err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.periodLocked(teamID, period.ID)
	if err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	if err := checkConcurrentModification(saved, period); err != nil {
		metrics.RecordErrorByComponent("store", "conflict")
		return model.ObjectUpdateResponse{}, err
	}

	rec := s.teams[teamID]
	stored := clonePeriod(period)
	stored.LastUpdateUUID = newUpdateUUID()
	rec.periods[period.ID] = stored
	rec.backups[period.ID] = appendBackup(rec.backups[period.ID], saved, s.opts.now(), s.opts.backupsToKeep)
	metrics.RecordPeriodBackup()

	return model.ObjectUpdateResponse{LastUpdateUUID: stored.LastUpdateUUID}, nil
}

// GetPeriodBackups implements Store.GetPeriodBackups.
func (s *MemoryStore) GetPeriodBackups(ctx context.Context, teamID, periodID string) ([]model.PeriodBackup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.periodLocked(teamID, periodID); err != nil {
		return nil, err
	}
	backups := s.teams[teamID].backups[periodID]
	out := make([]model.PeriodBackup, 0, len(backups))
	for _, b := range backups {
		out = append(out, model.PeriodBackup{Timestamp: b.Timestamp, Period: clonePeriod(b.Period)})
	}
	return out, nil
}

// Close implements Store.Close. The memory store holds no resources.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) periodCountLocked() int {
	n := 0
	for _, rec := range s.teams {
		n += len(rec.periods)
	}
	return n
}
