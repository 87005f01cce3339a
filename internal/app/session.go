package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/resplan/internal/adapters/mq/queue"
	"github.com/okian/resplan/internal/adapters/mq/worker"
	"github.com/okian/resplan/internal/domain/plan"
	"github.com/okian/resplan/pkg/logger"
	"github.com/okian/resplan/pkg/metrics"
)

// Edit derives a new period from the current one.
type Edit func(p *plan.Period) (*plan.Period, error)

// Session holds the working copy of one period.
type Session struct {
	svc    *Service
	key    string
	teamID string

	mu     sync.Mutex
	period *plan.Period
	// seq numbers snapshots; savedSeq is the newest one with a result.
	seq      uint64
	savedSeq uint64
	// Results for snapshots up to reloadSeq predate the last reload.
	reloadSeq uint64
	conflict  *ConflictError
	saveErr   error
	closed    bool
	// idle is closed whenever no snapshot is awaiting its result.
	idle chan struct{}

	logger logger.Logger
}

// TeamID returns the team owning the period.
func (s *Session) TeamID() string { return s.teamID }

// Period returns the current working copy.
func (s *Session) Period() *plan.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Conflict returns the pending concurrent-modification report, if any.
func (s *Session) Conflict() *ConflictError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflict
}

// Err returns the last failed save that was not a conflict.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// Apply runs edit against the working copy and schedules a save when the
// period changed. Edits are refused while a conflict is unresolved.
func (s *Session) Apply(ctx context.Context, op string, edit Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClose
	}
	if s.conflict != nil {
		return s.conflict
	}

	next, err := edit(s.period)
	if err != nil {
		metrics.RecordErrorByComponent("session", "edit_rejected")
		return fmt.Errorf("%s: %w", op, err)
	}
	if next == s.period {
		return nil
	}

	if err := s.enqueueLocked(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.period = next
	metrics.RecordEditApplied(op)
	return nil
}

// Save schedules a write of the current working copy without editing it.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClose
	}
	if s.conflict != nil {
		return s.conflict
	}
	return s.enqueueLocked(ctx, s.period)
}

// enqueueLocked queues a snapshot of p. The session state is untouched
// when the queue refuses it.
func (s *Session) enqueueLocked(ctx context.Context, p *plan.Period) error {
	seq := s.seq + 1
	err := s.svc.enqueue(ctx, queue.SaveRequest{
		TeamID: s.teamID,
		Period: p.ToOriginal(),
		Seq:    seq,
	})
	if err != nil {
		s.logger.Warn(ctx, "snapshot not queued", logger.String("period", s.key), logger.Error(err))
		return err
	}
	if s.savedSeq == s.seq {
		s.idle = make(chan struct{})
	}
	s.seq = seq
	return nil
}

// Wait blocks until every queued snapshot has a result. It returns the
// conflict or save error left by the last result.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflict != nil {
		return s.conflict
	}
	return s.saveErr
}

// Reload discards the working copy in favor of the stored period and
// clears any conflict. Snapshots not yet written are dropped with it.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	seq := s.seq
	periodID := s.period.ID()
	s.mu.Unlock()

	// The saver reports results under s.mu, so the lock is not held here.
	if err := s.svc.discard(ctx, s.key, seq); err != nil {
		return err
	}
	stored, err := s.svc.store.GetPeriod(ctx, s.teamID, periodID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.period = plan.FromPeriod(stored)
	s.conflict = nil
	s.saveErr = nil
	if seq > s.reloadSeq {
		s.reloadSeq = seq
	}
	s.markIdleLocked(seq)

	s.logger.Info(ctx, "period reloaded",
		logger.String("period", s.key),
		logger.String("lastUpdateUUID", stored.LastUpdateUUID),
	)
	return nil
}

// Close releases the period so another session may open it. Snapshots
// already queued are still written.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	seq := s.seq
	s.mu.Unlock()

	s.svc.release(s.key, seq)
}

func (s *Session) handle(ctx context.Context, r *worker.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markIdleLocked(r.Request.Seq)
	if r.Request.Seq <= s.reloadSeq {
		return
	}

	switch {
	case r.Err == nil:
		cur := s.period.LastUpdateUUID()
		if cur != r.Request.Period.LastUpdateUUID && cur != r.BaseUUID {
			s.logger.Debug(ctx, "save result from another lineage ignored", logger.String("period", s.key))
			return
		}
		// Edits made after the snapshot are kept; they now sit on the new token.
		s.period = s.period.WithNewLastUpdateUUID(r.Response.LastUpdateUUID)
		s.saveErr = nil
	case r.Conflict():
		local := s.period.ToOriginal()
		stored, err := s.svc.store.GetPeriod(ctx, s.teamID, local.ID)
		if err != nil {
			s.saveErr = err
			s.logger.Error(ctx, "loading stored period for conflict report", logger.Error(err))
			return
		}
		s.conflict = newConflictError(s.teamID, stored, local, r.Err)
		s.logger.Warn(ctx, "period changed by someone else", logger.String("period", s.key))
	default:
		s.saveErr = r.Err
	}
}

func (s *Session) markIdleLocked(seq uint64) {
	if seq > s.savedSeq {
		s.savedSeq = seq
	}
	if s.savedSeq >= s.seq {
		select {
		case <-s.idle:
		default:
			close(s.idle)
		}
	}
}
