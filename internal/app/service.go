// Package service runs editing sessions over stored periods. Edits are
// applied to an immutable plan.Period in memory and persisted in the
// background by a debounced saver.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/resplan/internal/adapters/mq/queue"
	"github.com/okian/resplan/internal/adapters/mq/worker"
	"github.com/okian/resplan/internal/adapters/repository"
	"github.com/okian/resplan/internal/domain/plan"
	"github.com/okian/resplan/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize = 1024
	defaultDebounce  = 2 * time.Second
)

// Service owns the save pipeline and the sessions writing through it.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	queue *queue.InMemoryQueue
	saver *worker.Saver

	sessions map[string]*Session
	// lastSeq keeps the snapshot numbering of closed sessions so a new
	// session on the same period continues after it.
	lastSeq map[string]uint64

	// Configuration
	queueSize int
	debounce  time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a service writing to store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		sessions:  make(map[string]*Session),
		lastSeq:   make(map[string]uint64),
		queueSize: defaultQueueSize,
		debounce:  defaultDebounce,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the save queue and starts the saver.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.saver = worker.NewSaver(s.queue, s.store,
		worker.WithDebounce(s.debounce),
		worker.WithResultHandler(s.dispatch),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.saver.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "planning service started",
		logger.Int("queueSize", s.queueSize),
		logger.String("debounce", s.debounce.String()),
	)

	return nil
}

// Stop closes the save queue, waits for pending snapshots to be written
// and stops the saver. Sessions stay readable but reject further edits.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	q, saver, cancel := s.queue, s.saver, s.cancel
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping planning service...")
	_ = q.Close()

	var err error
	select {
	case <-saver.Done():
	case <-ctx.Done():
		err = fmt.Errorf("waiting for pending saves: %w", ctx.Err())
		s.logger.Warn(ctx, "stop timed out with saves pending")
	}
	cancel()

	s.logger.Info(ctx, "planning service stopped")
	return err
}

// Open starts an editing session on a stored period. At most one session
// per period may be open at a time.
func (s *Service) Open(ctx context.Context, teamID, periodID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotStarted
	}

	key := teamID + "/" + periodID
	if _, open := s.sessions[key]; open {
		return nil, fmt.Errorf("%w: %s", ErrSessionOpen, key)
	}

	stored, err := s.store.GetPeriod(ctx, teamID, periodID)
	if err != nil {
		return nil, err
	}

	seq := s.lastSeq[key]
	sess := &Session{
		svc:       s,
		key:       key,
		teamID:    teamID,
		period:    plan.FromPeriod(stored),
		seq:       seq,
		savedSeq:  seq,
		reloadSeq: seq,
		idle:      make(chan struct{}),
		logger:    s.logger.Named("session"),
	}
	close(sess.idle)
	s.sessions[key] = sess

	s.logger.Debug(ctx, "session opened", logger.String("period", key))
	return sess, nil
}

func (s *Service) enqueue(ctx context.Context, r queue.SaveRequest) error { //nolint:gocritic // hugeParam: SaveRequest is handed to the queue by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if !s.queue.Enqueue(ctx, r) {
		return ErrQueueFull
	}
	return nil
}

// discard drops the unwritten snapshots of key up to seq.
func (s *Service) discard(ctx context.Context, key string, seq uint64) error {
	s.mu.RLock()
	saver, started := s.saver, s.started
	s.mu.RUnlock()

	if !started {
		return nil
	}
	return saver.Discard(ctx, key, seq)
}

func (s *Service) release(key string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	if seq > s.lastSeq[key] {
		s.lastSeq[key] = seq
	}
}

// dispatch routes a write outcome to the session that produced it.
func (s *Service) dispatch(ctx context.Context, r worker.Result) { //nolint:gocritic // hugeParam: matches worker.ResultHandler
	s.mu.RLock()
	sess, ok := s.sessions[r.Request.Key()]
	s.mu.RUnlock()

	if !ok {
		s.logger.Debug(ctx, "save result for closed session", logger.String("period", r.Request.Key()))
		return
	}
	sess.handle(ctx, &r)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"queueSize": s.queueSize,
		"debounce":  s.debounce.String(),
		"sessions":  len(s.sessions),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}
