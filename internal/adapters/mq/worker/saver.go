// Package worker drains the save queue and persists period snapshots.
//
// Snapshots of the same period arriving within the debounce window are
// coalesced: only the newest one is written once the window closes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/resplan/internal/adapters/mq/queue"
	"github.com/okian/resplan/internal/adapters/repository"
	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/pkg/logger"
	"github.com/okian/resplan/pkg/metrics"
)

// Default saver configuration constants.
const (
	defaultDebounce = 2 * time.Second
	// maxTokenChain bounds the remembered token lineage per period.
	maxTokenChain = 64
)

// Writer persists a period snapshot.
type Writer interface {
	UpdatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error)
}

// Queue defines how the saver receives snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.SaveRequest
}

// Result reports the outcome of one write.
type Result struct {
	// Request is the snapshot as written. Its token may have been moved
	// forward along tokens this saver produced.
	Request queue.SaveRequest
	// BaseUUID is the token the snapshot was edited against.
	BaseUUID string
	// Coalesced counts the older snapshots this write superseded.
	Coalesced int
	Response  model.ObjectUpdateResponse
	Err       error
}

// Conflict reports whether the write was rejected by the token check.
func (r *Result) Conflict() bool {
	return errors.Is(r.Err, repository.ErrConflict)
}

// ResultHandler receives every write outcome on the saver goroutine.
type ResultHandler func(ctx context.Context, r Result)

// Worker is the lifecycle contract of a background queue consumer.
type Worker interface {
	// Run starts the loop until ctx is canceled, the queue closes or
	// Shutdown is called.
	Run(ctx context.Context)

	// Shutdown writes pending snapshots and stops the loop.
	Shutdown(ctx context.Context) error
}

type pendingSave struct {
	req    queue.SaveRequest
	merged int
	gen    uint64
	timer  *time.Timer
}

type firing struct {
	key string
	gen uint64
}

type discard struct {
	key  string
	seq  uint64
	done chan struct{}
}

// Saver implements Worker by debouncing and writing period snapshots.
type Saver struct {
	queue    Queue
	writer   Writer
	onResult ResultHandler
	debounce time.Duration
	name     string

	// Owned by the Run goroutine.
	pending map[string]*pendingSave
	chains  map[string]map[string]string
	// floors holds, per period, the newest Seq dropped by Discard.
	floors map[string]uint64
	gen    uint64

	fire     chan firing
	discards chan discard

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewSaver creates a saver reading from q and writing through w.
func NewSaver(q Queue, w Writer, opts ...Option) *Saver {
	s := &Saver{
		queue:    q,
		writer:   w,
		onResult: func(context.Context, Result) {},
		debounce: defaultDebounce,
		name:     "saver",
		pending:  make(map[string]*pendingSave),
		chains:   make(map[string]map[string]string),
		floors:   make(map[string]uint64),
		fire:     make(chan firing),
		discards: make(chan discard),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("saver"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.name != "saver" {
		s.logger = s.logger.Named(s.name)
	}

	return s
}

// Run starts the saver loop.
func (s *Saver) Run(ctx context.Context) {
	defer close(s.done)

	requests := s.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			return
		case <-s.shutdown:
			s.flush(ctx)
			return
		case r, ok := <-requests:
			if !ok {
				s.flush(ctx)
				return
			}
			s.schedule(r)
		case d := <-s.discards:
			s.drop(ctx, d.key, d.seq)
			close(d.done)
		case f := <-s.fire:
			p, ok := s.pending[f.key]
			if !ok || p.gen != f.gen {
				continue
			}
			delete(s.pending, f.key)
			metrics.UpdateSavesPending(len(s.pending))
			s.write(ctx, p)
		}
	}
}

// Shutdown writes pending snapshots and waits for the loop to exit.
func (s *Saver) Shutdown(ctx context.Context) error {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Discard drops snapshots of key numbered seq or lower that have not been
// written yet, including ones still in the queue. A write already in
// progress completes before Discard returns. It is a no-op once the loop
// has exited.
func (s *Saver) Discard(ctx context.Context, key string, seq uint64) error {
	d := discard{key: key, seq: seq, done: make(chan struct{})}
	select {
	case s.discards <- d:
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has exited.
func (s *Saver) Done() <-chan struct{} {
	return s.done
}

func (s *Saver) schedule(r queue.SaveRequest) { //nolint:gocritic // hugeParam: SaveRequest arrives by value from the queue
	key := r.Key()
	if r.Seq <= s.floors[key] {
		metrics.RecordSaveDiscarded()
		return
	}
	p, ok := s.pending[key]
	if ok {
		p.timer.Stop()
		p.merged++
		metrics.RecordSaveCoalesced()
		if r.Seq >= p.req.Seq {
			p.req = r
		}
	} else {
		p = &pendingSave{req: r}
		s.pending[key] = p
	}

	s.gen++
	p.gen = s.gen
	f := firing{key: key, gen: p.gen}
	p.timer = time.AfterFunc(s.debounce, func() {
		select {
		case s.fire <- f:
		case <-s.done:
		}
	})
	metrics.UpdateSavesPending(len(s.pending))
}

func (s *Saver) drop(ctx context.Context, key string, seq uint64) {
	if seq > s.floors[key] {
		s.floors[key] = seq
	}
	p, ok := s.pending[key]
	if !ok || p.req.Seq > seq {
		return
	}
	p.timer.Stop()
	delete(s.pending, key)
	metrics.RecordSaveDiscarded()
	metrics.UpdateSavesPending(len(s.pending))
	s.logger.Debug(ctx, "pending save discarded",
		logger.String("period", key),
		logger.Int("coalesced", p.merged),
	)
}

func (s *Saver) flush(ctx context.Context) {
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
		s.write(ctx, p)
	}
	metrics.UpdateSavesPending(0)
}

func (s *Saver) stopTimers() {
	for _, p := range s.pending {
		p.timer.Stop()
	}
}

func (s *Saver) write(ctx context.Context, p *pendingSave) {
	key := p.req.Key()
	req := p.req
	base := req.Period.LastUpdateUUID
	req.Period.LastUpdateUUID = s.resolve(key, base)

	metrics.RecordSaveAttempt()
	start := time.Now()
	resp, err := s.writer.UpdatePeriod(ctx, req.TeamID, req.Period)
	res := Result{Request: req, BaseUUID: base, Coalesced: p.merged, Response: resp, Err: err}

	switch {
	case err == nil:
		metrics.RecordSaveSuccess(float64(time.Since(start).Milliseconds()))
		s.link(key, req.Period.LastUpdateUUID, resp.LastUpdateUUID)
		s.logger.Debug(ctx, "period saved",
			logger.String("period", key),
			logger.Int("coalesced", p.merged),
			logger.String("lastUpdateUUID", resp.LastUpdateUUID),
		)
	case res.Conflict():
		metrics.RecordSaveConflict()
		delete(s.chains, key)
		s.logger.Warn(ctx, "period modified concurrently", logger.String("period", key), logger.Error(err))
	default:
		metrics.RecordErrorByComponent("saver", "write_error")
		s.logger.Error(ctx, "period write failed", logger.String("period", key), logger.Error(err))
	}

	s.onResult(ctx, res)
}

// resolve follows tokens this saver has written over to the newest one.
func (s *Saver) resolve(key, token string) string {
	chain := s.chains[key]
	for i := 0; i <= len(chain); i++ {
		next, ok := chain[token]
		if !ok {
			break
		}
		token = next
	}
	return token
}

func (s *Saver) link(key, from, to string) {
	chain, ok := s.chains[key]
	if !ok || len(chain) >= maxTokenChain {
		chain = make(map[string]string)
		s.chains[key] = chain
	}
	chain[from] = to
}
