// Package processor drains the operation queue against the remote note
// store: one drain at a time, one operation at a time, with per-operation
// exponential backoff between attempts.
package processor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/events"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/queue"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 5 * time.Minute
)

// Connectivity tells the processor whether the server is believed reachable.
type Connectivity interface {
	Online() bool
}

// Result summarizes one drain or single-operation attempt.
type Result struct {
	Processed int
	Conflicts []models.Conflict
	// Failed lists operations that froze in the failed state during the call.
	Failed []models.SyncOperation
}

func (r *Result) merge(o outcome) {
	if o.synced {
		r.Processed++
	}
	if o.conflict != nil {
		r.Conflicts = append(r.Conflicts, *o.conflict)
	}
	if o.failed != nil {
		r.Failed = append(r.Failed, *o.failed)
	}
}

type outcome struct {
	noteID   string
	synced   bool
	conflict *models.Conflict
	failed   *models.SyncOperation
}

type Processor struct {
	queue  *queue.Queue
	notes  notes.Repository
	meta   metadata.Repository
	remote client.Client
	conn   Connectivity
	bus    *events.Bus
	logger logging.Logger
	now    func() time.Time

	baseDelay time.Duration
	maxDelay  time.Duration

	draining atomic.Bool

	mu       sync.Mutex
	inFlight map[string]struct{}
	timers   map[string]*retryTimer
	closed   bool
	wg       sync.WaitGroup

	// bgCtx bounds scheduled retries and kicks; Close cancels it.
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

type retryTimer struct {
	timer *time.Timer
}

type Option func(*Processor)

func WithBackoff(base, max time.Duration) Option {
	return func(p *Processor) {
		if base > 0 {
			p.baseDelay = base
		}
		if max > 0 {
			p.maxDelay = max
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func New(q *queue.Queue, n notes.Repository, meta metadata.Repository, remote client.Client,
	conn Connectivity, bus *events.Bus, logger logging.Logger, opts ...Option) *Processor {

	ctx, cancel := context.WithCancel(context.Background())
	p := &Processor{
		queue:     q,
		notes:     n,
		meta:      meta,
		remote:    remote,
		conn:      conn,
		bus:       bus,
		logger:    logger.With("module", "processor"),
		now:       time.Now,
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		inFlight:  make(map[string]struct{}),
		timers:    make(map[string]*retryTimer),
		bgCtx:     ctx,
		bgCancel:  cancel,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Drain attempts every pending operation once, in FIFO order. A call made
// while another drain is running returns an empty Result immediately, as does
// a call made while offline.
func (p *Processor) Drain(ctx context.Context) (Result, error) {
	if !p.draining.CompareAndSwap(false, true) {
		p.logger.Debug(ctx, "drain already running")
		return Result{}, nil
	}
	defer p.draining.Store(false)

	if !p.conn.Online() {
		return Result{}, nil
	}

	pending, err := p.queue.PeekPending(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, op := range pending {
		if ctx.Err() != nil {
			break
		}
		if !p.acquire(op.ID) {
			continue
		}
		res.merge(p.process(ctx, op.ID))
		p.release(op.ID)
	}

	if len(pending) > 0 {
		p.logger.Info(ctx, "queue drained", "processed", res.Processed,
			"conflicts", len(res.Conflicts), "failed", len(res.Failed))
	}
	p.bus.Publish(events.QueueDrained)
	return res, nil
}

// Draining reports whether a drain is in progress.
func (p *Processor) Draining() bool {
	return p.draining.Load()
}

// ProcessOne attempts a single operation outside of a drain. When it
// succeeds, later operations of the same note are attempted as well so that
// per-note order is kept.
func (p *Processor) ProcessOne(ctx context.Context, opID string) (Result, error) {
	var res Result
	for opID != "" {
		if !p.conn.Online() || ctx.Err() != nil {
			return res, nil
		}
		if !p.acquire(opID) {
			return res, nil
		}
		o := p.process(ctx, opID)
		p.release(opID)
		res.merge(o)

		if !o.synced {
			return res, nil
		}
		opID = p.nextForNote(ctx, o.noteID)
	}
	return res, nil
}

// Kick schedules an immediate background attempt of a freshly queued
// operation. It never blocks the caller.
func (p *Processor) Kick(opID string) {
	if !p.goBackground() {
		return
	}
	go func() {
		defer p.wg.Done()
		if _, err := p.ProcessOne(p.bgCtx, opID); err != nil {
			p.logger.Warn(p.bgCtx, "immediate sync attempt failed", "op_id", opID, "error", err)
		}
	}()
}

// RetryFailed resets a failed operation's retry budget and attempts it once.
func (p *Processor) RetryFailed(ctx context.Context, opID string) (Result, error) {
	if _, err := p.queue.ResetForRetry(ctx, opID); err != nil {
		return Result{}, err
	}
	return p.ProcessOne(ctx, opID)
}

// ScheduledRetries returns the number of armed retry timers.
func (p *Processor) ScheduledRetries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Wait blocks until background attempts started so far have finished.
// Armed retry timers are left alone.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Close stops all retry timers and waits for background attempts to finish.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for id, rt := range p.timers {
		rt.timer.Stop()
		delete(p.timers, id)
	}
	p.mu.Unlock()

	p.bgCancel()
	p.wg.Wait()
}

func (p *Processor) acquire(opID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[opID]; busy {
		return false
	}
	p.inFlight[opID] = struct{}{}
	if rt, ok := p.timers[opID]; ok {
		rt.timer.Stop()
		delete(p.timers, opID)
	}
	return true
}

func (p *Processor) release(opID string) {
	p.mu.Lock()
	delete(p.inFlight, opID)
	p.mu.Unlock()
}

func (p *Processor) goBackground() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.wg.Add(1)
	return true
}

// backoff returns base * 2^retryCount, capped at maxDelay.
func (p *Processor) backoff(retryCount int) time.Duration {
	b := retry.WithCappedDuration(p.maxDelay, retry.NewExponential(p.baseDelay))
	var d time.Duration
	for i := 0; i <= retryCount; i++ {
		d, _ = b.Next()
	}
	return d
}

func (p *Processor) scheduleRetry(op models.SyncOperation) {
	delay := p.backoff(op.RetryCount)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if old, ok := p.timers[op.ID]; ok {
		old.timer.Stop()
	}
	rt := &retryTimer{}
	rt.timer = time.AfterFunc(delay, func() { p.fireRetry(op.ID, rt) })
	p.timers[op.ID] = rt
	p.logger.Debug(p.bgCtx, "retry scheduled", "op_id", op.ID, "retry_count", op.RetryCount, "delay", delay)
}

func (p *Processor) fireRetry(opID string, rt *retryTimer) {
	p.mu.Lock()
	if p.timers[opID] != rt || p.closed {
		p.mu.Unlock()
		return
	}
	delete(p.timers, opID)
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	if _, err := p.ProcessOne(p.bgCtx, opID); err != nil {
		p.logger.Warn(p.bgCtx, "scheduled retry failed", "op_id", opID, "error", err)
	}
}

func (p *Processor) nextForNote(ctx context.Context, noteID string) string {
	if noteID == "" {
		return ""
	}
	pending, err := p.queue.PeekPending(ctx)
	if err != nil {
		return ""
	}
	for _, op := range pending {
		if op.NoteID == noteID {
			return op.ID
		}
	}
	return ""
}
