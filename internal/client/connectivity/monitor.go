// Package connectivity tracks whether the server is reachable and turns a
// reconnect into a single, debounced queue drain.
package connectivity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/events"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/processor"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	DefaultDebounce     = time.Second
	DefaultProbeTimeout = 3 * time.Second
)

type Prober interface {
	Ping(ctx context.Context) error
}

type Drainer interface {
	Drain(ctx context.Context) (processor.Result, error)
}

type Refresher interface {
	Refresh(ctx context.Context) (models.SyncState, error)
}

// DrainReporter receives the outcome of every drain started by a reconnect.
type DrainReporter func(ctx context.Context, res processor.Result, err error)

type Monitor struct {
	prober    Prober
	drainer   Drainer
	refresher Refresher
	bus       *events.Bus
	logger    logging.Logger
	report    DrainReporter

	debounce     time.Duration
	probeTimeout time.Duration

	online atomic.Bool

	mu      sync.Mutex
	pending *debounced
	closed  bool
	wg      sync.WaitGroup

	bgCtx    context.Context
	bgCancel context.CancelFunc
}

type debounced struct {
	timer *time.Timer
}

type Option func(*Monitor)

func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

func WithDrainReporter(r DrainReporter) Option {
	return func(m *Monitor) { m.report = r }
}

// New returns a monitor in offline mode; the first successful probe brings
// it online and triggers the startup drain.
func New(prober Prober, drainer Drainer, refresher Refresher, bus *events.Bus, logger logging.Logger, opts ...Option) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		prober:       prober,
		drainer:      drainer,
		refresher:    refresher,
		bus:          bus,
		logger:       logger.With("module", "connectivity"),
		debounce:     DefaultDebounce,
		probeTimeout: DefaultProbeTimeout,
		bgCtx:        ctx,
		bgCancel:     cancel,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

func (m *Monitor) Mode() Mode {
	if m.Online() {
		return ModeOnline
	}
	return ModeOffline
}

// SetOnline records a connectivity observation. Only transitions have an
// effect: going online schedules one drain after the debounce interval,
// going offline cancels that drain and refreshes the sync state.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	if m.online.Swap(online) == online {
		return
	}

	m.logger.Info(ctx, fmt.Sprintf("Switched to %s mode", m.Mode()))
	m.bus.Publish(events.ConnectivityChanged)

	if online {
		m.scheduleDrain()
		return
	}
	m.cancelDrain()
	if _, err := m.refresher.Refresh(ctx); err != nil {
		m.logger.Warn(ctx, "failed to refresh sync state", "error", err)
	}
}

// Probe pings the server once and records the result.
func (m *Monitor) Probe(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.prober.Ping(pctx)
	cancel()

	if err != nil {
		m.logger.Debug(ctx, "server probe failed", "error", err)
	}
	m.SetOnline(ctx, err == nil)
	return err
}

// Run probes the server every probeInterval and recomputes the sync state
// every pollInterval until ctx is done.
func (m *Monitor) Run(ctx context.Context, probeInterval, pollInterval time.Duration) {
	_ = m.Probe(ctx)

	probe := time.NewTicker(probeInterval)
	defer probe.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-probe.C:
			_ = m.Probe(ctx)
		case <-poll.C:
			if _, err := m.refresher.Refresh(ctx); err != nil {
				m.logger.Warn(ctx, "failed to refresh sync state", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// DrainScheduled reports whether a debounced drain is waiting to run.
func (m *Monitor) DrainScheduled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Close cancels a scheduled drain and waits for a running one.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.pending != nil {
		m.pending.timer.Stop()
		m.pending = nil
	}
	m.mu.Unlock()

	m.bgCancel()
	m.wg.Wait()
}

func (m *Monitor) scheduleDrain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.pending != nil {
		m.pending.timer.Stop()
	}
	d := &debounced{}
	d.timer = time.AfterFunc(m.debounce, func() { m.fire(d) })
	m.pending = d
}

func (m *Monitor) cancelDrain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.timer.Stop()
		m.pending = nil
	}
}

func (m *Monitor) fire(d *debounced) {
	m.mu.Lock()
	if m.pending != d || m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()

	if !m.Online() {
		return
	}
	res, err := m.drainer.Drain(m.bgCtx)
	if err != nil {
		m.logger.Error(m.bgCtx, "reconnect drain failed", "error", err)
	}
	if m.report != nil {
		m.report(m.bgCtx, res, err)
	}
}
