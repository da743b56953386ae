// Package monitor keeps the dashboard's view of the recommender's readiness
// current by polling on an interval and on demand.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/model"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 30 * time.Second

// Operation names status checks in diagnostic records.
const Operation = "status"

// Checker fetches the service's current readiness.
type Checker interface {
	Status(ctx context.Context) (model.ServiceStatus, error)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used for lifecycle and discard messages.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// Monitor owns the last known ServiceStatus. Periodic and on-demand checks
// write the same cell; the last one to finish wins.
type Monitor struct {
	checker  Checker
	reporter diag.Reporter
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	status    model.ServiceStatus
	known     bool
	listeners []func(model.ServiceStatus)

	runMu  sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Monitor that polls every interval once started.
func New(checker Checker, reporter diag.Reporter, interval time.Duration, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if reporter == nil {
		reporter = diag.Discard
	}
	m := &Monitor{
		checker:  checker,
		reporter: reporter,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "monitor")
	return m
}

// Start registers the polling job and runs one check immediately. Calling
// Start on a running Monitor does nothing.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cron != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := c.AddFunc(spec, func() { m.loopCheck(loopCtx) }); err != nil {
		cancel()
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	c.Start()
	m.cron = c
	m.cancel = cancel
	m.logger.Info("status polling started", "spec", spec)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loopCheck(loopCtx)
	}()
	return nil
}

// Stop cancels polling and waits for in-flight loop checks to finish.
// No check started by the loop is applied after Stop returns.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cron == nil {
		return
	}

	m.cancel()
	<-m.cron.Stop().Done()
	m.wg.Wait()
	m.cron = nil
	m.cancel = nil
	m.logger.Info("status polling stopped")
}

// Running reports whether polling is active.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cron != nil
}

// CheckNow fetches the status once and stores the result. A failed fetch
// stores model.NotConnected and is reported. If ctx is cancelled before the
// fetch resolves, nothing is stored or reported and the last known status is
// returned.
func (m *Monitor) CheckNow(ctx context.Context) model.ServiceStatus {
	st, err := m.checker.Status(ctx)
	if ctx.Err() != nil {
		m.logger.Debug("discarding status check aborted by caller")
		last, _ := m.Status()
		return last
	}
	return m.apply(ctx, st, err)
}

// Status returns the last known status; ok is false before the first check completes.
func (m *Monitor) Status() (st model.ServiceStatus, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.known
}

// OnChange registers fn to run after every stored check, outside the lock.
func (m *Monitor) OnChange(fn func(model.ServiceStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Monitor) loopCheck(ctx context.Context) {
	st, err := m.checker.Status(ctx)
	if ctx.Err() != nil {
		m.logger.Debug("discarding status check aborted by shutdown")
		return
	}
	m.apply(ctx, st, err)
}

func (m *Monitor) apply(ctx context.Context, st model.ServiceStatus, err error) model.ServiceStatus {
	if err != nil {
		diag.Report(ctx, m.reporter, Operation, err)
		st = model.NotConnected()
	}

	m.mu.Lock()
	m.status = st
	m.known = true
	listeners := append([]func(model.ServiceStatus){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
	return st
}
