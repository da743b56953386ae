// Package maintenance runs the data-maintenance workflows: refreshing the
// recommender and replacing its users or jobs data.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/gateway"
	"skillscope/dashboard/internal/model"
)

// Operation names used in diagnostic records and results.
const (
	OpRefresh     = "refresh"
	OpUploadUsers = "upload_users"
	OpUploadJobs  = "upload_jobs"
)

// Service is the slice of the gateway the coordinator drives.
type Service interface {
	Refresh(ctx context.Context) (gateway.RefreshResult, error)
	UploadUsers(ctx context.Context, f gateway.File) (gateway.UploadResult, error)
	UploadJobs(ctx context.Context, f gateway.File) (gateway.UploadResult, error)
}

// StatusChecker re-synchronizes the displayed status.
type StatusChecker interface {
	CheckNow(ctx context.Context) model.ServiceStatus
}

// Result is the outcome of the last finished workflow step.
type Result struct {
	Operation string    `json:"operation"`
	OK        bool      `json:"ok"`
	Message   string    `json:"message"`
	HasData   bool      `json:"has_data,omitempty"`
	Time      time.Time `json:"time"`
}

// Coordinator sequences refresh and upload workflows. Both run in the
// background; callers observe progress through Refreshing and LastResult.
type Coordinator struct {
	svc      Service
	status   StatusChecker
	reporter diag.Reporter
	logger   *slog.Logger

	refreshing atomic.Int32

	mu    sync.Mutex
	last  *Result
	hooks []func(context.Context)

	inflight sync.WaitGroup
}

// New creates a Coordinator.
func New(svc Service, status StatusChecker, reporter diag.Reporter, logger *slog.Logger) *Coordinator {
	if reporter == nil {
		reporter = diag.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		svc:      svc,
		status:   status,
		reporter: reporter,
		logger:   logger.With("component", "maintenance"),
	}
}

// AfterRefresh registers hook to run after each refresh's status check and
// before Refreshing drops. Hooks are skipped once the refresh's context is
// cancelled.
func (c *Coordinator) AfterRefresh(hook func(context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Refreshing reports whether any refresh is still running.
func (c *Coordinator) Refreshing() bool { return c.refreshing.Load() > 0 }

// LastResult returns the outcome of the most recent finished step.
func (c *Coordinator) LastResult() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

// Wait blocks until every started workflow has finished.
func (c *Coordinator) Wait() { c.inflight.Wait() }

// Refresh starts a refresh. Refreshing is true from this call until the
// returned channel closes.
func (c *Coordinator) Refresh(ctx context.Context) <-chan struct{} {
	c.refreshing.Add(1)
	return c.spawn(func() { c.runRefresh(ctx) })
}

// TryRefresh starts a refresh only when none is running.
func (c *Coordinator) TryRefresh(ctx context.Context) (<-chan struct{}, bool) {
	if !c.refreshing.CompareAndSwap(0, 1) {
		return nil, false
	}
	return c.spawn(func() { c.runRefresh(ctx) }), true
}

// Upload submits f as the new users or jobs data. A successful upload is
// followed by a refresh; a failed one is reported and nothing else happens.
func (c *Coordinator) Upload(ctx context.Context, kind model.UploadKind, f gateway.File) <-chan struct{} {
	return c.spawn(func() {
		op, res, err := c.upload(ctx, kind, f)
		if err != nil {
			diag.Report(ctx, c.reporter, op, err)
			c.record(Result{Operation: op, Message: err.Error()})
			return
		}
		c.logger.Info("upload accepted", "op", op, "file", f.Name, "message", res.Message)
		c.record(Result{Operation: op, OK: true, Message: res.Message})

		c.refreshing.Add(1)
		c.runRefresh(ctx)
	})
}

func (c *Coordinator) upload(ctx context.Context, kind model.UploadKind, f gateway.File) (string, gateway.UploadResult, error) {
	switch kind {
	case model.UploadUsers:
		res, err := c.svc.UploadUsers(ctx, f)
		return OpUploadUsers, res, err
	case model.UploadJobs:
		res, err := c.svc.UploadJobs(ctx, f)
		return OpUploadJobs, res, err
	default:
		return "upload", gateway.UploadResult{}, fmt.Errorf("unknown upload kind %q", kind)
	}
}

// runRefresh expects the caller to have incremented c.refreshing.
func (c *Coordinator) runRefresh(ctx context.Context) {
	defer c.refreshing.Add(-1)

	res, err := c.svc.Refresh(ctx)
	if err != nil {
		diag.Report(ctx, c.reporter, OpRefresh, err)
		c.record(Result{Operation: OpRefresh, Message: err.Error()})
	} else {
		c.logger.Info("recommender refreshed", "status", res.Status, "has_data", res.HasData)
		c.record(Result{Operation: OpRefresh, OK: true, Message: res.Message, HasData: res.HasData})
	}

	st := c.status.CheckNow(ctx)
	c.logger.Debug("status re-synchronized", "status", st.Status)
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	hooks := append([]func(context.Context){}, c.hooks...)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}
}

func (c *Coordinator) spawn(fn func()) <-chan struct{} {
	done := make(chan struct{})
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer close(done)
		fn()
	}()
	return done
}

func (c *Coordinator) record(r Result) {
	r.Time = time.Now().UTC()
	c.mu.Lock()
	c.last = &r
	c.mu.Unlock()
}
