// Package dashboard is the orchestration context behind every presentation
// surface. It owns the status monitor, the selection controller, the
// maintenance coordinator and the user directory, and hands out snapshots.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/gateway"
	"skillscope/dashboard/internal/maintenance"
	"skillscope/dashboard/internal/model"
	"skillscope/dashboard/internal/monitor"
	"skillscope/dashboard/internal/selection"
)

// ErrUnknownUser is returned when a selection names a user outside the directory.
var ErrUnknownUser = errors.New("user not in directory")

// OpListUsers names directory loads in diagnostic records.
const OpListUsers = "list_users"

// Gateway is everything the dashboard needs from the recommender.
type Gateway interface {
	monitor.Checker
	selection.Fetcher
	maintenance.Service
	Users(ctx context.Context) ([]model.User, error)
}

// Options tunes a Dashboard. Zero values select defaults.
type Options struct {
	PollInterval   time.Duration
	DiscardStale   bool
	RecentFailures int
	Logger         *slog.Logger
}

// Snapshot is a read-only view for presentation surfaces.
type Snapshot struct {
	Status          *model.ServiceStatus `json:"status"`
	Users           []model.User         `json:"users"`
	Selection       selection.State      `json:"selection"`
	Refreshing      bool                 `json:"refreshing"`
	LastMaintenance *maintenance.Result  `json:"last_maintenance,omitempty"`
	Failures        []diag.Record        `json:"recent_failures"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// Dashboard wires the core components around one gateway.
type Dashboard struct {
	gw       Gateway
	reporter diag.Reporter
	failures *diag.Memory
	logger   *slog.Logger

	monitor   *monitor.Monitor
	selection *selection.Controller
	maint     *maintenance.Coordinator

	dirMu sync.RWMutex
	users []model.User

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Dashboard. Every failure is kept in a small in-memory ring for
// snapshots and also forwarded to reporter.
func New(gw Gateway, reporter diag.Reporter, opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	failures := diag.NewMemory(opts.RecentFailures)
	all := diag.Multi{failures}
	if reporter != nil {
		all = append(all, reporter)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		gw:       gw,
		reporter: all,
		failures: failures,
		logger:   logger.With("component", "dashboard"),
		users:    []model.User{},
		ctx:      ctx,
		cancel:   cancel,
	}
	d.monitor = monitor.New(gw, all, opts.PollInterval, monitor.WithLogger(logger))
	d.selection = selection.New(gw, all,
		selection.WithDiscardStale(opts.DiscardStale),
		selection.WithLogger(logger))
	d.maint = maintenance.New(gw, d.monitor, all, logger)
	d.maint.AfterRefresh(func(ctx context.Context) {
		_ = d.LoadDirectory(ctx)
	})
	return d
}

// Start begins status polling and loads the user directory in the background.
func (d *Dashboard) Start() error {
	if err := d.monitor.Start(d.ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	go func() { _ = d.LoadDirectory(d.ctx) }()
	return nil
}

// Stop aborts outstanding requests, ends polling and waits for in-flight
// work to settle. Checks aborted this way leave the status untouched.
func (d *Dashboard) Stop() {
	d.cancel()
	d.monitor.Stop()
	d.selection.Wait()
	d.maint.Wait()
}

// OnStatus registers fn to observe every stored status.
func (d *Dashboard) OnStatus(fn func(model.ServiceStatus)) { d.monitor.OnChange(fn) }

// CheckNow runs one status check immediately.
func (d *Dashboard) CheckNow(ctx context.Context) model.ServiceStatus {
	return d.monitor.CheckNow(ctx)
}

// LoadDirectory replaces the user directory. On failure the previous
// directory is kept and the error reported.
func (d *Dashboard) LoadDirectory(ctx context.Context) error {
	users, err := d.gw.Users(ctx)
	if err != nil {
		diag.Report(ctx, d.reporter, OpListUsers, err)
		return fmt.Errorf("load directory: %w", err)
	}
	d.dirMu.Lock()
	d.users = users
	d.dirMu.Unlock()
	d.logger.Info("user directory loaded", "count", len(users))
	return nil
}

// Users returns the directory entries matching q.
func (d *Dashboard) Users(q string) []model.User {
	d.dirMu.RLock()
	defer d.dirMu.RUnlock()
	return FilterUsers(d.users, q)
}

// SelectUser selects the directory user with id. The channel closes once
// both dependent fetches have settled.
func (d *Dashboard) SelectUser(id int) (<-chan struct{}, error) {
	u, ok := d.lookup(id)
	if !ok {
		return nil, fmt.Errorf("select %d: %w", id, ErrUnknownUser)
	}
	return d.selection.SelectUser(d.ctx, u), nil
}

// Refresh starts a refresh unless one is already running.
func (d *Dashboard) Refresh() (<-chan struct{}, bool) {
	return d.maint.TryRefresh(d.ctx)
}

// Upload starts an upload of f as the new users or jobs data.
func (d *Dashboard) Upload(kind model.UploadKind, f gateway.File) <-chan struct{} {
	return d.maint.Upload(d.ctx, kind, f)
}

// Failures returns up to n recent failure records, newest first.
func (d *Dashboard) Failures(n int) []diag.Record { return d.failures.Recent(n) }

// Snapshot captures the current state of every component.
func (d *Dashboard) Snapshot() Snapshot {
	snap := Snapshot{
		Users:       d.Users(""),
		Selection:   d.selection.State(),
		Refreshing:  d.maint.Refreshing(),
		Failures:    d.failures.Recent(10),
		GeneratedAt: time.Now().UTC(),
	}
	if st, ok := d.monitor.Status(); ok {
		snap.Status = &st
	}
	if res, ok := d.maint.LastResult(); ok {
		snap.LastMaintenance = &res
	}
	return snap
}

func (d *Dashboard) lookup(id int) (model.User, bool) {
	d.dirMu.RLock()
	defer d.dirMu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}
