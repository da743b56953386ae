// Package selection loads the recommendations and skill gaps of the user
// picked in the dashboard.
//
// Each selection issues two independent fetches. Their results are applied
// independently, each atomically, and Loading stays true until every issued
// fetch has settled. Overlapping selections are not cancelled: unless
// WithDiscardStale is set, a slow fetch from an earlier selection still
// overwrites the fields written by a later one.
package selection

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/model"
)

// Operation names used in diagnostic records.
const (
	OpRecommend = "recommend"
	OpSkillGaps = "skill_gaps"
)

// Fetcher issues the two dependent queries for a user.
type Fetcher interface {
	Recommend(ctx context.Context, userID int) (model.Recommendation, error)
	SkillGaps(ctx context.Context, userID int) ([]model.SkillGap, error)
}

// State is a point-in-time copy of the controller's fields.
type State struct {
	Selected      *model.User      `json:"selected"`
	Token         uint64           `json:"token"`
	Loading       bool             `json:"loading"`
	Market        []string         `json:"market_recommendations"`
	Collaborative []string         `json:"collaborative_recommendations"`
	Analysis      string           `json:"analysis"`
	JobMatches    []model.JobMatch `json:"job_matches"`
	SkillGaps     []model.SkillGap `json:"skill_gaps"`

	// RecommendationsFor and SkillGapsFor name the user whose response each
	// result set came from; nil until one has been applied.
	RecommendationsFor *int `json:"recommendations_for"`
	SkillGapsFor       *int `json:"skill_gaps_for"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithDiscardStale drops results whose selection has been superseded.
func WithDiscardStale(discard bool) Option {
	return func(c *Controller) { c.discardStale = discard }
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller owns the selected user and the results loaded for it.
type Controller struct {
	fetcher      Fetcher
	reporter     diag.Reporter
	discardStale bool
	logger       *slog.Logger

	mu       sync.Mutex
	selected *model.User
	token    uint64
	pending  int
	rec      model.Recommendation
	recFor   *int
	gaps     []model.SkillGap
	gapsFor  *int

	inflight sync.WaitGroup
}

// New creates a Controller with empty results.
func New(fetcher Fetcher, reporter diag.Reporter, opts ...Option) *Controller {
	if reporter == nil {
		reporter = diag.Discard
	}
	c := &Controller{
		fetcher:  fetcher,
		reporter: reporter,
		logger:   slog.Default(),
		gaps:     []model.SkillGap{},
	}
	c.rec.Normalize()
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "selection")
	return c
}

// SelectUser records user as selected and starts both fetches. The returned
// channel closes once both have settled.
func (c *Controller) SelectUser(ctx context.Context, user model.User) <-chan struct{} {
	c.mu.Lock()
	selected := user
	c.selected = &selected
	c.token++
	token := c.token
	c.pending += 2
	c.mu.Unlock()

	done := make(chan struct{})
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer close(done)

		var g errgroup.Group
		g.Go(func() error {
			c.loadRecommendations(ctx, token, user.ID)
			return nil
		})
		g.Go(func() error {
			c.loadSkillGaps(ctx, token, user.ID)
			return nil
		})
		_ = g.Wait()
	}()
	return done
}

// Wait blocks until every issued fetch has settled.
func (c *Controller) Wait() { c.inflight.Wait() }

// State returns a copy of the current fields.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Token:         c.token,
		Loading:       c.pending > 0,
		Market:        append([]string{}, c.rec.Market...),
		Collaborative: append([]string{}, c.rec.Collaborative...),
		Analysis:      c.rec.Analysis,
		JobMatches:    append([]model.JobMatch{}, c.rec.JobMatches...),
		SkillGaps:     append([]model.SkillGap{}, c.gaps...),
	}
	if c.selected != nil {
		u := *c.selected
		u.Skills = append([]string(nil), c.selected.Skills...)
		st.Selected = &u
	}
	st.RecommendationsFor = copyID(c.recFor)
	st.SkillGapsFor = copyID(c.gapsFor)
	return st
}

func (c *Controller) loadRecommendations(ctx context.Context, token uint64, userID int) {
	rec, err := c.fetcher.Recommend(ctx, userID)
	if err != nil {
		c.settle()
		diag.Report(ctx, c.reporter, OpRecommend, err)
		return
	}
	rec.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if c.stale(token) {
		c.logger.Debug("discarding stale recommendations", "user_id", userID, "token", token)
		return
	}
	c.rec = rec
	c.recFor = &userID
}

func (c *Controller) loadSkillGaps(ctx context.Context, token uint64, userID int) {
	gaps, err := c.fetcher.SkillGaps(ctx, userID)
	if err != nil {
		c.settle()
		diag.Report(ctx, c.reporter, OpSkillGaps, err)
		return
	}
	if gaps == nil {
		gaps = []model.SkillGap{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if c.stale(token) {
		c.logger.Debug("discarding stale skill gaps", "user_id", userID, "token", token)
		return
	}
	c.gaps = gaps
	c.gapsFor = &userID
}

func (c *Controller) settle() {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()
}

// stale must be called with c.mu held.
func (c *Controller) stale(token uint64) bool {
	return c.discardStale && token != c.token
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
