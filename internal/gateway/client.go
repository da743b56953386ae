// Package gateway is the typed request/response boundary to the remote
// recommender service. It holds no state beyond its HTTP client.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"skillscope/dashboard/internal/model"
)

const (
	// DefaultBaseURL is where the recommender listens in local development.
	DefaultBaseURL = "http://127.0.0.1:5000/api"
	defaultTimeout = 30 * time.Second
	userAgent      = "skillscope-dashboard/1.0"
)

// Operation names, used in errors and diagnostic records.
const (
	OpStatus      = "status"
	OpUsers       = "list_users"
	OpJobs        = "list_jobs"
	OpRecommend   = "recommend"
	OpSkillGaps   = "skill_gaps"
	OpRefresh     = "refresh"
	OpUploadUsers = "upload_users"
	OpUploadJobs  = "upload_jobs"
)

// RefreshResult is the refresh-recommender response.
type RefreshResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	HasData bool   `json:"has_data"`
}

// UploadResult is the upload-users / upload-jobs response.
type UploadResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the recommender's JSON API. It never retries.
type Client struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
}

// New constructs a Client. A zero timeout selects the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient constructs a Client around an existing *http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   hc,
		validate: validator.New(),
	}
}

// BaseURL returns the API root this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Status fetches the service's readiness.
func (c *Client) Status(ctx context.Context) (model.ServiceStatus, error) {
	var st model.ServiceStatus
	if err := c.getJSON(ctx, OpStatus, "/status", &st); err != nil {
		return model.ServiceStatus{}, err
	}
	return st, nil
}

// Users fetches the whole user directory.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	return listDirectory[model.User](ctx, c, OpUsers, "/users", "users")
}

// UsersLimit fetches the first n users of the directory.
func (c *Client) UsersLimit(ctx context.Context, n int) ([]model.User, error) {
	return listDirectory[model.User](ctx, c, OpUsers, fmt.Sprintf("/users/%d", n), "users")
}

// Jobs fetches the whole job directory.
func (c *Client) Jobs(ctx context.Context) ([]model.Job, error) {
	return listDirectory[model.Job](ctx, c, OpJobs, "/jobs", "jobs")
}

// JobsLimit fetches the first n jobs of the directory.
func (c *Client) JobsLimit(ctx context.Context, n int) ([]model.Job, error) {
	return listDirectory[model.Job](ctx, c, OpJobs, fmt.Sprintf("/jobs/%d", n), "jobs")
}

// Recommend requests market and collaborative recommendations plus job matches for a user.
func (c *Client) Recommend(ctx context.Context, userID int) (model.Recommendation, error) {
	var rec model.Recommendation
	if err := c.postJSON(ctx, OpRecommend, "/recommend-skills", map[string]int{"user_id": userID}, &rec); err != nil {
		return model.Recommendation{}, err
	}
	rec.Normalize()
	return rec, nil
}

// SkillGaps requests the ranked skill gaps of a user against the whole market.
func (c *Client) SkillGaps(ctx context.Context, userID int) ([]model.SkillGap, error) {
	return c.skillGaps(ctx, map[string]int{"user_id": userID})
}

// SkillGapsForJob requests the skill gaps of a user against a single job.
func (c *Client) SkillGapsForJob(ctx context.Context, userID, jobID int) ([]model.SkillGap, error) {
	return c.skillGaps(ctx, map[string]int{"user_id": userID, "job_id": jobID})
}

func (c *Client) skillGaps(ctx context.Context, body map[string]int) ([]model.SkillGap, error) {
	var resp model.SkillGapsResponse
	if err := c.postJSON(ctx, OpSkillGaps, "/analyze-skill-gaps", body, &resp); err != nil {
		return nil, err
	}
	if resp.SkillGaps == nil {
		resp.SkillGaps = []model.SkillGap{}
	}
	return resp.SkillGaps, nil
}

// Refresh asks the service to reload its reference data.
func (c *Client) Refresh(ctx context.Context) (RefreshResult, error) {
	var res RefreshResult
	if err := c.postJSON(ctx, OpRefresh, "/refresh-recommender", nil, &res); err != nil {
		return RefreshResult{}, err
	}
	return res, nil
}

// ─── Transport ───────────────────────────────────────────────────────────────

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	body, err := c.get(ctx, op, path)
	if err != nil {
		return err
	}
	return c.decode(op, body, out)
}

func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &ServiceError{Op: op, Kind: KindNetworkUnreachable, Err: err}
	}
	return c.do(ctx, op, req)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	var reader io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return &ServiceError{Op: op, Kind: KindNetworkUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(ctx, op, req)
	if err != nil {
		return err
	}
	return c.decode(op, body, out)
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			Op:         op,
			Kind:       KindServiceRejected,
			StatusCode: resp.StatusCode,
			Message:    rejectionReason(body),
		}
	}
	return body, nil
}

func (c *Client) decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &ServiceError{Op: op, Kind: KindMalformedResponse, Err: fmt.Errorf("json unmarshal: %w", err)}
	}
	if err := c.validate.Struct(out); err != nil {
		return &ServiceError{Op: op, Kind: KindMalformedResponse, Err: err}
	}
	return nil
}

// listDirectory decodes either a bare array or a {"count": n, "<key>": [...]} wrapper;
// the recommender has shipped both shapes.
func listDirectory[T any](ctx context.Context, c *Client, op, path, key string) ([]T, error) {
	raw, err := c.get(ctx, op, path)
	if err != nil {
		return nil, err
	}

	items := []T{}
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &ServiceError{Op: op, Kind: KindMalformedResponse, Err: fmt.Errorf("json unmarshal: %w", err)}
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, &ServiceError{Op: op, Kind: KindMalformedResponse, Err: fmt.Errorf("json unmarshal: %w", err)}
		}
		list, ok := wrapper[key]
		if !ok {
			return nil, &ServiceError{Op: op, Kind: KindMalformedResponse, Err: fmt.Errorf("response has no %q field", key)}
		}
		if err := json.Unmarshal(list, &items); err != nil {
			return nil, &ServiceError{Op: op, Kind: KindMalformedResponse, Err: fmt.Errorf("json unmarshal %s: %w", key, err)}
		}
	default:
		return nil, &ServiceError{Op: op, Kind: KindMalformedResponse, Err: errors.New("expected a JSON array or object")}
	}

	if items == nil {
		items = []T{}
	}
	for i := range items {
		if err := c.validate.Struct(items[i]); err != nil {
			return nil, &ServiceError{Op: op, Kind: KindMalformedResponse, Err: fmt.Errorf("item %d: %w", i, err)}
		}
	}
	return items, nil
}

func transportError(ctx context.Context, op string, err error) error {
	kind := KindNetworkUnreachable
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		kind = KindUserAborted
	}
	return &ServiceError{Op: op, Kind: kind, Err: err}
}

// rejectionReason extracts {"error": "..."} from a failure body, falling back to the raw text.
func rejectionReason(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
