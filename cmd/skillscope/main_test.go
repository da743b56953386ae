package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscope/dashboard/internal/model"
)

// fakeAPI answers like the recommender and counts maintenance calls.
type fakeAPI struct {
	refreshes   atomic.Int32
	uploads     atomic.Int32
	failRefresh bool
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, model.ServiceStatus{Status: model.Ready, UsersCount: 2, JobsCount: 12})
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, []model.User{
			{ID: 1, Name: "Ada Lovelace", PrimaryFocus: "backend", Skills: []string{"go"}},
			{ID: 2, Name: "Lin Chen", PrimaryFocus: "frontend", Skills: []string{"css"}},
		})
	})
	mux.HandleFunc("GET /api/jobs/{n}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.PathValue("n"))
		respond(w, http.StatusOK, []model.Job{{ID: 3, Title: "SRE", Company: "Acme"}})
	})
	mux.HandleFunc("POST /api/recommend-skills", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, model.Recommendation{
			Market:     []string{"docker"},
			Analysis:   "Strong backend profile",
			JobMatches: []model.JobMatch{{ID: 3, Title: "SRE", Company: "Acme", MatchScore: 0.82}},
		})
	})
	mux.HandleFunc("POST /api/analyze-skill-gaps", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		gaps := []model.SkillGap{{Skill: "Rust", Importance: 0.9}}
		if body["job_id"] == 3 {
			gaps = []model.SkillGap{{Skill: "Kubernetes", Importance: 0.5}}
		}
		respond(w, http.StatusOK, model.SkillGapsResponse{SkillGaps: gaps})
	})
	mux.HandleFunc("POST /api/refresh-recommender", func(w http.ResponseWriter, _ *http.Request) {
		f.refreshes.Add(1)
		if f.failRefresh {
			respond(w, http.StatusInternalServerError, map[string]string{"error": "no data"})
			return
		}
		respond(w, http.StatusOK, map[string]any{"status": "success", "message": "Recommender refreshed", "has_data": true})
	})
	mux.HandleFunc("POST /api/upload-users", func(w http.ResponseWriter, _ *http.Request) {
		f.uploads.Add(1)
		respond(w, http.StatusOK, map[string]string{"status": "success", "message": "Uploaded 1 users"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// run executes the CLI and returns stdout.
func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}

// ── Queries ────────────────────────────────────────────────────────────────

func TestStatusCommand(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	out, err := run(t, context.Background(), "status", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected • 2 Users • 12 Jobs")
}

func TestStatusCommand_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out, err := run(t, context.Background(), "status", "--api-url", url+"/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network_unreachable")
	assert.Contains(t, out, model.ConnectFailureMessage)
}

func TestStatusCommand_EnvConfig(t *testing.T) {
	srv := (&fakeAPI{}).server(t)
	t.Setenv("SKILLSCOPE_API_URL", srv.URL+"/api")

	out, err := run(t, context.Background(), "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"users_count": 2`)
}

func TestUsersCommand_Filter(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	out, err := run(t, context.Background(), "users", "-q", "front", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Lin Chen")
	assert.NotContains(t, out, "Ada Lovelace")
}

func TestJobsCommand_Limit(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	out, err := run(t, context.Background(), "jobs", "--limit", "1", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
}

func TestRecommendCommand(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	out, err := run(t, context.Background(), "recommend", "1", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "1. docker")
	assert.Contains(t, out, "No collaborative recommendations available")
	assert.Contains(t, out, "82%")

	_, err = run(t, context.Background(), "recommend", "abc", "--api-url", srv.URL+"/api")
	assert.Error(t, err)
}

func TestGapsCommand(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	out, err := run(t, context.Background(), "gaps", "1", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Rust")
	assert.Contains(t, out, "Critical")

	out, err = run(t, context.Background(), "gaps", "1", "--job-id", "3", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Kubernetes")
	assert.Contains(t, out, "Medium")
}

// ── Maintenance ────────────────────────────────────────────────────────────

func TestRefreshCommand_FailureStillShowsStatus(t *testing.T) {
	api := &fakeAPI{failRefresh: true}
	srv := api.server(t)

	out, err := run(t, context.Background(), "refresh", "--api-url", srv.URL+"/api")
	require.Error(t, err)
	assert.Contains(t, out, "Connected • 2 Users • 12 Jobs")
	assert.Equal(t, int32(1), api.refreshes.Load())
}

func TestUploadCommand_RefreshesAfterSuccess(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"skills":["go"],"primary_focus":"backend"}]`), 0o600))

	out, err := run(t, context.Background(), "upload", "users", path, "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded 1 users")
	assert.Contains(t, out, "Recommender refreshed")
	assert.Equal(t, int32(1), api.uploads.Load())
	assert.Equal(t, int32(1), api.refreshes.Load())
}

func TestUploadCommand_InvalidFile(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":1}`), 0o600))

	_, err := run(t, context.Background(), "upload", "users", path, "--api-url", srv.URL+"/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_upload")
	assert.Zero(t, api.uploads.Load())
	assert.Zero(t, api.refreshes.Load())
}

func TestUploadCommand_BadKind(t *testing.T) {
	_, err := run(t, context.Background(), "upload", "skills", "x.json")
	assert.Error(t, err)
}

// ── Config errors ──────────────────────────────────────────────────────────

func TestInvalidConfigFailsFast(t *testing.T) {
	_, err := run(t, context.Background(), "status", "--api-url", "ftp://nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

// ── Serve + diagnostics ────────────────────────────────────────────────────

func TestServe_RecordsFailuresInJournal(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	journal := filepath.Join(t.TempDir(), "diag.db")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := run(t, ctx, "serve",
		"--api-url", downURL+"/api",
		"--addr", "127.0.0.1:0",
		"--grpc-addr", "127.0.0.1:0",
		"--sqlite-path", journal,
	)
	require.NoError(t, err)

	out, err := run(t, context.Background(), "diagnostics", "--sqlite-path", journal)
	require.NoError(t, err)
	assert.Contains(t, out, "status")
	assert.Contains(t, out, "network_unreachable")
}

func TestDiagnostics_RequiresJournal(t *testing.T) {
	_, err := run(t, context.Background(), "diagnostics")
	assert.Error(t, err)
}
