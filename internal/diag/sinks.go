package diag

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// FailureChannel is the Redis channel records are published on.
const FailureChannel = "EVENT_DASHBOARD_FAILURE"

// LogSink writes each record as a structured warning.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Report(ctx context.Context, rec Record) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "operation failed",
		"id", rec.ID, "op", rec.Operation, "kind", rec.Kind, "err", rec.Message)
}

// ── Redis ────────────────────────────────────────────────────────────────────

// RedisSink publishes records for other services to pick up.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

// NewRedisSink publishes on FailureChannel.
func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb, channel: FailureChannel}
}

func (s *RedisSink) Report(ctx context.Context, rec Record) {
	event, _ := json.Marshal(map[string]string{
		"type":      FailureChannel,
		"id":        rec.ID.String(),
		"operation": rec.Operation,
		"kind":      rec.Kind,
		"message":   rec.Message,
		"time":      rec.Time.Format(time.RFC3339Nano),
	})
	if err := s.rdb.Publish(ctx, s.channel, event).Err(); err != nil {
		slog.Warn("publish "+s.channel+" failed", "err", err)
	}
}

// ── Postgres ─────────────────────────────────────────────────────────────────

// PostgresSink appends records to the dashboard_diagnostics table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// EnsureSchema creates the diagnostics table if it is missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS dashboard_diagnostics (
		   id          UUID PRIMARY KEY,
		   operation   TEXT NOT NULL,
		   kind        TEXT NOT NULL,
		   message     TEXT NOT NULL,
		   occurred_at TIMESTAMPTZ NOT NULL
		 )`)
	if err != nil {
		return fmt.Errorf("ensure dashboard_diagnostics: %w", err)
	}
	return nil
}

func (s *PostgresSink) Report(ctx context.Context, rec Record) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dashboard_diagnostics (id, operation, kind, message, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID.String(), rec.Operation, rec.Kind, rec.Message, rec.Time,
	)
	if err != nil {
		slog.Warn("insert dashboard_diagnostics failed", "op", rec.Operation, "err", err)
	}
}

// ── SQLite ───────────────────────────────────────────────────────────────────

// SQLiteSink keeps a local journal that survives restarts.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink creates the journal table on db if needed.
func NewSQLiteSink(ctx context.Context, db *sql.DB) (*SQLiteSink, error) {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS diagnostics (
  id TEXT PRIMARY KEY,
  operation TEXT NOT NULL,
  kind TEXT NOT NULL,
  message TEXT NOT NULL,
  occurred_at INTEGER NOT NULL
);
`); err != nil {
		return nil, fmt.Errorf("create diagnostics table: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Report(ctx context.Context, rec Record) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO diagnostics (id, operation, kind, message, occurred_at)
         VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Operation, rec.Kind, rec.Message, rec.Time.UnixMilli(),
	)
	if err != nil {
		slog.Warn("insert diagnostics failed", "op", rec.Operation, "err", err)
	}
}

// Recent returns up to limit records, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, kind, message, occurred_at
           FROM diagnostics ORDER BY occurred_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			id, op, kind, msg string
			occurredMs        int64
		)
		if err := rows.Scan(&id, &op, &kind, &msg, &occurredMs); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("diagnostic id %q: %w", id, err)
		}
		out = append(out, Record{
			ID:        parsed,
			Operation: op,
			Kind:      kind,
			Message:   msg,
			Time:      time.UnixMilli(occurredMs).UTC(),
		})
	}
	return out, rows.Err()
}
