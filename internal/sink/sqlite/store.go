// Package sqlite persists flushed battle aggregates in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/skirmish/internal/aggregate"
	"github.com/louisbranch/skirmish/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/skirmish/internal/sink/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var errNotConfigured = errors.New("storage is not configured")

// Store provides SQLite-backed aggregate persistence. Rows are keyed by run
// id so several batches can share one database file.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ForRun returns a sink writing snapshots under runID.
func (s *Store) ForRun(runID string) *RunSink {
	return &RunSink{store: s, runID: strings.TrimSpace(runID)}
}

// RunSink is an aggregate.Sink bound to one run id.
type RunSink struct {
	store *Store
	runID string
}

// Write implements aggregate.Sink.
func (r *RunSink) Write(ctx context.Context, snapshot aggregate.Snapshot) error {
	return r.store.WriteSnapshot(ctx, r.runID, snapshot)
}

// WriteSnapshot stores one summary row and adds the histogram counts to the
// run's existing buckets, in a single transaction.
func (s *Store) WriteSnapshot(ctx context.Context, runID string, snapshot aggregate.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	summary := snapshot.Summary
	if _, err := tx.ExecContext(ctx, `
INSERT INTO battle_summaries (
	run_id,
	arena_id,
	battle_count,
	total_turns,
	max_turns,
	created_at
) VALUES (?, ?, ?, ?, ?, ?)
`,
		runID,
		summary.Arena,
		summary.Battles,
		summary.TotalTurns,
		summary.MaxTurns,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	for _, entry := range snapshot.Histogram {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO battle_histogram (run_id, arena_id, turns_run, winner_label, battle_count)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (run_id, arena_id, turns_run, winner_label)
DO UPDATE SET battle_count = battle_count + excluded.battle_count
`,
			runID,
			summary.Arena,
			entry.Turns,
			entry.Label,
			entry.Count,
		); err != nil {
			return fmt.Errorf("upsert histogram: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ListSummaries returns one merged summary per arena for runID, ordered by
// arena id.
func (s *Store) ListSummaries(ctx context.Context, runID string) ([]aggregate.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, errNotConfigured
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	arena_id,
	SUM(battle_count),
	SUM(total_turns),
	MAX(max_turns)
FROM battle_summaries
WHERE run_id = ?
GROUP BY arena_id
ORDER BY arena_id
`, runID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []aggregate.Summary
	for rows.Next() {
		var summary aggregate.Summary
		if err := rows.Scan(&summary.Arena, &summary.Battles, &summary.TotalTurns, &summary.MaxTurns); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

// HistogramTotals returns the run's histogram summed across arenas, ordered
// by turns then label.
func (s *Store) HistogramTotals(ctx context.Context, runID string) ([]aggregate.HistogramEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, errNotConfigured
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT turns_run, winner_label, SUM(battle_count)
FROM battle_histogram
WHERE run_id = ?
GROUP BY turns_run, winner_label
ORDER BY turns_run, winner_label
`, runID)
	if err != nil {
		return nil, fmt.Errorf("histogram totals: %w", err)
	}
	defer rows.Close()

	var entries []aggregate.HistogramEntry
	for rows.Next() {
		var entry aggregate.HistogramEntry
		if err := rows.Scan(&entry.Turns, &entry.Label, &entry.Count); err != nil {
			return nil, fmt.Errorf("scan histogram: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate histogram: %w", err)
	}
	return entries, nil
}

var _ aggregate.Sink = (*RunSink)(nil)
