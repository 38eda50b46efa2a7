package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/report"
)

const (
	runsTable    = "pipeline_runs"
	resultsTable = "pipeline_results"
)

var ErrRunNotFound = errors.New("run not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists runs and their per-article records.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ResultSink = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *PostgresRepository) Name() string {
	return "postgres"
}

// Publish upserts the run and every record in one transaction.
func (r *PostgresRepository) Publish(ctx context.Context, run domain.Run) error {
	if r.db == nil {
		return nil
	}

	runQuery, runArgs, err := buildRunInsert(run)
	if err != nil {
		return err
	}
	resultsQuery, resultsArgs, err := buildResultsInsert(run.ID, report.NewDocument(run).Records)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, runQuery, runArgs...); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	if resultsQuery != "" {
		if _, err := tx.ExecContext(ctx, resultsQuery, resultsArgs...); err != nil {
			return fmt.Errorf("upsert results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// LoadRun reads a stored run back as a report document.
func (r *PostgresRepository) LoadRun(ctx context.Context, runID string) (report.Document, error) {
	if r.db == nil {
		return report.Document{}, fmt.Errorf("load run %s: %w", runID, ErrRunNotFound)
	}

	doc := report.Document{RunID: runID}

	query, args, err := psql.Select("site_url", "started_at").From(runsTable).Where(sq.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return report.Document{}, fmt.Errorf("build run query: %w", err)
	}
	var startedAt time.Time
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&doc.SiteURL, &startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Document{}, fmt.Errorf("load run %s: %w", runID, ErrRunNotFound)
		}
		return report.Document{}, fmt.Errorf("query run: %w", err)
	}
	doc.StartedAt = startedAt.UTC()

	query, args, err = buildResultsQuery(runID)
	if err != nil {
		return report.Document{}, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return report.Document{}, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	doc.Records = []report.Record{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return report.Document{}, fmt.Errorf("scan result: %w", err)
		}
		var rec report.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return report.Document{}, fmt.Errorf("decode result: %w", err)
		}
		doc.Records = append(doc.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return report.Document{}, fmt.Errorf("rows iteration: %w", err)
	}

	return doc, nil
}

func buildRunInsert(run domain.Run) (string, []interface{}, error) {
	query, args, err := psql.Insert(runsTable).
		Columns("run_id", "site_url", "started_at").
		Values(run.ID, run.SiteURL, run.StartedAt).
		Suffix("ON CONFLICT (run_id) DO NOTHING").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build run insert: %w", err)
	}
	return query, args, nil
}

// buildResultsInsert returns an empty query when there is nothing to write.
func buildResultsInsert(runID string, records []report.Record) (string, []interface{}, error) {
	if len(records) == 0 {
		return "", nil, nil
	}

	insert := psql.Insert(resultsTable).
		Columns("run_id", "position", "title", "author", "published_at", "payload", "failed_stages")
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return "", nil, fmt.Errorf("marshal record %d: %w", rec.Position, err)
		}
		failed := rec.FailedStages
		if failed == nil {
			failed = []string{}
		}
		insert = insert.Values(runID, rec.Position, rec.Title, rec.Author, rec.PublishedAt, string(payload), pq.StringArray(failed))
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (run_id, position) DO UPDATE SET payload = EXCLUDED.payload, failed_stages = EXCLUDED.failed_stages").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build results insert: %w", err)
	}
	return query, args, nil
}

func buildResultsQuery(runID string) (string, []interface{}, error) {
	query, args, err := psql.Select("payload").
		From(resultsTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build results query: %w", err)
	}
	return query, args, nil
}
