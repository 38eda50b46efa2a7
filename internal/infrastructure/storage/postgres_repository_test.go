package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/report"
)

func TestBuildRunInsert(t *testing.T) {
	t.Parallel()

	run := domain.Run{ID: "3f1c", SiteURL: "https://news.example.com", StartedAt: time.Unix(0, 0).UTC()}
	query, args, err := buildRunInsert(run)
	if err != nil {
		t.Fatalf("buildRunInsert returned error: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO pipeline_runs (run_id,site_url,started_at) VALUES ($1,$2,$3)") {
		t.Fatalf("unexpected query %s", query)
	}
	if !strings.HasSuffix(query, "ON CONFLICT (run_id) DO NOTHING") {
		t.Fatalf("missing conflict clause: %s", query)
	}
	if len(args) != 3 || args[0] != "3f1c" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildResultsInsert(t *testing.T) {
	t.Parallel()

	records := []report.Record{
		{Position: 0, Title: "a"},
		{Position: 1, Title: "b", FailedStages: []string{"seo"}},
	}
	query, args, err := buildResultsInsert("run-1", records)
	if err != nil {
		t.Fatalf("buildResultsInsert returned error: %v", err)
	}
	if !strings.Contains(query, "VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)") {
		t.Fatalf("unexpected placeholders: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (run_id, position) DO UPDATE") {
		t.Fatalf("missing upsert clause: %s", query)
	}
	if len(args) != 14 {
		t.Fatalf("expected 14 args, got %d", len(args))
	}
	if payload, ok := args[5].(string); !ok || !strings.Contains(payload, `"title":"a"`) {
		t.Fatalf("payload should be record json, got %v", args[5])
	}
	if failed, ok := args[13].(pq.StringArray); !ok || len(failed) != 1 || failed[0] != "seo" {
		t.Fatalf("unexpected failed stages arg %v", args[13])
	}
	if failed, ok := args[6].(pq.StringArray); !ok || failed == nil {
		t.Fatalf("empty failed stages should be a non-nil array, got %#v", args[6])
	}
}

func TestBuildResultsInsertEmpty(t *testing.T) {
	t.Parallel()

	query, args, err := buildResultsInsert("run-1", nil)
	if err != nil || query != "" || args != nil {
		t.Fatalf("expected no statement, got %q %v %v", query, args, err)
	}
}

func TestBuildResultsQuery(t *testing.T) {
	t.Parallel()

	query, args, err := buildResultsQuery("run-1")
	if err != nil {
		t.Fatalf("buildResultsQuery returned error: %v", err)
	}
	if query != "SELECT payload FROM pipeline_results WHERE run_id = $1 ORDER BY position" {
		t.Fatalf("unexpected query %s", query)
	}
	if len(args) != 1 || args[0] != "run-1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestRepositoryWithoutDB(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	if err := repo.Publish(context.Background(), domain.Run{ID: "x"}); err != nil {
		t.Fatalf("Publish without db should be a no-op, got %v", err)
	}
	if _, err := repo.LoadRun(context.Background(), "x"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
