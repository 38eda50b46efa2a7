package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/infrastructure/storage"
	"ContentPipeline/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExecutor struct {
	run domain.Run
	err error
}

func (f fakeExecutor) Execute(ctx context.Context, siteURL string) (domain.Run, error) {
	run := f.run
	run.SiteURL = siteURL
	return run, f.err
}

type fakeStore map[string]report.Document

func (f fakeStore) LoadRun(ctx context.Context, id string) (report.Document, error) {
	doc, ok := f[id]
	if !ok {
		return report.Document{}, fmt.Errorf("load run %s: %w", id, storage.ErrRunNotFound)
	}
	return doc, nil
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateRun(t *testing.T) {
	t.Parallel()

	exec := fakeExecutor{run: domain.Run{ID: "run-1", Results: []domain.Result{
		{Article: domain.Article{Title: "One"}},
	}}}
	r := NewRouter(exec, nil, nil)

	rec := do(r, http.MethodPost, "/api/runs", `{"siteUrl":"https://news.example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID != "run-1" || len(resp.Records) != 1 || resp.Records[0].Title != "One" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", resp.Warnings)
	}
}

func TestCreateRunPartialReportsWarning(t *testing.T) {
	t.Parallel()

	exec := fakeExecutor{
		run: domain.Run{ID: "run-2", Results: []domain.Result{{}}},
		err: errors.New("publish to kafka: broker down"),
	}
	rec := do(NewRouter(exec, nil, nil), http.MethodPost, "/api/runs", `{"siteUrl":"https://news.example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "broker down") {
		t.Fatalf("expected warning in body: %s", rec.Body.String())
	}
}

func TestCreateRunErrors(t *testing.T) {
	t.Parallel()

	fetchErr := fmt.Errorf("scrape: %w", domain.ErrFetchFailed)
	cases := []struct {
		name string
		exec RunExecutor
		body string
		want int
	}{
		{"missing body", fakeExecutor{}, `{}`, http.StatusBadRequest},
		{"relative url", fakeExecutor{}, `{"siteUrl":"news"}`, http.StatusBadRequest},
		{"fetch failed", fakeExecutor{err: fetchErr}, `{"siteUrl":"https://x.example"}`, http.StatusBadGateway},
		{"other failure", fakeExecutor{err: errors.New("boom")}, `{"siteUrl":"https://x.example"}`, http.StatusInternalServerError},
		{"no executor", nil, `{"siteUrl":"https://x.example"}`, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := do(NewRouter(tc.exec, nil, nil), http.MethodPost, "/api/runs", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	store := fakeStore{"abc": {RunID: "abc", SiteURL: "https://news.example.com"}}
	r := NewRouter(nil, store, nil)

	rec := do(r, http.MethodGet, "/api/runs/abc", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"abc"`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodGet, "/api/runs/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(NewRouter(nil, nil, nil), http.MethodGet, "/api/runs/abc", ""); rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without store, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	if rec := do(NewRouter(nil, nil, nil), http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
