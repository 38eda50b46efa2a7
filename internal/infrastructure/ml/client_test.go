package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

func TestClientScore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sentiment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing auth header")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["text"] != "good news" {
			t.Errorf("unexpected body %v (%v)", body, err)
		}
		w.Write([]byte(`{"pos":0.6,"neg":0.1,"neu":0.3,"compound":0.5}`))
	}))
	defer srv.Close()

	score, err := NewClient(srv.URL, "secret", 0, nil).Score(context.Background(), "good news")
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if score != (domain.SentimentScore{Positive: 0.6, Negative: 0.1, Neutral: 0.3}) {
		t.Fatalf("unexpected score %+v", score)
	}
}

func TestClientNouns(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nouns":["fox","dog"]}`))
	}))
	defer srv.Close()

	nouns, err := NewClient(srv.URL, "", 0, nil).Nouns(context.Background(), "The fox and the dog")
	if err != nil {
		t.Fatalf("Nouns returned error: %v", err)
	}
	if len(nouns) != 2 || nouns[0] != "fox" || nouns[1] != "dog" {
		t.Fatalf("unexpected nouns %v", nouns)
	}
}

func TestTextGenerator(t *testing.T) {
	t.Parallel()

	var params map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model      string         `json:"model"`
			Inputs     string         `json:"inputs"`
			Parameters map[string]any `json:"parameters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt2" || body.Inputs != "Once upon" {
			t.Errorf("unexpected request %+v", body)
		}
		params = body.Parameters
		w.Write([]byte(`[{"generated_text":"Once upon a time"}]`))
	}))
	defer srv.Close()

	seed := int64(3)
	gen := NewTextGenerator(NewClient(srv.URL, "", 0, nil), GPT2BackendName, "gpt2", 1024)
	out, err := gen.Generate(context.Background(), ports.GenerationRequest{Prompt: "Once upon", MaxTokens: 50, Seed: &seed})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "Once upon a time" {
		t.Fatalf("unexpected output %q", out)
	}
	if params["max_new_tokens"] != float64(50) || params["seed"] != float64(3) {
		t.Fatalf("unexpected parameters %v", params)
	}
	if gen.MaxInputTokens() != 1024 || gen.Name() != GPT2BackendName {
		t.Fatalf("unexpected generator metadata")
	}
}

func TestClientUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "", 0, nil).Score(context.Background(), "x"); !errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
	if _, err := NewClient("", "", 0, nil).Nouns(context.Background(), "x"); !errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable for missing endpoint, got %v", err)
	}
}

func TestClientBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0, nil).Score(context.Background(), "x")
	if err == nil || errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("expected plain error, got %v", err)
	}
}
