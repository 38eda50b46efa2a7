package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// Client talks to an external inference service for sentiment, noun
// extraction and text generation.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
}

var _ ports.SentimentBackend = (*Client)(nil)
var _ ports.TopicBackend = (*Client)(nil)

// NewClient creates a reusable HTTP client. A nil limiter disables throttling.
func NewClient(endpoint, apiKey string, timeout time.Duration, limiter *rate.Limiter) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

// Score requests VADER-style polarity scores.
func (c *Client) Score(ctx context.Context, text string) (domain.SentimentScore, error) {
	var resp struct {
		Pos float64 `json:"pos"`
		Neg float64 `json:"neg"`
		Neu float64 `json:"neu"`
	}
	if err := c.post(ctx, "/sentiment", map[string]any{"text": text}, &resp); err != nil {
		return domain.SentimentScore{}, err
	}
	return domain.SentimentScore{Positive: resp.Pos, Negative: resp.Neg, Neutral: resp.Neu}, nil
}

// Nouns requests common nouns in source order.
func (c *Client) Nouns(ctx context.Context, text string) ([]string, error) {
	var resp struct {
		Nouns []string `json:"nouns"`
	}
	if err := c.post(ctx, "/topics", map[string]any{"text": text, "pos": "NOUN"}, &resp); err != nil {
		return nil, err
	}
	return resp.Nouns, nil
}

// Complete runs a text-generation model and returns the generated text.
func (c *Client) Complete(ctx context.Context, model string, req ports.GenerationRequest) (string, error) {
	params := map[string]any{"return_full_text": true}
	if req.MaxTokens > 0 {
		params["max_new_tokens"] = req.MaxTokens
	}
	if req.Seed != nil {
		params["seed"] = *req.Seed
	}
	payload := map[string]any{
		"model":      model,
		"inputs":     req.Prompt,
		"parameters": params,
	}

	var resp []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := c.post(ctx, "/generate", payload, &resp); err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("model %s returned no generations", model)
	}
	return resp[0].GeneratedText, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if c == nil || c.http == nil || c.endpoint == "" {
		return fmt.Errorf("inference service not configured: %w", domain.ErrCapabilityUnavailable)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("do request: %w", ctx.Err())
		}
		return fmt.Errorf("do request: %w: %w", domain.ErrCapabilityUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%s%s returned %s: %w", c.endpoint, path, resp.Status, domain.ErrCapabilityUnavailable)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
