package llm

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxRetries = 3
	baseDelay  = 2 * time.Second
)

// callWithRetry throttles call and retries it with exponential backoff while
// the provider answers 429.
func callWithRetry(ctx context.Context, limiter *rate.Limiter, delay time.Duration, call func() (string, error)) (string, error) {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRateLimited(err) || i == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay * time.Duration(1<<i)):
		}
	}
	return "", lastErr
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func systemPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You rewrite news articles into short original pieces."
	}
	return prompt
}
