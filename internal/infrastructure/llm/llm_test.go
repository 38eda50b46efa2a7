package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	cohere "github.com/cohere-ai/cohere-go/v2"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

type fakeChat struct {
	calls    int
	failures int
	messages []*schema.Message
	opts     *model.Options
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.messages = input
	f.opts = model.GetCommonOptions(nil, opts...)
	if f.calls <= f.failures {
		return nil, errors.New("error, status code: 429, message: Too Many Requests")
	}
	return &schema.Message{Role: schema.Assistant, Content: "  rewritten article  "}, nil
}

func TestOpenAIGenerator(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{failures: 1}
	gen := newOpenAIGenerator(chat, "", nil)
	gen.retryDelay = 0

	out, err := gen.Generate(context.Background(), ports.GenerationRequest{Prompt: "body", MaxTokens: 120})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "rewritten article" {
		t.Fatalf("unexpected output %q", out)
	}
	if chat.calls != 2 {
		t.Fatalf("expected one retry after 429, got %d calls", chat.calls)
	}
	if len(chat.messages) != 2 || chat.messages[0].Role != schema.System || chat.messages[1].Content != "body" {
		t.Fatalf("unexpected messages %+v", chat.messages)
	}
	if chat.opts.MaxTokens == nil || *chat.opts.MaxTokens != 120 {
		t.Fatalf("max tokens not forwarded")
	}
}

func TestOpenAIGeneratorMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAIGenerator(context.Background(), config.OpenAIConfig{Model: "gpt-4o-mini"}, nil)
	if !errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestCohereGenerator(t *testing.T) {
	t.Parallel()

	var got *cohere.ChatRequest
	chat := func(_ context.Context, req *cohere.ChatRequest) (*cohere.NonStreamedChatResponse, error) {
		got = req
		return &cohere.NonStreamedChatResponse{Text: "summary"}, nil
	}
	seed := int64(11)
	gen := newCohereGenerator(chat, "command-r", "", nil)

	out, err := gen.Generate(context.Background(), ports.GenerationRequest{Prompt: "body", MaxTokens: 50, Seed: &seed})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "summary" {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Message != "body" || *got.Model != "command-r" || *got.MaxTokens != 50 || *got.Seed != 11 {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCohereGeneratorDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	chat := func(context.Context, *cohere.ChatRequest) (*cohere.NonStreamedChatResponse, error) {
		calls++
		return nil, errors.New("invalid api token")
	}
	gen := newCohereGenerator(chat, "", "", nil)
	gen.retryDelay = 0

	if _, err := gen.Generate(context.Background(), ports.GenerationRequest{Prompt: "x"}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
