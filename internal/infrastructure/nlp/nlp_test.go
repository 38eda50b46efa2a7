package nlp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/stage"
)

const foxText = "The quick brown fox jumps over the lazy dog."

func TestFoxAndDog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	topics, err := stage.NewTopicStage(NewProseBackend()).Extract(ctx, foxText)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	for _, want := range []string{"fox", "dog"} {
		if !slices.Contains(topics.Terms, want) {
			t.Fatalf("expected %q among nouns %v", want, topics.Terms)
		}
	}
	if slices.Index(topics.Terms, "fox") > slices.Index(topics.Terms, "dog") {
		t.Fatalf("nouns not in source order: %v", topics.Terms)
	}

	score, err := stage.NewSentimentStage(NewVaderBackend()).Score(ctx, foxText)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	for name, v := range map[string]float64{"positive": score.Positive, "negative": score.Negative, "neutral": score.Neutral} {
		if v < 0 || v > 1 {
			t.Fatalf("%s score %f outside [0,1]", name, v)
		}
	}

	gen := stage.NewGenerationStage(stage.GenerationOptions{}, LeadGenerator{})
	if _, err := gen.Generate(ctx, foxText, "nonexistent-model"); !errors.Is(err, domain.ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestVaderDeterministic(t *testing.T) {
	t.Parallel()

	v := NewVaderBackend()
	a, _ := v.Score(context.Background(), "What a wonderful, happy day!")
	b, _ := v.Score(context.Background(), "What a wonderful, happy day!")
	if a != b {
		t.Fatalf("scores differ: %+v vs %+v", a, b)
	}
	if a.Positive <= a.Negative {
		t.Fatalf("expected positive text to score positive: %+v", a)
	}
}

func TestVaderUnavailable(t *testing.T) {
	t.Parallel()

	var v *VaderBackend
	if _, err := v.Score(context.Background(), "x"); !errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestLeadGeneratorRespectsBudget(t *testing.T) {
	t.Parallel()

	text := "Prices rose sharply this week. Analysts expect further gains. Retail investors remain cautious about the outlook."
	out, err := LeadGenerator{}.Generate(context.Background(), ports.GenerationRequest{Prompt: text, MaxTokens: 10})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "Prices rose sharply this week. Analysts expect further gains." {
		t.Fatalf("unexpected lead: %q", out)
	}
}

func TestProseBackendSharedAcrossGoroutines(t *testing.T) {
	t.Parallel()

	backend := NewProseBackend()
	want, err := backend.Nouns(context.Background(), foxText)
	if err != nil {
		t.Fatalf("Nouns returned error: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := backend.Nouns(context.Background(), foxText)
			if err != nil {
				errs <- err
				return
			}
			if !slices.Equal(got, want) {
				errs <- fmt.Errorf("nouns %v differ from %v", got, want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
