package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCapabilityUnavailable    = errors.New("capability unavailable")
	ErrUnsupportedBackend       = errors.New("unsupported backend")
	ErrGenerationFailed         = errors.New("generation failed")
	ErrNoOpportunitiesAvailable = errors.New("no opportunities available")
	ErrFetchFailed              = errors.New("fetch failed")
	ErrDependencyFailed         = errors.New("upstream stage failed")
	ErrEmptyTemplate            = errors.New("empty message template")
)

// Stage names a pipeline step.
type Stage string

const (
	StageSentiment    Stage = "sentiment"
	StageTopics       Stage = "topics"
	StageGeneration   Stage = "generation"
	StageSEO          Stage = "seo"
	StageContacts     Stage = "contacts"
	StageOutreach     Stage = "outreach"
	StageMonetization Stage = "monetization"
)

// StageError records which stage failed for an article.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err for the given stage; nil stays nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.Stage == stage {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
