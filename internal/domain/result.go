package domain

import "time"

// Outcome is the resolved state of one Result field: a value or a failure.
// A zero Value with nil Err is a legitimate empty result.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Succeeded builds a successful outcome.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Failed builds a failed outcome tagged with its stage.
func Failed[T any](stage Stage, err error) Outcome[T] {
	return Outcome[T]{Err: NewStageError(stage, err)}
}

// Resolve turns a (value, error) pair into an outcome.
func Resolve[T any](stage Stage, v T, err error) Outcome[T] {
	if err != nil {
		return Failed[T](stage, err)
	}
	return Succeeded(v)
}

// OK reports whether the stage succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Result aggregates every stage output for one article.
type Result struct {
	Article      Article
	Sentiment    Outcome[SentimentScore]
	Topics       Outcome[TopicSet]
	Generated    Outcome[GeneratedContent]
	SEO          Outcome[SEOKeywords]
	Contacts     Outcome[ContactBundle]
	Outreach     Outcome[string]
	Monetization Outcome[MonetizationOffer]
}

// Failures lists stage errors in pipeline order.
func (r Result) Failures() []error {
	var errs []error
	for _, err := range []error{
		r.Sentiment.Err,
		r.Topics.Err,
		r.Generated.Err,
		r.SEO.Err,
		r.Contacts.Err,
		r.Outreach.Err,
		r.Monetization.Err,
	} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Run describes one pipeline execution over a site.
type Run struct {
	ID        string
	SiteURL   string
	StartedAt time.Time
	Results   []Result
}
