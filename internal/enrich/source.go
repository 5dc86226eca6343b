// Package enrich provides nutrition data sources and quality scoring for
// the enrichment pipeline.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitstack/nutridb/internal/models"
)

// ErrorKind distinguishes failures worth retrying from dead ends.
type ErrorKind string

const (
	// Transient failures (timeouts, rate limits, server errors) requeue
	// the food with backoff.
	Transient ErrorKind = "transient"
	// Permanent failures (unknown food, malformed data) exhaust the item.
	Permanent ErrorKind = "permanent"
)

// SourceError is a classified failure from a nutrition data source.
type SourceError struct {
	Kind ErrorKind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source error: %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a retryable source failure.
func NewTransientError(err error) *SourceError {
	return &SourceError{Kind: Transient, Err: err}
}

// NewPermanentError wraps err as a non-retryable source failure.
func NewPermanentError(err error) *SourceError {
	return &SourceError{Kind: Permanent, Err: err}
}

// IsTransient reports whether err should be retried. Unclassified errors
// count as transient so an unexpected failure never permanently buries a
// food.
func IsTransient(err error) bool {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Kind == Transient
	}
	return true
}

// IsPermanent reports whether err is a dead end not worth retrying.
func IsPermanent(err error) bool {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Kind == Permanent
	}
	return false
}

// permanentPatterns are error message fragments that indicate retrying
// cannot help.
var permanentPatterns = []string{
	"not found",
	"404",
	"malformed",
	"invalid response",
	"unknown food",
}

// Classify wraps an unclassified error as a SourceError based on its
// message. Already classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range permanentPatterns {
		if strings.Contains(msg, pattern) {
			return NewPermanentError(err)
		}
	}
	return NewTransientError(err)
}

// FoodIdentity carries what a source needs to look a food up.
type FoodIdentity struct {
	ID    string
	Name  string
	Brand string
}

// Payload is the enrichment data a source returns for a food.
type Payload struct {
	Nutrients  models.Nutrients
	Provenance string
	// Confidence scales the quality score, 0.0 to 1.0.
	Confidence float64
}

// Source fetches nutrition data for a food from an external provider.
type Source interface {
	// Fetch looks the food up. Errors should be classified as
	// *SourceError; the worker treats anything else as transient.
	Fetch(ctx context.Context, food FoodIdentity) (*Payload, error)
	// Name identifies the source in logs and provenance fields.
	Name() string
}
