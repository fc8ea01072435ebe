package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProductURL is returned when a URL does not point at a known
	// marketplace product page. The UI treats this as a silent no-op.
	ErrInvalidProductURL = errors.New("not a recognizable product URL")

	// ErrUnresolvableLink is returned when a shortened link does not redirect
	// to a known marketplace host within the hop budget.
	ErrUnresolvableLink = errors.New("short link did not resolve to a marketplace")

	// ErrProviderUnavailable marks a provider failure that is eligible for
	// fallback to the next provider in the chain.
	ErrProviderUnavailable = errors.New("metadata provider unavailable")

	// ErrAllProvidersFailed is matched (via errors.Is) by the composite
	// AllProvidersError the chain returns when no provider succeeded.
	ErrAllProvidersFailed = errors.New("all metadata providers failed")

	// ErrDuplicateEntry is returned when the actor already holds a collection
	// entry for the identifier. Expected business outcome, not a bug.
	ErrDuplicateEntry = errors.New("item already in collection")

	// ErrStoreFailure is returned for opaque persistence failures.
	ErrStoreFailure = errors.New("store operation failed")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// ProviderFailure records one provider's failure inside the chain.
type ProviderFailure struct {
	Provider string
	Err      error
}

// AllProvidersError aggregates every sub-error from a failed chain run so
// callers can tell "quota exceeded" apart from "no metadata found" without
// retrying internally.
type AllProvidersError struct {
	Failures []ProviderFailure
}

func (e *AllProvidersError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return "all metadata providers failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrAllProvidersFailed) match the composite.
func (e *AllProvidersError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}
