package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shelfgear/backend/internal/domain"
)

// PlaceholderImageURL is substituted whenever no provider yields a product
// image, so metadata leaving the chain never carries an empty image.
const PlaceholderImageURL = "https://static.shelfgear.app/img/placeholder-product.png"

// ProviderChain tries metadata providers strictly in priority order. Adding
// or reordering providers is a data change, not a code change.
type ProviderChain struct {
	providers []domain.MetadataProvider
}

// NewProviderChain creates a chain over the given providers. Order matters:
// the first provider is the primary source.
func NewProviderChain(providers ...domain.MetadataProvider) *ProviderChain {
	return &ProviderChain{providers: providers}
}

// Fetch returns the first successful provider result, tagged with the
// provider's name. A provider failing with ErrProviderUnavailable hands off
// to the next one; any other failure is terminal for the whole chain. When
// nothing succeeds, the returned AllProvidersError embeds every sub-error so
// callers can tell the failure modes apart without retrying.
//
// The chain holds no cache: freshness matters more than repeat-call cost,
// and callers that want caching own that decision.
func (c *ProviderChain) Fetch(ctx context.Context, id domain.ProductIdentifier) (*domain.ProductMetadata, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty identifier", domain.ErrInvalidRequest)
	}
	if len(c.providers) == 0 {
		return nil, &domain.AllProvidersError{}
	}

	var failures []domain.ProviderFailure
	for _, provider := range c.providers {
		meta, err := provider.TryFetch(ctx, id)
		if err == nil {
			meta.Provider = provider.Name()
			meta.Identifier = id
			finalizeMetadata(meta)
			return meta, nil
		}

		failures = append(failures, domain.ProviderFailure{Provider: provider.Name(), Err: err})

		if !errors.Is(err, domain.ErrProviderUnavailable) {
			// Hard failure: not eligible for fallback.
			break
		}
		log.Printf("[CHAIN] Provider %s unavailable for %s, falling through: %v", provider.Name(), id.Key(), err)
	}

	return nil, &domain.AllProvidersError{Failures: failures}
}

// finalizeMetadata enforces the chain's output invariant: non-empty title and
// image on every record it hands downstream.
func finalizeMetadata(meta *domain.ProductMetadata) {
	if meta.Title == "" {
		meta.Title = meta.Identifier.Key()
	}
	if meta.ImageURL == "" {
		meta.ImageURL = PlaceholderImageURL
	}
}
