package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shelfgear/backend/internal/domain"
)

// otherOwnersSampleSize bounds the sample of other actors' entries included
// in a match report.
const otherOwnersSampleSize = 3

// Matcher cross-references an identifier against the catalog, the caller's
// own collection, and other actors' collections. It performs no writes and is
// safe to call repeatedly and concurrently.
type Matcher struct {
	catalog    domain.CatalogRepository
	collection domain.CollectionRepository
}

// NewMatcher creates a matcher over the two stores.
func NewMatcher(catalog domain.CatalogRepository, collection domain.CollectionRepository) *Matcher {
	return &Matcher{catalog: catalog, collection: collection}
}

// Match runs the three lookups and classifies the situation. Absence of data
// is a valid report, not a failure; only infrastructure errors surface, as
// ErrStoreFailure.
func (m *Matcher) Match(ctx context.Context, id domain.ProductIdentifier, actorID string) (*domain.MatchReport, error) {
	if id.IsZero() || actorID == "" {
		return nil, domain.ErrInvalidRequest
	}

	report := &domain.MatchReport{}

	catalogEntry, err := m.catalog.FindByIdentifier(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog lookup: %v", domain.ErrStoreFailure, err)
	}
	report.Catalog = catalogEntry

	own, err := m.collection.FindEntry(ctx, actorID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: own-collection lookup: %v", domain.ErrStoreFailure, err)
	}
	report.AlreadyOwned = own != nil

	count, err := m.collection.CountOthers(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: other-owners count: %v", domain.ErrStoreFailure, err)
	}
	report.OtherOwnersCount = count

	if count > 0 {
		sample, err := m.collection.SampleOthers(ctx, id, actorID, otherOwnersSampleSize)
		if err != nil {
			return nil, fmt.Errorf("%w: other-owners sample: %v", domain.ErrStoreFailure, err)
		}
		report.OtherOwnersSample = sample
	}

	return report, nil
}

// AlreadyOwned re-runs only the caller-owns-it check. The orchestrator uses
// this immediately before a write to close the preview/commit race window.
func (m *Matcher) AlreadyOwned(ctx context.Context, id domain.ProductIdentifier, actorID string) (bool, error) {
	own, err := m.collection.FindEntry(ctx, actorID, id)
	if err != nil {
		return false, fmt.Errorf("%w: own-collection recheck: %v", domain.ErrStoreFailure, err)
	}
	return own != nil, nil
}

// IsStoreFailure reports whether err is an infrastructure store failure as
// opposed to a business-level outcome.
func IsStoreFailure(err error) bool {
	return errors.Is(err, domain.ErrStoreFailure)
}
