package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shelfgear/backend/internal/domain"
)

// Stage names the steps of one ingestion attempt, for logging and error
// context. An attempt moves Idle → Resolving → FetchingMetadata → Matching →
// PreviewReady, then Committing → Committed or Aborted.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageResolving        Stage = "resolving"
	StageFetchingMetadata Stage = "fetching_metadata"
	StageMatching         Stage = "matching"
	StagePreviewReady     Stage = "preview_ready"
	StageCommitting       Stage = "committing"
	StageCommitted        Stage = "committed"
	StageAborted          Stage = "aborted"
)

// IngestServiceConfig holds configuration for the ingestion orchestrator.
type IngestServiceConfig struct {
	RefreshWorkers int
}

// IngestService composes resolver, provider chain, normalizer and matcher
// into the preview/commit/refresh operations. It owns no retries: a failed
// external call surfaces to the caller, whose policy that is.
type IngestService struct {
	resolver       *Resolver
	chain          *ProviderChain
	matcher        *Matcher
	catalog        domain.CatalogRepository
	collection     domain.CollectionRepository
	refreshWorkers int
}

// NewIngestService creates the orchestrator with its dependencies.
func NewIngestService(
	resolver *Resolver,
	chain *ProviderChain,
	matcher *Matcher,
	catalog domain.CatalogRepository,
	collection domain.CollectionRepository,
	config IngestServiceConfig,
) *IngestService {
	workers := config.RefreshWorkers
	if workers <= 0 {
		workers = 4
	}

	return &IngestService{
		resolver:       resolver,
		chain:          chain,
		matcher:        matcher,
		catalog:        catalog,
		collection:     collection,
		refreshWorkers: workers,
	}
}

// Preview resolves a raw URL, fetches metadata through the provider chain,
// normalizes any attribute fragments best-effort, and cross-references the
// identifier. It has no side effects and is safe to abandon at any point.
// A resolver or provider failure short-circuits: there is no partial result.
// AlreadyOwned=true in the report is a normal preview, not an error.
func (s *IngestService) Preview(ctx context.Context, rawURL, actorID string) (*domain.PreviewResult, error) {
	if rawURL == "" || actorID == "" {
		return nil, domain.ErrInvalidRequest
	}

	log.Printf("[INGEST] %s: %q (actor %s)", StageResolving, rawURL, actorID)
	id, err := s.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	log.Printf("[INGEST] %s: %s", StageFetchingMetadata, id.Key())
	meta, err := s.chain.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	// Raw metadata rarely carries structured attributes, so this is strictly
	// best-effort: no category, no normalization.
	var attrs *domain.AttributeSet
	if meta.Category.Valid() && len(meta.RawAttributes) > 0 {
		normalized := Normalize(meta.Category, meta.RawAttributes)
		attrs = &normalized
	}

	log.Printf("[INGEST] %s: %s", StageMatching, id.Key())
	report, err := s.matcher.Match(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	log.Printf("[INGEST] %s: %s (alreadyOwned=%v, catalog=%v, others=%d)",
		StagePreviewReady, id.Key(), report.AlreadyOwned, report.Catalog != nil, report.OtherOwnersCount)

	return &domain.PreviewResult{
		Metadata:   *meta,
		Report:     *report,
		Attributes: attrs,
	}, nil
}

// CommitInput is the finalized selection the actor confirmed in the preview.
// Attributes are the loose form fragments as edited by the actor; they go
// through the normalizer again on the way in.
type CommitInput struct {
	ActorID        string
	Identifier     domain.ProductIdentifier
	Category       domain.CategoryKind
	Attributes     map[string]string
	Metadata       *domain.ProductMetadata
	AcceptOfficial bool
	Note           string
	Color          string
}

// Commit creates the actor's collection entry. It re-runs only the
// caller-owns-it check immediately before writing, closing the race window
// between preview and commit; a uniqueness violation reported by the store
// is treated identically. Once started it runs to a definite outcome.
func (s *IngestService) Commit(ctx context.Context, input CommitInput) (*domain.CollectionEntry, error) {
	if input.ActorID == "" || input.Identifier.IsZero() {
		return nil, domain.ErrInvalidRequest
	}

	log.Printf("[INGEST] %s: %s (actor %s)", StageCommitting, input.Identifier.Key(), input.ActorID)

	owned, err := s.matcher.AlreadyOwned(ctx, input.Identifier, input.ActorID)
	if err != nil {
		return nil, err
	}
	if owned {
		log.Printf("[INGEST] %s: %s duplicate for actor %s", StageAborted, input.Identifier.Key(), input.ActorID)
		return nil, domain.ErrDuplicateEntry
	}

	catalogEntry, err := s.catalog.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	entry := &domain.CollectionEntry{
		ActorID:    input.ActorID,
		Identifier: input.Identifier,
		Note:       input.Note,
		Color:      input.Color,
		CreatedAt:  time.Now().UTC(),
	}

	if catalogEntry != nil && input.AcceptOfficial {
		// Reference the curated record instead of snapshotting.
		entry.Official = true
		entry.Metadata = catalogEntry.Metadata
		entry.Attributes = catalogEntry.Attributes
	} else {
		if input.Metadata == nil {
			return nil, domain.ErrInvalidRequest
		}
		entry.Metadata = *input.Metadata
		if input.Category.Valid() {
			normalized := Normalize(input.Category, input.Attributes)
			entry.Attributes = &normalized
		}
	}

	created, err := s.collection.Create(ctx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			// Store-level uniqueness backstop fired: same outcome as the recheck.
			log.Printf("[INGEST] %s: %s duplicate at store level for actor %s",
				StageAborted, input.Identifier.Key(), input.ActorID)
			return nil, domain.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	log.Printf("[INGEST] %s: %s entry %d (official=%v)", StageCommitted, input.Identifier.Key(), created.ID, created.Official)
	return created, nil
}

// RefreshAll re-fetches metadata for every catalog entry independently and
// reports a per-item tally. One entry's provider failure never aborts the
// batch; failure isolation is the point. Nothing is retried automatically.
func (s *IngestService) RefreshAll(ctx context.Context) (*domain.RefreshTally, error) {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	type refreshResult struct {
		id      domain.ProductIdentifier
		failure error
	}

	jobs := make(chan domain.CatalogEntry, len(entries))
	results := make(chan refreshResult, len(entries))

	workers := s.refreshWorkers
	if workers > len(entries) {
		workers = len(entries)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- refreshResult{id: entry.Identifier, failure: s.refreshOne(ctx, entry)}
			}
		}()
	}

	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	tally := &domain.RefreshTally{}
	for result := range results {
		if result.failure != nil {
			log.Printf("[REFRESH] %s failed: %v", result.id.Key(), result.failure)
			tally.Failures = append(tally.Failures, domain.RefreshFailure{
				Identifier: result.id,
				Reason:     result.failure.Error(),
			})
			continue
		}
		tally.SuccessCount++
	}

	log.Printf("[REFRESH] Done: %d refreshed, %d failed", tally.SuccessCount, len(tally.Failures))
	return tally, nil
}

// refreshOne re-fetches and re-normalizes a single catalog entry.
func (s *IngestService) refreshOne(ctx context.Context, entry domain.CatalogEntry) error {
	meta, err := s.chain.Fetch(ctx, entry.Identifier)
	if err != nil {
		return err
	}

	entry.Metadata = *meta
	if meta.Category.Valid() && len(meta.RawAttributes) > 0 {
		normalized := Normalize(meta.Category, meta.RawAttributes)
		entry.Attributes = &normalized
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.catalog.Upsert(ctx, &entry); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return nil
}
