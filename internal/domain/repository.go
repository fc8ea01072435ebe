package domain

import "context"

// MetadataProvider is one source in the fallback chain. TryFetch returns a
// metadata record for the identifier or an error; wrap ErrProviderUnavailable
// to signal that the next provider should be tried.
type MetadataProvider interface {
	Name() string
	TryFetch(ctx context.Context, id ProductIdentifier) (*ProductMetadata, error)
}

// CatalogRepository is the curated catalog store.
type CatalogRepository interface {
	FindByIdentifier(ctx context.Context, id ProductIdentifier) (*CatalogEntry, error)
	Upsert(ctx context.Context, entry *CatalogEntry) error
	List(ctx context.Context) ([]CatalogEntry, error)
}

// CollectionRepository is the per-actor collection store. Create must enforce
// identifier-per-actor uniqueness atomically and return ErrDuplicateEntry on
// violation; the orchestrator treats that identically to its own recheck.
type CollectionRepository interface {
	FindEntry(ctx context.Context, actorID string, id ProductIdentifier) (*CollectionEntry, error)
	CountOthers(ctx context.Context, id ProductIdentifier, excludingActor string) (int, error)
	SampleOthers(ctx context.Context, id ProductIdentifier, excludingActor string, limit int) ([]CollectionEntry, error)
	Create(ctx context.Context, entry *CollectionEntry) (*CollectionEntry, error)
}
