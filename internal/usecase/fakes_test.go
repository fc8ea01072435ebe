package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/shelfgear/backend/internal/domain"
)

// fakeCatalogRepo is an in-memory CatalogRepository for tests.
type fakeCatalogRepo struct {
	mu      sync.Mutex
	entries map[string]domain.CatalogEntry
	failAll bool
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{entries: make(map[string]domain.CatalogEntry)}
}

func (f *fakeCatalogRepo) FindByIdentifier(ctx context.Context, id domain.ProductIdentifier) (*domain.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("catalog store down")
	}
	entry, ok := f.entries[id.Key()]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *fakeCatalogRepo) Upsert(ctx context.Context, entry *domain.CatalogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return fmt.Errorf("catalog store down")
	}
	f.entries[entry.Identifier.Key()] = *entry
	return nil
}

func (f *fakeCatalogRepo) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("catalog store down")
	}
	entries := make([]domain.CatalogEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

// fakeCollectionRepo is an in-memory CollectionRepository. Create enforces
// the identifier-per-actor uniqueness atomically, like the real store.
type fakeCollectionRepo struct {
	mu      sync.Mutex
	entries []domain.CollectionEntry
	nextID  int64
	failAll bool
}

func newFakeCollectionRepo() *fakeCollectionRepo {
	return &fakeCollectionRepo{nextID: 1}
}

func (f *fakeCollectionRepo) FindEntry(ctx context.Context, actorID string, id domain.ProductIdentifier) (*domain.CollectionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("collection store down")
	}
	for _, entry := range f.entries {
		if entry.ActorID == actorID && entry.Identifier.Key() == id.Key() {
			found := entry
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeCollectionRepo) CountOthers(ctx context.Context, id domain.ProductIdentifier, excludingActor string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, fmt.Errorf("collection store down")
	}
	count := 0
	for _, entry := range f.entries {
		if entry.Identifier.Key() == id.Key() && entry.ActorID != excludingActor {
			count++
		}
	}
	return count, nil
}

func (f *fakeCollectionRepo) SampleOthers(ctx context.Context, id domain.ProductIdentifier, excludingActor string, limit int) ([]domain.CollectionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("collection store down")
	}
	var sample []domain.CollectionEntry
	for _, entry := range f.entries {
		if entry.Identifier.Key() == id.Key() && entry.ActorID != excludingActor {
			sample = append(sample, entry)
			if len(sample) == limit {
				break
			}
		}
	}
	return sample, nil
}

func (f *fakeCollectionRepo) Create(ctx context.Context, entry *domain.CollectionEntry) (*domain.CollectionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("collection store down")
	}
	for _, existing := range f.entries {
		if existing.ActorID == entry.ActorID && existing.Identifier.Key() == entry.Identifier.Key() {
			return nil, fmt.Errorf("%w: unique index", domain.ErrDuplicateEntry)
		}
	}
	created := *entry
	created.ID = f.nextID
	f.nextID++
	f.entries = append(f.entries, created)
	return &created, nil
}

// fakeProvider is a scripted MetadataProvider. Safe for concurrent use;
// refresh workers share one instance.
type fakeProvider struct {
	mu    sync.Mutex
	name  string
	meta  *domain.ProductMetadata
	err   error
	calls int
	// errByASIN lets one provider fail for specific identifiers only.
	errByASIN map[string]error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) TryFetch(ctx context.Context, id domain.ProductIdentifier) (*domain.ProductMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err, ok := p.errByASIN[id.ASIN]; ok {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.meta != nil {
		meta := *p.meta
		meta.Identifier = id
		return &meta, nil
	}
	return &domain.ProductMetadata{
		Identifier: id,
		Title:      "Test Product " + id.ASIN,
		ImageURL:   "https://img.example.com/" + id.ASIN + ".jpg",
	}, nil
}
