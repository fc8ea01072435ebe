package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shelfgear/backend/internal/domain"
)

// Store persists the curated catalog and per-actor collections in SQLite.
// It implements both domain.CatalogRepository and domain.CollectionRepository.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applyMigrations(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS catalog_entries (
            identifier  TEXT PRIMARY KEY,
            marketplace TEXT NOT NULL DEFAULT '',
            metadata    TEXT NOT NULL,
            attributes  TEXT,
            updated_at  TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS collection_entries (
            id          INTEGER PRIMARY KEY AUTOINCREMENT,
            actor_id    TEXT NOT NULL,
            identifier  TEXT NOT NULL,
            marketplace TEXT NOT NULL DEFAULT '',
            official    INTEGER NOT NULL DEFAULT 0,
            metadata    TEXT NOT NULL,
            attributes  TEXT,
            note        TEXT NOT NULL DEFAULT '',
            color       TEXT NOT NULL DEFAULT '',
            created_at  TEXT NOT NULL
        )`,
		// Final backstop for the identifier-per-actor rule; the orchestrator's
		// commit-time recheck is optimistic, this is atomic.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_collection_actor_identifier
            ON collection_entries (actor_id, identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_collection_identifier
            ON collection_entries (identifier)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// FindByIdentifier returns the catalog entry for the identifier, or nil when
// absent. Absence is not an error.
func (s *Store) FindByIdentifier(ctx context.Context, id domain.ProductIdentifier) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT identifier, marketplace, metadata, attributes, updated_at
           FROM catalog_entries WHERE identifier = ?`, id.Key())

	entry, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Upsert inserts or replaces the catalog entry.
func (s *Store) Upsert(ctx context.Context, entry *domain.CatalogEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	attributesJSON, err := marshalAttributes(entry.Attributes)
	if err != nil {
		return err
	}

	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catalog_entries (identifier, marketplace, metadata, attributes, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(identifier) DO UPDATE SET
            marketplace = excluded.marketplace,
            metadata    = excluded.metadata,
            attributes  = excluded.attributes,
            updated_at  = excluded.updated_at`,
		entry.Identifier.Key(),
		entry.Identifier.Marketplace,
		string(metadataJSON),
		attributesJSON,
		updatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}
	return nil
}

// List returns all catalog entries.
func (s *Store) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, marketplace, metadata, attributes, updated_at
           FROM catalog_entries ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// FindEntry returns the actor's collection entry for the identifier, or nil.
func (s *Store) FindEntry(ctx context.Context, actorID string, id domain.ProductIdentifier) (*domain.CollectionEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, actor_id, identifier, marketplace, official, metadata, attributes, note, color, created_at
           FROM collection_entries WHERE actor_id = ? AND identifier = ?`,
		actorID, id.Key())

	entry, err := scanCollectionEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CountOthers counts other actors' entries referencing the identifier.
func (s *Store) CountOthers(ctx context.Context, id domain.ProductIdentifier, excludingActor string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collection_entries WHERE identifier = ? AND actor_id != ?`,
		id.Key(), excludingActor).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count other entries: %w", err)
	}
	return count, nil
}

// SampleOthers returns up to limit of the oldest entries other actors hold
// for the identifier.
func (s *Store) SampleOthers(ctx context.Context, id domain.ProductIdentifier, excludingActor string, limit int) ([]domain.CollectionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, identifier, marketplace, official, metadata, attributes, note, color, created_at
           FROM collection_entries
          WHERE identifier = ? AND actor_id != ?
          ORDER BY created_at LIMIT ?`,
		id.Key(), excludingActor, limit)
	if err != nil {
		return nil, fmt.Errorf("sample other entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CollectionEntry
	for rows.Next() {
		entry, err := scanCollectionEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Create inserts a collection entry. The unique index on (actor_id,
// identifier) is the atomic uniqueness guarantee; a violation surfaces as
// domain.ErrDuplicateEntry.
func (s *Store) Create(ctx context.Context, entry *domain.CollectionEntry) (*domain.CollectionEntry, error) {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	attributesJSON, err := marshalAttributes(entry.Attributes)
	if err != nil {
		return nil, err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_entries
            (actor_id, identifier, marketplace, official, metadata, attributes, note, color, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ActorID,
		entry.Identifier.Key(),
		entry.Identifier.Marketplace,
		boolToInt(entry.Official),
		string(metadataJSON),
		attributesJSON,
		entry.Note,
		entry.Color,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s already held by actor %s", domain.ErrDuplicateEntry, entry.Identifier.Key(), entry.ActorID)
		}
		return nil, fmt.Errorf("insert collection entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	created := *entry
	created.ID = id
	created.CreatedAt = createdAt
	return &created, nil
}

// isUniqueViolation detects the SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalAttributes(attrs *domain.AttributeSet) (sql.NullString, error) {
	if attrs == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal attributes: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalAttributes(raw sql.NullString) (*domain.AttributeSet, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var attrs domain.AttributeSet
	if err := json.Unmarshal([]byte(raw.String), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return &attrs, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogEntry(row rowScanner) (*domain.CatalogEntry, error) {
	var (
		identifier  string
		marketplace string
		metadataRaw string
		attrsRaw    sql.NullString
		updatedAt   string
	)
	if err := row.Scan(&identifier, &marketplace, &metadataRaw, &attrsRaw, &updatedAt); err != nil {
		return nil, err
	}

	entry := &domain.CatalogEntry{
		Identifier: domain.ProductIdentifier{ASIN: identifier, Marketplace: marketplace},
	}
	if err := json.Unmarshal([]byte(metadataRaw), &entry.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	attrs, err := unmarshalAttributes(attrsRaw)
	if err != nil {
		return nil, err
	}
	entry.Attributes = attrs
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		entry.UpdatedAt = ts
	}
	return entry, nil
}

func scanCollectionEntry(row rowScanner) (*domain.CollectionEntry, error) {
	var (
		id          int64
		actorID     string
		identifier  string
		marketplace string
		official    int
		metadataRaw string
		attrsRaw    sql.NullString
		note        string
		color       string
		createdAt   string
	)
	if err := row.Scan(&id, &actorID, &identifier, &marketplace, &official, &metadataRaw, &attrsRaw, &note, &color, &createdAt); err != nil {
		return nil, err
	}

	entry := &domain.CollectionEntry{
		ID:         id,
		ActorID:    actorID,
		Identifier: domain.ProductIdentifier{ASIN: identifier, Marketplace: marketplace},
		Official:   official != 0,
		Note:       note,
		Color:      color,
	}
	if err := json.Unmarshal([]byte(metadataRaw), &entry.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	attrs, err := unmarshalAttributes(attrsRaw)
	if err != nil {
		return nil, err
	}
	entry.Attributes = attrs
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}
