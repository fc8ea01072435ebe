package domain

import "time"

// ProductIdentifier is the canonical key for a product. Two URLs that resolve
// to the same identifier are the same product, regardless of tracking params,
// short-link indirection, or locale subdomain.
type ProductIdentifier struct {
	ASIN        string `json:"asin"`
	Marketplace string `json:"marketplace,omitempty"` // locale hint, e.g. "US", "JP"; not part of identity
}

// Key returns the string used for equality and store lookups.
func (id ProductIdentifier) Key() string {
	return id.ASIN
}

// IsZero reports whether the identifier is empty.
func (id ProductIdentifier) IsZero() bool {
	return id.ASIN == ""
}

// ProductMetadata is descriptive data for a product as returned by the
// provider chain. Title and ImageURL are always non-empty by the time the
// chain returns (a placeholder image is substituted, never an empty string).
type ProductMetadata struct {
	Identifier    ProductIdentifier `json:"identifier"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	ImageURL      string            `json:"imageUrl"`
	Provider      string            `json:"provider"` // name of the provider that produced this
	Category      CategoryKind      `json:"category,omitempty"`
	RawAttributes map[string]string `json:"rawAttributes,omitempty"` // loose fragments for the normalizer
}

// CatalogEntry is a curated, shared product record keyed by identifier.
// It is not owned by any single actor.
type CatalogEntry struct {
	Identifier ProductIdentifier `json:"identifier"`
	Metadata   ProductMetadata   `json:"metadata"`
	Attributes *AttributeSet     `json:"attributes,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// CollectionEntry is an actor-owned reference to a product. When Official is
// true the entry points at the catalog record; otherwise Metadata and
// Attributes are a standalone snapshot owned by the actor.
type CollectionEntry struct {
	ID         int64             `json:"id"`
	ActorID    string            `json:"actorId"`
	Identifier ProductIdentifier `json:"identifier"`
	Official   bool              `json:"official"`
	Metadata   ProductMetadata   `json:"metadata"`
	Attributes *AttributeSet     `json:"attributes,omitempty"`
	Note       string            `json:"note,omitempty"`
	Color      string            `json:"color,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// MatchReport is the result of cross-referencing an identifier against the
// catalog and collection stores. Computed fresh on every preview, never
// persisted. Advisory except AlreadyOwned, which is re-checked at commit.
type MatchReport struct {
	Catalog           *CatalogEntry     `json:"catalog,omitempty"`
	OtherOwnersCount  int               `json:"otherOwnersCount"`
	OtherOwnersSample []CollectionEntry `json:"otherOwnersSample,omitempty"`
	AlreadyOwned      bool              `json:"alreadyOwned"`
}

// PreviewResult is returned by the ingestion orchestrator for a URL that
// resolved and fetched cleanly. AlreadyOwned=true is a normal preview, not an
// error; the UI explains it instead of failing.
type PreviewResult struct {
	Metadata   ProductMetadata `json:"metadata"`
	Report     MatchReport     `json:"report"`
	Attributes *AttributeSet   `json:"attributes,omitempty"`
}

// RefreshFailure records one catalog entry that could not be refreshed.
type RefreshFailure struct {
	Identifier ProductIdentifier `json:"identifier"`
	Reason     string            `json:"reason"`
}

// RefreshTally summarizes a batch refresh. Partial success is expected;
// failures are reported per item, never retried automatically.
type RefreshTally struct {
	SuccessCount int              `json:"successCount"`
	Failures     []RefreshFailure `json:"failures,omitempty"`
}
