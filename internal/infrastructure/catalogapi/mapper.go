package catalogapi

import (
	"strings"

	"github.com/shelfgear/backend/internal/domain"
)

// productPayload is the wire shape of one product record from the API.
type productPayload struct {
	ASIN        string            `json:"asin"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Category    string            `json:"category,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// mapToMetadata converts a wire payload into the domain metadata model.
// Attribute fragments stay untyped here; the normalizer owns coercion.
func mapToMetadata(id domain.ProductIdentifier, payload *productPayload) *domain.ProductMetadata {
	return &domain.ProductMetadata{
		Identifier:    id,
		Title:         strings.TrimSpace(payload.Title),
		Description:   strings.TrimSpace(payload.Description),
		ImageURL:      strings.TrimSpace(payload.ImageURL),
		Provider:      ProviderName,
		Category:      mapCategory(payload.Category),
		RawAttributes: payload.Attributes,
	}
}

// mapCategory translates the API's category labels into our category kinds.
// Unknown labels map to the zero value; preview normalization is skipped for
// those rather than guessed.
func mapCategory(label string) domain.CategoryKind {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "mouse", "mice", "pointing-device", "pointing_device":
		return domain.CategoryMouse
	case "keyboard", "keyboards", "input-device", "input_device":
		return domain.CategoryKeyboard
	default:
		return ""
	}
}
