package catalogapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfgear/backend/internal/domain"
)

var testIdentifier = domain.ProductIdentifier{ASIN: "B0C4YZ1234", Marketplace: "US"}

func TestTryFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/products/B0C4YZ1234", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "US", r.URL.Query().Get("marketplace"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"asin": "B0C4YZ1234",
			"title": "  Wireless Gaming Mouse  ",
			"description": "A very light mouse",
			"imageUrl": "https://img.example.com/p.jpg",
			"category": "mouse",
			"attributes": {"Connection": "Wireless", "Weight": "63 g"}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)

	meta, err := client.TryFetch(context.Background(), testIdentifier)
	require.NoError(t, err)

	assert.Equal(t, testIdentifier, meta.Identifier)
	assert.Equal(t, "Wireless Gaming Mouse", meta.Title)
	assert.Equal(t, "A very light mouse", meta.Description)
	assert.Equal(t, "https://img.example.com/p.jpg", meta.ImageURL)
	assert.Equal(t, ProviderName, meta.Provider)
	assert.Equal(t, domain.CategoryMouse, meta.Category)
	assert.Equal(t, "Wireless", meta.RawAttributes["Connection"])
}

func TestTryFetchStatusMapsToUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"quota exceeded", http.StatusTooManyRequests},
		{"key rejected", http.StatusForbidden},
		{"server error", http.StatusInternalServerError},
		{"bad gateway", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient("test-key", server.URL)

			_, err := client.TryFetch(context.Background(), testIdentifier)
			assert.ErrorIs(t, err, domain.ErrProviderUnavailable,
				"remote failures must stay eligible for chain fallback")
		})
	}
}

func TestTryFetchTransportFailure(t *testing.T) {
	client := NewClient("test-key", "http://127.0.0.1:1")

	_, err := client.TryFetch(context.Background(), testIdentifier)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestTryFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": `))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)

	_, err := client.TryFetch(context.Background(), testIdentifier)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestTryFetchEmptyIdentifier(t *testing.T) {
	client := NewClient("test-key", "http://unused.example.com")

	_, err := client.TryFetch(context.Background(), domain.ProductIdentifier{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestProviderName(t *testing.T) {
	client := NewClient("test-key", "http://unused.example.com")
	assert.Equal(t, "catalog-api", client.Name())
}
