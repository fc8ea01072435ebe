package pagemeta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfgear/backend/internal/domain"
)

var testIdentifier = domain.ProductIdentifier{ASIN: "B0C4YZ1234", Marketplace: "US"}

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	scraper := NewScraper(5 * time.Second)
	scraper.SetBaseURL(server.URL)
	return scraper
}

func TestTryFetchOpenGraphTags(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dp/B0C4YZ1234", r.URL.Path)
		fmt.Fprint(w, `<html><head>
			<meta property="og:title" content="Wireless Gaming Mouse">
			<meta property="og:description" content="63 gram wireless mouse">
			<meta property="og:image" content="https://img.example.com/p.jpg">
			<title>page title that should lose</title>
		</head><body></body></html>`)
	})

	meta, err := scraper.TryFetch(context.Background(), testIdentifier)
	require.NoError(t, err)

	assert.Equal(t, "Wireless Gaming Mouse", meta.Title)
	assert.Equal(t, "63 gram wireless mouse", meta.Description)
	assert.Equal(t, "https://img.example.com/p.jpg", meta.ImageURL)
	assert.Equal(t, ProviderName, meta.Provider)
	assert.Equal(t, testIdentifier, meta.Identifier)
}

func TestTryFetchElementFallbacks(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<meta name="description" content="fallback description">
		</head><body>
			<span id="productTitle">  Mechanical Keyboard TKL  </span>
			<img id="landingImage" src="https://img.example.com/k.jpg">
		</body></html>`)
	})

	meta, err := scraper.TryFetch(context.Background(), testIdentifier)
	require.NoError(t, err)

	assert.Equal(t, "Mechanical Keyboard TKL", meta.Title)
	assert.Equal(t, "fallback description", meta.Description)
	assert.Equal(t, "https://img.example.com/k.jpg", meta.ImageURL)
}

func TestTryFetchBotCheck(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "robot check title",
			body: `<html><head><title>Robot Check</title></head><body></body></html>`,
		},
		{
			name: "captcha form",
			body: `<html><head><title>Something went wrong</title></head>
				<body><form action="/errors/validateCaptcha" method="get"></form></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := scraper.TryFetch(context.Background(), testIdentifier)
			assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
		})
	}
}

func TestTryFetchEmptyPage(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head></head><body></body></html>`)
	})

	_, err := scraper.TryFetch(context.Background(), testIdentifier)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestTryFetchNonOKStatus(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := scraper.TryFetch(context.Background(), testIdentifier)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestTryFetchTransportFailure(t *testing.T) {
	scraper := NewScraper(500 * time.Millisecond)
	scraper.SetBaseURL("http://127.0.0.1:1")

	_, err := scraper.TryFetch(context.Background(), testIdentifier)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestTryFetchEmptyIdentifier(t *testing.T) {
	scraper := NewScraper(time.Second)

	_, err := scraper.TryFetch(context.Background(), domain.ProductIdentifier{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestPageURLUsesMarketplaceStorefront(t *testing.T) {
	scraper := NewScraper(time.Second)

	tests := []struct {
		marketplace string
		wantHost    string
	}{
		{"US", "www.amazon.com"},
		{"JP", "www.amazon.co.jp"},
		{"GB", "www.amazon.co.uk"},
		{"", "www.amazon.com"},
		{"XX", "www.amazon.com"},
	}

	for _, tt := range tests {
		id := domain.ProductIdentifier{ASIN: "B0C4YZ1234", Marketplace: tt.marketplace}
		assert.Equal(t, fmt.Sprintf("https://%s/dp/B0C4YZ1234", tt.wantHost), scraper.pageURL(id))
	}
}
