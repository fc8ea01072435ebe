package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfgear/backend/config"
	"github.com/shelfgear/backend/internal/domain"
	"github.com/shelfgear/backend/internal/infrastructure/sqlite"
	"github.com/shelfgear/backend/internal/usecase"
)

// stubProvider is a scripted metadata provider for endpoint tests.
type stubProvider struct {
	name string
	err  error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) TryFetch(ctx context.Context, id domain.ProductIdentifier) (*domain.ProductMetadata, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &domain.ProductMetadata{
		Identifier: id,
		Title:      "Stub Product " + id.ASIN,
		ImageURL:   "https://img.example.com/" + id.ASIN + ".jpg",
	}, nil
}

func newTestRouter(t *testing.T, providers ...domain.MetadataProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "handler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if len(providers) == 0 {
		providers = []domain.MetadataProvider{&stubProvider{name: "stub"}}
	}

	service := usecase.NewIngestService(
		usecase.NewResolver(usecase.ResolverConfig{}),
		usecase.NewProviderChain(providers...),
		usecase.NewMatcher(store, store),
		store,
		store,
		usecase.IngestServiceConfig{RefreshWorkers: 2},
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"https://*.shelfgear.app"},
		},
	}

	return SetupRouter(cfg, NewHandler(service))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestPreviewEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/preview", gin.H{
		"url":     "https://www.amazon.com/dp/B0C4YZ1234?tag=partner-20",
		"actorId": "actor-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.PreviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, "B0C4YZ1234", result.Metadata.Identifier.ASIN)
	assert.Equal(t, "stub", result.Metadata.Provider)
	assert.False(t, result.Report.AlreadyOwned)
}

func TestPreviewEndpointSilentOnBadURL(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/preview", gin.H{
		"url":     "https://www.example.com/nothing-here",
		"actorId": "actor-1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["silent"], "unrecognizable URLs must be dropped client-side without a toast")
}

func TestPreviewEndpointProviderOutage(t *testing.T) {
	router := newTestRouter(t, &stubProvider{
		name: "stub",
		err:  fmt.Errorf("%w: upstream down", domain.ErrProviderUnavailable),
	})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/preview", gin.H{
		"url":     "https://www.amazon.com/dp/B0C4YZ1234",
		"actorId": "actor-1",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	failures, ok := body["providerFailures"].([]any)
	require.True(t, ok)
	assert.Len(t, failures, 1)
}

func TestPreviewEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/preview", gin.H{"url": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func commitBody(actorID string) gin.H {
	return gin.H{
		"actorId":     actorID,
		"asin":        "B0C4YZ1234",
		"marketplace": "US",
		"category":    "mouse",
		"attributes":  gin.H{"Connection": "Wireless"},
		"metadata": gin.H{
			"identifier": gin.H{"asin": "B0C4YZ1234", "marketplace": "US"},
			"title":      "Wireless Mouse",
			"imageUrl":   "https://img.example.com/m.jpg",
			"provider":   "stub",
		},
		"note":  "daily driver",
		"color": "black",
	}
}

func TestCommitEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/commit", commitBody("actor-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry domain.CollectionEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.NotZero(t, entry.ID)
	assert.Equal(t, "actor-1", entry.ActorID)
	assert.False(t, entry.Official)
}

func TestCommitEndpointDuplicate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/commit", commitBody("actor-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/ingest/commit", commitBody("actor-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Same product for a different actor still works.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/ingest/commit", commitBody("actor-2"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCommitEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/commit", gin.H{"actorId": "actor-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/catalog/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tally domain.RefreshTally
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tally))
	assert.Equal(t, 0, tally.SuccessCount)
	assert.Empty(t, tally.Failures)
}

func TestPreviewThenCommitFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/ingest/preview", gin.H{
		"url":     "https://www.amazon.com/dp/B0C4YZ1234",
		"actorId": "actor-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/ingest/commit", commitBody("actor-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// A second preview of the same URL reports ownership instead of failing.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/ingest/preview", gin.H{
		"url":     "https://www.amazon.com/dp/B0C4YZ1234",
		"actorId": "actor-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.PreviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Report.AlreadyOwned)
	assert.Equal(t, 0, result.Report.OtherOwnersCount)
}
