package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfgear/backend/internal/domain"
	"github.com/shelfgear/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	ingestService *usecase.IngestService
}

// NewHandler creates a new HTTP handler.
func NewHandler(ingestService *usecase.IngestService) *Handler {
	return &Handler{ingestService: ingestService}
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelfgear-backend",
		"version": "1.0.0",
	})
}

// previewRequest is the body for POST /ingest/preview.
type previewRequest struct {
	URL     string `json:"url" binding:"required"`
	ActorID string `json:"actorId" binding:"required"`
}

// PreviewProduct resolves a product URL and returns the preview result.
// An unrecognizable URL is flagged silent: the client drops it without a
// toast, unlike provider or store failures.
func (h *Handler) PreviewProduct(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and actorId are required"})
		return
	}

	result, err := h.ingestService.Preview(c.Request.Context(), req.URL, req.ActorID)
	if err != nil {
		h.renderPreviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// renderPreviewError maps pipeline failures onto responses.
func (h *Handler) renderPreviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidProductURL):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "silent": true})
	case errors.Is(err, domain.ErrUnresolvableLink):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAllProvidersFailed):
		body := gin.H{"error": err.Error()}
		var composite *domain.AllProvidersError
		if errors.As(err, &composite) {
			failures := make([]gin.H, 0, len(composite.Failures))
			for _, f := range composite.Failures {
				failures = append(failures, gin.H{"provider": f.Provider, "reason": f.Err.Error()})
			}
			body["providerFailures"] = failures
		}
		c.JSON(http.StatusBadGateway, body)
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "preview failed"})
	}
}

// commitRequest is the body for POST /ingest/commit.
type commitRequest struct {
	ActorID        string                  `json:"actorId" binding:"required"`
	ASIN           string                  `json:"asin" binding:"required"`
	Marketplace    string                  `json:"marketplace"`
	Category       string                  `json:"category"`
	Attributes     map[string]string       `json:"attributes"`
	Metadata       *domain.ProductMetadata `json:"metadata"`
	AcceptOfficial bool                    `json:"acceptOfficial"`
	Note           string                  `json:"note"`
	Color          string                  `json:"color"`
}

// CommitProduct creates the actor's collection entry from a confirmed preview.
func (h *Handler) CommitProduct(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actorId and asin are required"})
		return
	}

	entry, err := h.ingestService.Commit(c.Request.Context(), usecase.CommitInput{
		ActorID:        req.ActorID,
		Identifier:     domain.ProductIdentifier{ASIN: req.ASIN, Marketplace: req.Marketplace},
		Category:       domain.CategoryKind(req.Category),
		Attributes:     req.Attributes,
		Metadata:       req.Metadata,
		AcceptOfficial: req.AcceptOfficial,
		Note:           req.Note,
		Color:          req.Color,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "commit failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// RefreshCatalog re-fetches metadata for every catalog entry and returns the
// per-item tally. Partial failure is a normal outcome, not an error status.
func (h *Handler) RefreshCatalog(c *gin.Context) {
	tally, err := h.ingestService.RefreshAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, tally)
}
