package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"propsearch/internal/model"
	"propsearch/internal/retriever"

	"github.com/gin-gonic/gin"
)

// Searcher is the search surface the HTTP layer depends on. Both the
// in-process service and the remote network client satisfy it.
type Searcher interface {
	Ready() bool
	Search(ctx context.Context, query string, k int, temperature float64) (*model.SearchOutcome, error)
	RawRetrieve(ctx context.Context, query string, k int) ([]model.RetrievedDocument, error)
	GetProperty(ctx context.Context, id string) (*model.PropertyRecord, error)
	ListProperties(ctx context.Context, minPrice, maxPrice *int64, limit, offset int) ([]model.PropertyRecord, int, error)
	Statistics(ctx context.Context) (*model.PropertyStats, error)
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	svc                Searcher
	defaultK           int
	maxK               int
	defaultTemperature float64
	listDefaultLimit   int
	listMaxLimit       int
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(svc Searcher, defaultK, maxK int, defaultTemperature float64, listDefaultLimit, listMaxLimit int) *SearchHandler {
	return &SearchHandler{
		svc:                svc,
		defaultK:           defaultK,
		maxK:               maxK,
		defaultTemperature: defaultTemperature,
		listDefaultLimit:   listDefaultLimit,
		listMaxLimit:       listMaxLimit,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	req, ok := h.bindSearchRequest(c)
	if !ok {
		return
	}

	temperature := h.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	outcome, err := h.svc.Search(c.Request.Context(), req.Query, req.KResults, temperature)
	if err != nil {
		h.writeError(c, "Search failed", err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// RawSearch handles POST /api/v1/search/raw - similarity results without any
// model call, useful for debugging which properties retrieval surfaced.
func (h *SearchHandler) RawSearch(c *gin.Context) {
	req, ok := h.bindSearchRequest(c)
	if !ok {
		return
	}

	docs, err := h.svc.RawRetrieve(c.Request.Context(), req.Query, req.KResults)
	if err != nil {
		h.writeError(c, "Raw search failed", err)
		return
	}

	c.JSON(http.StatusOK, model.RawSearchResponse{
		Query:        req.Query,
		TotalResults: len(docs),
		Results:      docs,
	})
}

// GetProperty handles GET /api/v1/properties/:id
func (h *SearchHandler) GetProperty(c *gin.Context) {
	id := c.Param("id")

	record, err := h.svc.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to get property", err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property " + id + " not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListProperties handles GET /api/v1/properties
func (h *SearchHandler) ListProperties(c *gin.Context) {
	limit, err := queryInt(c, "limit", h.listDefaultLimit)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > h.listMaxLimit {
		limit = h.listMaxLimit
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	minPrice, err := queryInt64Ptr(c, "min_price")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
		return
	}
	maxPrice, err := queryInt64Ptr(c, "max_price")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
		return
	}

	records, total, err := h.svc.ListProperties(c.Request.Context(), minPrice, maxPrice, limit, offset)
	if err != nil {
		h.writeError(c, "Failed to list properties", err)
		return
	}
	if records == nil {
		records = []model.PropertyRecord{}
	}

	c.JSON(http.StatusOK, model.PropertyPage{
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		Count:      len(records),
		Properties: records,
	})
}

// Stats handles GET /api/v1/stats
func (h *SearchHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to compute statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health handles GET /health
func (h *SearchHandler) Health(c *gin.Context) {
	if !h.svc.Ready() {
		c.JSON(http.StatusOK, model.HealthStatus{
			Status:         "unhealthy",
			Message:        "Search service not initialized",
			DatabaseLoaded: false,
		})
		return
	}
	c.JSON(http.StatusOK, model.HealthStatus{
		Status:         "healthy",
		Message:        "All systems operational",
		DatabaseLoaded: true,
	})
}

// bindSearchRequest validates the request body and applies defaults/caps.
func (h *SearchHandler) bindSearchRequest(c *gin.Context) (*model.SearchRequest, bool) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return nil, false
	}

	if req.KResults <= 0 {
		req.KResults = h.defaultK
	}
	if req.KResults > h.maxK {
		req.KResults = h.maxK
	}

	if !h.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service not initialized"})
		return nil, false
	}

	return &req, true
}

// writeError maps internal failures to status codes.
func (h *SearchHandler) writeError(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, retriever.ErrNotReady) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": operation + ": " + err.Error()})
}

func queryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

func queryInt64Ptr(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
