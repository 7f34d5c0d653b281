package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/model"
)

func TestSearchRoundTrip(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(model.SearchOutcome{
			MatchingProjects: []model.CandidateMatch{{ID: "P001", ProjectName: strPtr("Skyline Towers")}},
			UnmatchedPoints:  []string{"no pool mentioned"},
			Explanation:      "Matched on location and budget.",
			SortBy:           model.SortPriceAsc,
			TotalResults:     1,
		})
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	outcome, err := c.Search(context.Background(), "2bhk near whitefield under 50 lakh", 10, 0.2)
	require.NoError(t, err)

	assert.Equal(t, "2bhk near whitefield under 50 lakh", gotPayload["query"])
	assert.Equal(t, float64(10), gotPayload["k_results"])
	require.Len(t, outcome.MatchingProjects, 1)
	assert.Equal(t, "P001", outcome.MatchingProjects[0].ID)
	assert.Equal(t, model.SortPriceAsc, outcome.SortBy)
	assert.Equal(t, 1, outcome.TotalResults)
}

func TestRawRetrieveUnwrapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/search/raw", r.URL.Path)
		json.NewEncoder(w).Encode(model.RawSearchResponse{
			Query:        "flats in hsr layout",
			TotalResults: 2,
			Results: []model.RetrievedDocument{
				{Rank: 1, PropertyID: "P010", PageContent: "3BHK in HSR Layout"},
				{Rank: 2, PropertyID: "P011", PageContent: "2BHK in HSR Layout"},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	docs, err := c.RawRetrieve(context.Background(), "flats in hsr layout", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "P010", docs[0].PropertyID)
	assert.Equal(t, 2, docs[1].Rank)
}

func TestGetPropertyNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Property P404 not found"})
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	record, err := c.GetProperty(context.Background(), "P404")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestGetPropertyFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/properties/P001", r.URL.Path)
		json.NewEncoder(w).Encode(model.PropertyRecord{
			UniquePropertyID: "P001",
			ProjectName:      strPtr("Skyline Towers"),
			Price:            int64Ptr(4500000),
		})
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	record, err := c.GetProperty(context.Background(), "P001")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "P001", record.UniquePropertyID)
	assert.Equal(t, int64(4500000), *record.Price)
}

func TestListPropertiesSendsFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "3000000", q.Get("min_price"))
		require.Equal(t, "8000000", q.Get("max_price"))
		require.Equal(t, "20", q.Get("limit"))
		require.Equal(t, "40", q.Get("offset"))

		json.NewEncoder(w).Encode(model.PropertyPage{
			Total:  57,
			Limit:  20,
			Offset: 40,
			Count:  1,
			Properties: []model.PropertyRecord{
				{UniquePropertyID: "P021", Price: int64Ptr(5200000)},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	records, total, err := c.ListProperties(context.Background(), int64Ptr(3000000), int64Ptr(8000000), 20, 40)
	require.NoError(t, err)
	assert.Equal(t, 57, total)
	require.Len(t, records, 1)
	assert.Equal(t, "P021", records[0].UniquePropertyID)
}

func TestReadyReflectsHealth(t *testing.T) {
	loaded := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(model.HealthStatus{
			Status:         "healthy",
			DatabaseLoaded: loaded,
		})
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	assert.False(t, c.Ready())

	loaded = true
	assert.True(t, c.Ready())
}

func TestServerErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"search failed: extraction failed"}`))
	}))
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	_, err := c.Search(context.Background(), "anything", 10, 0.2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "extraction failed")
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }
