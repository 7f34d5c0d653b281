package model

// Sort directives the extraction model may emit.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// SearchRequest represents a natural language search request
type SearchRequest struct {
	Query       string   `json:"query" binding:"required"`
	KResults    int      `json:"k_results" binding:"omitempty,min=1,max=50"`
	Temperature *float64 `json:"temperature" binding:"omitempty,min=0,max=2"`
}

// CandidateMatch is one property the extraction model selected from the
// retrieved context. Display fields are free-text restatements by the model
// and are not guaranteed to equal the store's columns.
type CandidateMatch struct {
	ID          string  `json:"id"`
	ProjectName *string `json:"projectName,omitempty"`
	Location    *string `json:"location,omitempty"`
	Price       *string `json:"price,omitempty"`
	Area        *string `json:"area,omitempty"`
	Pincode     *string `json:"pincode,omitempty"`
	Type        *string `json:"type,omitempty"`
	Landmark    *string `json:"landmark,omitempty"`
	Amenities   *string `json:"amenities,omitempty"`
}

// SearchOutcome is both the structured object the extraction model returns
// and, after reconciliation against the store, the unit returned to the
// caller. TotalResults always reflects the post-validation count.
type SearchOutcome struct {
	MatchingProjects []CandidateMatch `json:"matching_projects"`
	UnmatchedPoints  []string         `json:"unmatched_points"`
	Explanation      string           `json:"explanation"`
	MinPrice         *int64           `json:"min_price,omitempty"`
	MaxPrice         *int64           `json:"max_price,omitempty"`
	SortBy           string           `json:"sort_by,omitempty"`
	TotalResults     int              `json:"total_results"`
}

// RetrievedDocument is one similarity search hit, rank 1 = most similar.
type RetrievedDocument struct {
	Rank        int     `json:"rank"`
	PropertyID  string  `json:"property_id"`
	PageContent string  `json:"page_content"`
	Metadata    JSONMap `json:"metadata"`
}

// RawSearchResponse wraps unprocessed similarity search results.
type RawSearchResponse struct {
	Query        string              `json:"query"`
	TotalResults int                 `json:"total_results"`
	Results      []RetrievedDocument `json:"results"`
}
