package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"propsearch/internal/model"
)

// DocumentRetriever is the similarity retrieval contract the engine consumes.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedDocument, error)
	Ready() bool
}

// IntentExtractor is the structured extraction contract the engine consumes.
type IntentExtractor interface {
	Extract(ctx context.Context, contextStr, query string, temperature float64) (*model.SearchOutcome, error)
}

// PropertyStore is the authoritative relational store contract.
type PropertyStore interface {
	GetByID(ctx context.Context, id string) (*model.PropertyRecord, error)
	ListFiltered(ctx context.Context, minPrice, maxPrice *int64, limit, offset int) ([]model.PropertyRecord, int, error)
	FilterByIDs(ctx context.Context, ids []string, minPrice, maxPrice *int64, sortBy string) ([]string, error)
	Stats(ctx context.Context) (*model.PropertyStats, error)
}

// documentSeparator delimits documents inside the extraction context.
const documentSeparator = "\n\n---\n\n"

// SearchService reconciles the extraction model's claims against the
// authoritative store: retrieval, extraction, store-validated filtering,
// re-ordering and explanation augmentation, in strict order.
type SearchService struct {
	retriever DocumentRetriever
	extractor IntentExtractor
	store     PropertyStore
}

// NewSearchService creates a new search service
func NewSearchService(retriever DocumentRetriever, extractor IntentExtractor, store PropertyStore) *SearchService {
	return &SearchService{
		retriever: retriever,
		extractor: extractor,
		store:     store,
	}
}

// Ready reports whether the underlying retriever has been initialized.
func (s *SearchService) Ready() bool {
	return s.retriever.Ready()
}

// Search runs the full pipeline for one query. Any stage failure fails the
// whole operation; there is no partial response and no automatic retry.
func (s *SearchService) Search(ctx context.Context, query string, k int, temperature float64) (*model.SearchOutcome, error) {
	docs, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	contextStr := buildContext(docs)

	outcome, err := s.extractor.Extract(ctx, contextStr, query, temperature)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	// No identifier, no match: only candidates carrying an ID can be
	// validated against the store.
	matchedIDs := candidateIDs(outcome.MatchingProjects)
	if len(matchedIDs) == 0 {
		outcome.TotalResults = 0
		return outcome, nil
	}

	finalIDs, err := s.store.FilterByIDs(ctx, matchedIDs, outcome.MinPrice, outcome.MaxPrice, outcome.SortBy)
	if err != nil {
		return nil, fmt.Errorf("store validation failed: %w", err)
	}

	originalCount := len(outcome.MatchingProjects)
	outcome.MatchingProjects = reconcileMatches(outcome.MatchingProjects, finalIDs, outcome.SortBy != "")

	filteredCount := len(outcome.MatchingProjects)
	if filteredCount < originalCount {
		outcome.Explanation += filterNote(originalCount, filteredCount, outcome.MinPrice, outcome.MaxPrice)
	}
	outcome.TotalResults = filteredCount

	return outcome, nil
}

// RawRetrieve returns ranked similarity results without any model call.
func (s *SearchService) RawRetrieve(ctx context.Context, query string, k int) ([]model.RetrievedDocument, error) {
	docs, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return docs, nil
}

// GetProperty retrieves a single property by its unique ID.
func (s *SearchService) GetProperty(ctx context.Context, id string) (*model.PropertyRecord, error) {
	return s.store.GetByID(ctx, id)
}

// ListProperties returns a page of properties within the optional price bounds.
func (s *SearchService) ListProperties(ctx context.Context, minPrice, maxPrice *int64, limit, offset int) ([]model.PropertyRecord, int, error) {
	return s.store.ListFiltered(ctx, minPrice, maxPrice, limit, offset)
}

// Statistics returns aggregate statistics over the property table.
func (s *SearchService) Statistics(ctx context.Context) (*model.PropertyStats, error) {
	return s.store.Stats(ctx)
}

// buildContext concatenates the retrieved documents, in rank order, into the
// extraction context.
func buildContext(docs []model.RetrievedDocument) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, fmt.Sprintf("Property ID: %s\n%s", doc.PropertyID, doc.PageContent))
	}
	return strings.Join(parts, documentSeparator)
}

// candidateIDs collects the non-empty identifiers in model output order.
func candidateIDs(matches []model.CandidateMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// reconcileMatches keeps only candidates the store confirmed. When the store
// ordering is authoritative (a sort directive was extracted) the survivors
// follow finalIDs exactly; otherwise they keep their relative model order.
func reconcileMatches(matches []model.CandidateMatch, finalIDs []string, storeOrdered bool) []model.CandidateMatch {
	allowed := make(map[string]bool, len(finalIDs))
	for _, id := range finalIDs {
		allowed[id] = true
	}

	surviving := make([]model.CandidateMatch, 0, len(finalIDs))
	for _, m := range matches {
		if allowed[m.ID] {
			surviving = append(surviving, m)
		}
	}

	if !storeOrdered {
		return surviving
	}

	byID := make(map[string]model.CandidateMatch, len(surviving))
	for _, m := range surviving {
		byID[m.ID] = m
	}
	ordered := make([]model.CandidateMatch, 0, len(surviving))
	for _, id := range finalIDs {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered
}

// filterNote phrases the explanation appendix for results removed by store
// validation.
func filterNote(originalCount, filteredCount int, minPrice, maxPrice *int64) string {
	var priceMsg string
	switch {
	case minPrice != nil && maxPrice != nil:
		priceMsg = fmt.Sprintf(" within price range Rs%s - Rs%s", formatINR(*minPrice), formatINR(*maxPrice))
	case minPrice != nil:
		priceMsg = fmt.Sprintf(" with price above Rs%s", formatINR(*minPrice))
	case maxPrice != nil:
		priceMsg = fmt.Sprintf(" with price below Rs%s", formatINR(*maxPrice))
	}

	if filteredCount == 0 {
		return fmt.Sprintf("\n\nNote: %d properties matched your requirements, but none were found%s.", originalCount, priceMsg)
	}
	return fmt.Sprintf("\n\nNote: %d properties matched initially, but only %d properties were found%s.", originalCount, filteredCount, priceMsg)
}

// formatINR renders an amount with comma-grouped digits.
func formatINR(v int64) string {
	s := strconv.FormatInt(v, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}

	if negative {
		return "-" + sb.String()
	}
	return sb.String()
}
