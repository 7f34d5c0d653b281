package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// chatCompleter abstracts the chat completion API for the extractor.
type chatCompleter interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Extractor turns retrieved context plus a user query into a structured
// SearchOutcome via a language model, rotating round-robin through a fixed
// list of model identifiers to spread load and quota.
type Extractor struct {
	client  chatCompleter
	models  []string
	counter atomic.Uint64
}

// defaultModels is the rotation list used when none is configured.
var defaultModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

// NewExtractor creates an extractor rotating through the given models.
func NewExtractor(client chatCompleter, models []string) *Extractor {
	if len(models) == 0 {
		models = defaultModels
	}
	return &Extractor{
		client: client,
		models: models,
	}
}

// nextModel returns the next model in rotation. The counter is the only
// cross-request shared state; the atomic increment keeps it monotonic under
// concurrent searches.
func (e *Extractor) nextModel() string {
	n := e.counter.Add(1) - 1
	return e.models[n%uint64(len(e.models))]
}

// Extract calls the selected model with the retrieved context and user query
// and parses its structured answer. A transport or API failure surfaces as
// ErrExtractionUpstream, non-conforming output as ErrExtractionParse. No
// failover to another model is attempted within a single call.
func (e *Extractor) Extract(ctx context.Context, contextStr, query string, temperature float64) (*model.SearchOutcome, error) {
	selectedModel := e.nextModel()

	req := ChatCompletionRequest{
		Model: selectedModel,
		Messages: []ChatMessage{
			{Role: "user", Content: buildSearchPrompt(contextStr, query)},
		},
		Temperature:    temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	resp, err := e.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrExtractionUpstream)
	}

	log.Printf("Using model: %s", selectedModel)

	var outcome model.SearchOutcome
	if err := utils.ParseAIJSON(resp.Choices[0].Message.Content, &outcome); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}
	if err := validateOutcome(&outcome); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}

	// Nil slices render as null; callers and clients expect arrays.
	if outcome.MatchingProjects == nil {
		outcome.MatchingProjects = []model.CandidateMatch{}
	}
	if outcome.UnmatchedPoints == nil {
		outcome.UnmatchedPoints = []string{}
	}

	return &outcome, nil
}

// validateOutcome checks the parsed outcome against the schema's constraints
// immediately, so malformed output fails here instead of during consumption.
func validateOutcome(o *model.SearchOutcome) error {
	if o.MinPrice != nil && *o.MinPrice < 0 {
		return fmt.Errorf("min_price must not be negative, got %d", *o.MinPrice)
	}
	if o.MaxPrice != nil && *o.MaxPrice < 0 {
		return fmt.Errorf("max_price must not be negative, got %d", *o.MaxPrice)
	}
	if o.MinPrice != nil && o.MaxPrice != nil && *o.MinPrice > *o.MaxPrice {
		return fmt.Errorf("min_price (%d) cannot be greater than max_price (%d)", *o.MinPrice, *o.MaxPrice)
	}
	if o.SortBy != "" && o.SortBy != model.SortPriceAsc && o.SortBy != model.SortPriceDesc {
		return fmt.Errorf("invalid sort_by: %q, must be %q or %q", o.SortBy, model.SortPriceAsc, model.SortPriceDesc)
	}
	return nil
}
