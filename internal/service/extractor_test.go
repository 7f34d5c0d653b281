package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"propsearch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChat records every request and answers with canned content.
type stubChat struct {
	requests []ChatCompletionRequest
	content  string
	err      error
	noChoice bool
}

func (s *stubChat) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}

	var resp ChatCompletionResponse
	if !s.noChoice {
		raw, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": s.content}},
			},
		})
		_ = json.Unmarshal(raw, &resp)
	}
	return &resp, nil
}

const validOutcomeJSON = `{
	"matching_projects": [{"id": "P001", "projectName": "Sunrise Heights"}],
	"unmatched_points": [],
	"explanation": "One property matched.",
	"max_price": 5000000,
	"sort_by": "price_asc",
	"total_results": 1
}`

// Three consecutive calls against a two-model rotation must select
// model[0], model[1], model[0].
func TestExtractorRotation(t *testing.T) {
	chat := &stubChat{content: validOutcomeJSON}
	extractor := NewExtractor(chat, []string{"model-a", "model-b"})

	for i := 0; i < 3; i++ {
		_, err := extractor.Extract(context.Background(), "ctx", "query", 0.2)
		require.NoError(t, err)
	}

	require.Len(t, chat.requests, 3)
	assert.Equal(t, "model-a", chat.requests[0].Model)
	assert.Equal(t, "model-b", chat.requests[1].Model)
	assert.Equal(t, "model-a", chat.requests[2].Model)
}

func TestExtractPromptContents(t *testing.T) {
	chat := &stubChat{content: validOutcomeJSON}
	extractor := NewExtractor(chat, []string{"model-a"})

	contextStr := "Property ID: P001\n2BHK flat in Andheri"
	query := "cheapest 2BHK under 50 lakh"
	_, err := extractor.Extract(context.Background(), contextStr, query, 0.7)
	require.NoError(t, err)

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	require.Len(t, req.Messages, 1)
	prompt := req.Messages[0].Content

	assert.Contains(t, prompt, "Retrieved Property Data:")
	assert.Contains(t, prompt, contextStr)
	assert.Contains(t, prompt, query)
	assert.Contains(t, prompt, `"under 50 lakh" -> max_price: 5000000`)
	assert.Contains(t, prompt, `"30-50 crore" -> min_price: 300000000, max_price: 500000000`)
	assert.Contains(t, prompt, "price_desc")
	assert.Contains(t, prompt, "conforms to the JSON schema below")
	assert.Contains(t, prompt, "matching_projects")

	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, "json_object", req.ResponseFormat.Type)
}

func TestExtractParsesValidOutcome(t *testing.T) {
	chat := &stubChat{content: "```json\n" + validOutcomeJSON + "\n```"}
	extractor := NewExtractor(chat, []string{"model-a"})

	outcome, err := extractor.Extract(context.Background(), "ctx", "query", 0.2)
	require.NoError(t, err)

	require.Len(t, outcome.MatchingProjects, 1)
	assert.Equal(t, "P001", outcome.MatchingProjects[0].ID)
	require.NotNil(t, outcome.MaxPrice)
	assert.Equal(t, int64(5000000), *outcome.MaxPrice)
	assert.Nil(t, outcome.MinPrice)
	assert.Equal(t, model.SortPriceAsc, outcome.SortBy)
}

// Omitted arrays come back as empty slices, never nil.
func TestExtractNormalizesMissingArrays(t *testing.T) {
	chat := &stubChat{content: `{"explanation": "nothing matched", "total_results": 0}`}
	extractor := NewExtractor(chat, []string{"model-a"})

	outcome, err := extractor.Extract(context.Background(), "ctx", "query", 0.2)
	require.NoError(t, err)
	assert.NotNil(t, outcome.MatchingProjects)
	assert.Empty(t, outcome.MatchingProjects)
	assert.NotNil(t, outcome.UnmatchedPoints)
}

func TestExtractParseError(t *testing.T) {
	chat := &stubChat{content: "I could not produce structured output for that."}
	extractor := NewExtractor(chat, []string{"model-a"})

	_, err := extractor.Extract(context.Background(), "ctx", "query", 0.2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionParse))
}

func TestExtractUpstreamError(t *testing.T) {
	chat := &stubChat{err: errors.New("quota exceeded")}
	extractor := NewExtractor(chat, []string{"model-a"})

	_, err := extractor.Extract(context.Background(), "ctx", "query", 0.2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionUpstream))
}

func TestExtractEmptyChoices(t *testing.T) {
	chat := &stubChat{noChoice: true}
	extractor := NewExtractor(chat, []string{"model-a"})

	_, err := extractor.Extract(context.Background(), "ctx", "query", 0.2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionUpstream))
}

func TestValidateOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome model.SearchOutcome
		wantErr bool
	}{
		{
			name:    "Valid with bounds and sort",
			outcome: model.SearchOutcome{MinPrice: int64Ptr(100), MaxPrice: int64Ptr(200), SortBy: model.SortPriceDesc},
		},
		{
			name:    "No constraints",
			outcome: model.SearchOutcome{},
		},
		{
			name:    "Min above max",
			outcome: model.SearchOutcome{MinPrice: int64Ptr(200), MaxPrice: int64Ptr(100)},
			wantErr: true,
		},
		{
			name:    "Negative price",
			outcome: model.SearchOutcome{MaxPrice: int64Ptr(-1)},
			wantErr: true,
		},
		{
			name:    "Unknown sort directive",
			outcome: model.SearchOutcome{SortBy: "price_random"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOutcome(&tt.outcome)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
