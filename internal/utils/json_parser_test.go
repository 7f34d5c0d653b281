package utils

import (
	"testing"
)

func TestParseAIJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "Pure JSON",
			input: `{"explanation": "Two matches found", "total_results": 2}`,
			want: map[string]interface{}{
				"explanation":   "Two matches found",
				"total_results": float64(2),
			},
		},
		{
			name: "JSON in markdown code block",
			input: "```json\n" +
				`{"sort_by": "price_asc", "max_price": 5000000}` + "\n```",
			want: map[string]interface{}{
				"sort_by":   "price_asc",
				"max_price": float64(5000000),
			},
		},
		{
			name: "Bare markdown fence",
			input: "```\n" +
				`{"min_price": 300000000}` + "\n```",
			want: map[string]interface{}{
				"min_price": float64(300000000),
			},
		},
		{
			name:  "JSON with surrounding prose",
			input: `Here is the structured answer: {"explanation": "ok", "total_results": 0} hope it helps.`,
			want: map[string]interface{}{
				"explanation":   "ok",
				"total_results": float64(0),
			},
		},
		{
			name:  "Trailing comma",
			input: `{"explanation": "ok", "total_results": 1,}`,
			want: map[string]interface{}{
				"explanation":   "ok",
				"total_results": float64(1),
			},
		},
		{
			name:  "Unquoted keys",
			input: `{explanation: "ok", total_results: 3}`,
			want: map[string]interface{}{
				"explanation":   "ok",
				"total_results": float64(3),
			},
		},
		{
			name:  "Nested braces inside strings",
			input: `{"explanation": "use {curly} carefully", "total_results": 1}`,
			want: map[string]interface{}{
				"explanation":   "use {curly} carefully",
				"total_results": float64(1),
			},
		},
		{
			name:    "Empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "No JSON at all",
			input:   "I could not find any matching properties for your query.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ParseAIJSON(tt.input, &got)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got result %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("got[%q] = %v, want %v", key, got[key], want)
				}
			}
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Simple object",
			input: `{"a": 1} trailing`,
			want:  `{"a": 1}`,
		},
		{
			name:  "Nested objects",
			input: `{"a": {"b": 2}}`,
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:  "Brace inside string",
			input: `{"a": "closing } brace"}`,
			want:  `{"a": "closing } brace"}`,
		},
		{
			name:  "Unbalanced",
			input: `{"a": 1`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBalanced(tt.input, '{', '}'); got != tt.want {
				t.Errorf("extractBalanced() = %q, want %q", got, tt.want)
			}
		})
	}
}
