package service

import (
	"encoding/json"
	"fmt"
)

// searchPromptTemplate is the extraction prompt. The numbered rules define
// the model's matching, price-conversion and sort-extraction behavior; the
// final placeholder receives the schema-derived format instructions.
const searchPromptTemplate = `You are a Real Estate Expert Assistant helping users find matching properties.

You will be given retrieved property data and a user query.

Your job:
1. Identify properties that match **all** conditions in the query.
2. Return your answer strictly as JSON according to the provided format instructions.
3. If some query conditions are not met, list them under ` + "`unmatched_points`" + `.
4. Never assume data not present in the retrieved context.
5. If nothing matches, leave ` + "`matching_projects`" + ` empty and explain why.
6. Extract price constraints and convert to INR:
   - "under 50 lakh" -> max_price: 5000000
   - "30-50 crore" -> min_price: 300000000, max_price: 500000000
7. Extract sort preference:
   - "cheapest", "affordable", "budget", "lowest" -> sort_by: "price_asc"
   - "premium", "luxury", "expensive", "highest" -> sort_by: "price_desc"

---
Retrieved Property Data:
%s

User Query:
%s

%s`

// buildSearchPrompt assembles the full extraction prompt from the retrieved
// context and the user query.
func buildSearchPrompt(contextStr, query string) string {
	return fmt.Sprintf(searchPromptTemplate, contextStr, query, formatInstructions())
}

// outputSchema describes the structured object the model must return. The
// format-instructions fragment is rendered from this definition so prompt
// and parser cannot drift apart.
func outputSchema() map[string]interface{} {
	nullableString := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": []string{"string", "null"}, "description": desc}
	}
	nullableInteger := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": []string{"integer", "null"}, "description": desc}
	}

	candidate := map[string]interface{}{
		"type":        "object",
		"description": "Individual property match in search results",
		"properties": map[string]interface{}{
			"id":          map[string]interface{}{"type": "string", "description": "Unique property ID"},
			"projectName": nullableString("Project name"),
			"location":    nullableString("Location/address"),
			"price":       nullableString("Price or price range"),
			"area":        nullableString("Area details"),
			"pincode":     nullableString("Pincode"),
			"type":        nullableString("Property type"),
			"landmark":    nullableString("Nearby landmark"),
			"amenities":   nullableString("Available amenities"),
		},
		"required": []string{"id"},
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"matching_projects": map[string]interface{}{
				"type":        "array",
				"description": "List of matching properties",
				"items":       candidate,
			},
			"unmatched_points": map[string]interface{}{
				"type":        "array",
				"description": "Query requirements that couldn't be matched",
				"items":       map[string]interface{}{"type": "string"},
			},
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "Explanation of the search results",
			},
			"min_price": nullableInteger("Extracted minimum price in INR"),
			"max_price": nullableInteger("Extracted maximum price in INR"),
			"sort_by": map[string]interface{}{
				"type":        []string{"string", "null"},
				"enum":        []string{"price_asc", "price_desc"},
				"description": "Sorting preference",
			},
			"total_results": map[string]interface{}{
				"type":        "integer",
				"description": "Total number of matching properties found",
			},
		},
		"required": []string{"matching_projects", "explanation"},
	}
}

// formatInstructions renders the schema into the prompt fragment that tells
// the model exactly how to format its structured answer.
func formatInstructions() string {
	schemaJSON, err := json.Marshal(outputSchema())
	if err != nil {
		// The schema is a static literal; marshaling it cannot fail at runtime.
		panic(fmt.Sprintf("failed to render output schema: %v", err))
	}
	return fmt.Sprintf("The output should be formatted as a JSON instance that conforms to the JSON schema below.\n\nHere is the output schema:\n```\n%s\n```", schemaJSON)
}
