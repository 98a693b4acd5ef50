package sequence

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/blueprint-engine/internal/llm"
)

// promptItem is one generated implementation prompt before persistence.
type promptItem struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Prerequisites []string `json:"prerequisites"`
}

// promptBatchSchema bounds a category's output to 1-3 well-formed prompts.
const promptBatchSchema = `{
	"type": "array",
	"minItems": 1,
	"maxItems": 3,
	"items": {
		"type": "object",
		"required": ["title", "content"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"content": {"type": "string", "minLength": 1},
			"prerequisites": {"type": "array", "items": {"type": "string"}}
		}
	}
}`

// parsePromptItems parses and validates one category's generated prompt
// batch. Unlike the interview reply there is no fallback: a malformed batch
// fails the category, which the coordinator isolates like any other
// per-item generation error.
func parsePromptItems(raw string) ([]promptItem, error) {
	cleaned := llm.CleanJSONBlock(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(promptBatchSchema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate prompt batch: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("prompt batch rejected by schema: %v", result.Errors())
	}

	var items []promptItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("failed to parse prompt batch: %w", err)
	}
	return items, nil
}
