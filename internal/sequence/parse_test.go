package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePromptItemsValid(t *testing.T) {
	items, err := parsePromptItems(`[
		{"title": "Create the repo", "content": "init the module", "prerequisites": []},
		{"title": "Add CI", "content": "wire the pipeline", "prerequisites": ["Create the repo"]}
	]`)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Create the repo", items[0].Title)
	assert.Equal(t, []string{"Create the repo"}, items[1].Prerequisites)
}

func TestParsePromptItemsFenced(t *testing.T) {
	items, err := parsePromptItems("```json\n[{\"title\": \"t\", \"content\": \"c\"}]\n```")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParsePromptItemsRejectsNonJSON(t *testing.T) {
	_, err := parsePromptItems("here are the prompts you asked for")
	assert.Error(t, err)
}

func TestParsePromptItemsRejectsEmptyArray(t *testing.T) {
	_, err := parsePromptItems(`[]`)
	assert.Error(t, err)
}

func TestParsePromptItemsRejectsTooMany(t *testing.T) {
	_, err := parsePromptItems(`[
		{"title": "a", "content": "x"},
		{"title": "b", "content": "x"},
		{"title": "c", "content": "x"},
		{"title": "d", "content": "x"}
	]`)
	assert.Error(t, err)
}

func TestParsePromptItemsRejectsMissingContent(t *testing.T) {
	_, err := parsePromptItems(`[{"title": "only a title"}]`)
	assert.Error(t, err)
}
