package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReplyValidJSON(t *testing.T) {
	reply := ParseReply(`{"question": "What database do you prefer?", "category": "database", "is_complete": false}`)
	assert.Equal(t, "What database do you prefer?", reply.Question)
	assert.Equal(t, "database", reply.Category)
	assert.False(t, reply.IsComplete)
}

func TestParseReplyFencedJSON(t *testing.T) {
	raw := "```json\n{\"question\": \"Done?\", \"category\": \"wrap-up\", \"is_complete\": true}\n```"
	reply := ParseReply(raw)
	assert.Equal(t, "Done?", reply.Question)
	assert.True(t, reply.IsComplete)
}

func TestParseReplyMalformedFallsBack(t *testing.T) {
	reply := ParseReply("Sure! Here are some thoughts about your project...")
	assert.Equal(t, fallbackReply, reply)
	assert.False(t, reply.IsComplete)
}

func TestParseReplySchemaViolationFallsBack(t *testing.T) {
	// Valid JSON but missing required fields.
	reply := ParseReply(`{"category": "general"}`)
	assert.Equal(t, fallbackReply, reply)
}

func TestParseReplyEmptyQuestionFallsBack(t *testing.T) {
	reply := ParseReply(`{"question": "", "is_complete": true}`)
	assert.Equal(t, fallbackReply, reply)
	// A fallback must never complete the interview.
	assert.False(t, reply.IsComplete)
}
