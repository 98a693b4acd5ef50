package conversation

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/blueprint-engine/internal/llm"
)

// Reply is the structured assistant response for one interview turn.
type Reply struct {
	Question   string `json:"question"`
	Category   string `json:"category"`
	IsComplete bool   `json:"is_complete"`
}

// replySchema validates the assistant reply before it is trusted.
const replySchema = `{
	"type": "object",
	"required": ["question", "is_complete"],
	"properties": {
		"question": {"type": "string", "minLength": 1},
		"category": {"type": "string"},
		"is_complete": {"type": "boolean"}
	}
}`

// fallbackReply keeps the interview going when the model's output cannot be
// parsed. The interview is never marked complete on a fallback.
var fallbackReply = Reply{
	Question:   "Could you tell me more about what you want this project to do?",
	Category:   "general",
	IsComplete: false,
}

// ParseReply parses raw assistant output into a Reply. Malformed or
// schema-violating output is recovered with the fallback; parsing never
// fails the request.
func ParseReply(raw string) Reply {
	cleaned := llm.CleanJSONBlock(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(replySchema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil || !result.Valid() {
		return fallbackReply
	}

	var reply Reply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return fallbackReply
	}
	return reply
}
