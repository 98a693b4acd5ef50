// Package prompts builds the system and user prompts sent to the completion
// service for interviews, blueprint documents and implementation prompts.
package prompts

import (
	"fmt"
	"strings"

	"github.com/jonathan/blueprint-engine/internal/db"
)

// InterviewSystem is the system prompt for the interview dialog. The model
// must answer with a single JSON object so the reply can be parsed into
// {question, category, is_complete}.
const InterviewSystem = `You are a technical project interviewer. Given a project description and the dialog so far, ask the single most valuable next question to pin down requirements. When you have enough to plan the project (typically after 5-8 answers), finish the interview.

Respond with exactly one JSON object, no prose:
{"question": "<next question, or a closing remark when finishing>", "category": "<one of: scope, users, features, data, integrations, constraints, general>", "is_complete": <true when the interview is finished>}`

// BlueprintSystem is the system prompt for blueprint document generation.
const BlueprintSystem = `You are a senior software architect writing planning documents in Markdown. Write the requested document for the project described below. Be specific and actionable; build on the earlier documents instead of repeating them.`

// SequenceSystem is the system prompt for implementation prompt generation.
// The model must answer with a JSON array so the items can be validated.
const SequenceSystem = `You are breaking a planned project into ordered implementation prompts for a code-generation agent. For the requested phase, write 1 to 3 prompts. Each prompt must be self-contained and buildable on top of the earlier phases.

Respond with exactly one JSON array, no prose:
[{"title": "<short imperative title>", "content": "<the full implementation prompt>", "prerequisites": ["<titles of earlier prompts this depends on>"]}]`

// Interview renders the user prompt for the next interview turn.
func Interview(initialDescription string, turns []db.ConversationTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project description:\n%s\n\nDialog so far:\n", initialDescription)
	if len(turns) == 0 {
		b.WriteString("(none yet, ask the opening question)\n")
	}
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

// ConversationContext flattens a completed interview into a context block
// shared by blueprint and sequence prompts.
func ConversationContext(initialDescription string, turns []db.ConversationTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Project description\n%s\n\n## Interview\n", initialDescription)
	for _, t := range turns {
		fmt.Fprintf(&b, "- %s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

// Blueprint renders the user prompt for one suite document. Earlier
// documents of the same batch are included so later ones can build on them.
func Blueprint(docType, conversationContext string, prior []db.Blueprint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %q document.\n\n%s\n", docType, conversationContext)
	for _, p := range prior {
		if p.Status != db.BlueprintStatusComplete {
			continue
		}
		fmt.Fprintf(&b, "\n## Earlier document: %s\n%s\n", p.DocType, p.Content)
	}
	return b.String()
}

// Sequence renders the user prompt for one implementation-prompt category.
// Completed blueprints anchor the plan; existing titles keep the new prompts
// consistent with what was already generated (including earlier resumes).
func Sequence(category db.PromptCategory, blueprints []db.Blueprint, existingTitles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s\n\n## Planning documents\n", category)
	for _, bp := range blueprints {
		if bp.Status != db.BlueprintStatusComplete {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n%s\n", bp.DocType, bp.Content)
	}
	if len(existingTitles) > 0 {
		b.WriteString("\n## Prompts already generated\n")
		for _, t := range existingTitles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	return b.String()
}
