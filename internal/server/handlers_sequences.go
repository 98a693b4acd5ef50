package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/blueprint-engine/internal/db"
)

// GenerateSequenceRequest is the payload for sequence generation. Skipped
// categories are excluded from generation entirely.
type GenerateSequenceRequest struct {
	SkipCategories []db.PromptCategory `json:"skip_categories"`
}

// SetPromptStatusRequest is the payload for a client prompt status change.
type SetPromptStatusRequest struct {
	Status db.PromptStatus `json:"status"`
}

// handleGenerateSequence generates (or resumes) the implementation prompt
// sequence for a project.
func (s *Server) handleGenerateSequence(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req GenerateSequenceRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := s.sequences.Generate(generationContext(w, r), userID, projectID, req.SkipCategories)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleSequenceStatus returns the project's sequence with its prompts.
func (s *Server) handleSequenceStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	result, err := s.sequences.Status(r.Context(), userID, projectID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleSetPromptStatus applies a client status transition to one prompt.
// Completing or skipping a prompt unlocks its successor.
func (s *Server) handleSetPromptStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	promptID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid prompt ID")
		return
	}

	var req SetPromptStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prompt, err := s.sequences.SetItemStatus(r.Context(), userID, promptID, req.Status)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, prompt)
}
