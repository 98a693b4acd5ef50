package server

import (
	"net/http"
)

// handleGenerateSuite generates the blueprint suite for a project. The call
// blocks until the batch finishes; clients that disconnect can poll the GET
// endpoint, generation runs to completion server-side.
func (s *Server) handleGenerateSuite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	result, err := s.suites.Generate(generationContext(w, r), userID, projectID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleSuiteStatus returns the project's active suite with its documents.
func (s *Server) handleSuiteStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	result, err := s.suites.Status(r.Context(), userID, projectID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleRegenerateBlueprint re-runs generation for one document. Retrying is
// free; the suite was charged when created.
func (s *Server) handleRegenerateBlueprint(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	blueprintID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blueprint ID")
		return
	}

	blueprint, err := s.suites.Regenerate(generationContext(w, r), userID, blueprintID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, blueprint)
}
