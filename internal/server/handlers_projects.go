package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/blueprint-engine/internal/db"
	"github.com/jonathan/blueprint-engine/internal/server/middleware"
)

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	ProjectType string   `json:"project_type" validate:"required"`
	Features    []string `json:"features"`
}

// pathID parses the named UUID path parameter.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	return id, err == nil
}

// requestUserID extracts the authenticated user from the request context.
func requestUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// handleCreateProject creates a project owned by the authenticated user.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.ProjectType == "" {
		s.errorResponse(w, http.StatusBadRequest, "name and project_type are required")
		return
	}

	project, err := s.db.CreateProject(r.Context(), userID, req.Name, req.ProjectType, req.Features)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, project)
}

// handleGetProject returns a project owned by the authenticated user.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := s.db.GetProject(r.Context(), projectID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if project == nil || project.UserID != userID {
		nf := &db.NotFoundError{Resource: "project", ID: projectID}
		s.errorResponse(w, http.StatusNotFound, nf.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, project)
}
