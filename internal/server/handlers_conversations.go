package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// StartConversationRequest is the payload for starting an interview.
type StartConversationRequest struct {
	Description string `json:"description"`
}

// PostMessageRequest is the payload for one interview answer.
type PostMessageRequest struct {
	Answer string `json:"answer"`
}

// handleStartConversation creates the interview conversation for a project.
func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := s.conversations.Start(r.Context(), userID, projectID, req.Description)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, conv)
}

// handlePostMessage processes one interview answer and streams the assistant
// reply as Server-Sent Events. Failures before the first fragment are plain
// JSON errors; once streaming has started they become SSE error events, since
// the status line is already written.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	conversationID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var sse *SSEWriter
	onFragment := func(fragment string) {
		if sse == nil {
			writer, err := NewSSEWriter(w)
			if err != nil {
				log.Printf("[server] SSE unsupported: %v", err)
				return
			}
			sse = writer
		}
		sse.WriteFragment(fragment)
	}

	// Detached context: the answer is charged and the turn must be
	// persisted even if the client drops off mid-stream.
	reply, err := s.conversations.Continue(generationContext(w, r), userID, conversationID, req.Answer, onFragment)
	if err != nil {
		if sse != nil {
			sse.WriteError(err.Error())
			return
		}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if sse == nil {
		// The model produced a reply without streaming any fragments.
		writer, werr := NewSSEWriter(w)
		if werr != nil {
			s.jsonResponse(w, http.StatusOK, reply)
			return
		}
		sse = writer
	}
	sse.WriteDone(reply)
}
