package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// correctionRequest is the body of POST /api/sessions/{id}/corrections.
type correctionRequest struct {
	Row   string `json:"row"`
	Email string `json:"email"`
}

// handleAPISummary returns the session summary as JSON.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.service.Summary(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleAPICorrect records a correction and reports whether it resolved.
func (s *Server) handleAPICorrect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		err = fmt.Errorf("%w: %v", errBadJSON, err)
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if req.Row == "" {
		err := fmt.Errorf("%w: row", errEmptyForm)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Correct(r.Context(), sessionID(r), req.Row, req.Email)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAPIDelete discards a session.
func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), sessionID(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
