package web

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/web/templates"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.UploadPage(s.cfg.Upload.MaxFileSize))
}

// handleCreateSession opens a session from an uploaded file.
// Load and column failures are recorded on the session and shown on its
// page, so only request-level problems are answered with an error page.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	sum, err := s.service.CreateSession(ctx)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	id := sum.SessionID

	sum, err = s.service.LoadFile(ctx, id, name, data)
	if errors.Is(err, core.ErrTooManyLoads) {
		_ = s.service.Delete(ctx, id)
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if err == nil {
		if col := strings.TrimSpace(r.FormValue("column")); col != "" && col != sum.EmailColumn {
			_, _ = s.service.SelectColumn(ctx, id, col)
		}
	}

	redirect(w, r, sessionPath(id))
}

// handleSessionPage renders the classification summary of a session.
func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	sum, err := s.service.Summary(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	render(w, r, templates.SessionPage(sum))
}

// handleLoadFile replaces the session's document with a new upload.
func (s *Server) handleLoadFile(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	_, err = s.service.LoadFile(r.Context(), id, name, data)
	if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrTooManyLoads) {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	redirect(w, r, sessionPath(id))
}

// handleSelectColumn classifies the session by the chosen column.
func (s *Server) handleSelectColumn(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	column := r.FormValue("column")
	if column == "" {
		s.respondError(w, r, errEmptyForm, statusFor(errEmptyForm))
		return
	}

	_, err := s.service.SelectColumn(r.Context(), id, column)
	if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrNoFile) {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	redirect(w, r, sessionPath(id))
}

// handleCorrect records a correction submitted from the invalid rows table.
func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	row := r.FormValue("row")
	if row == "" {
		s.respondError(w, r, errEmptyForm, statusFor(errEmptyForm))
		return
	}

	if _, err := s.service.Correct(r.Context(), id, row, r.FormValue("email")); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	redirect(w, r, sessionPath(id)+"#invalid")
}

// handleExport downloads the cleaned CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	file, err := s.service.Export(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(file.Data); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}

// handleDelete discards the session and returns to the upload page.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), sessionID(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	redirect(w, r, "/")
}
