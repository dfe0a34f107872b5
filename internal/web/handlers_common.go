package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and the other form fields.
const multipartOverhead = 1 << 20

// maxMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const maxMemory = 32 << 20

// maxJSONBody caps JSON API request bodies.
const maxJSONBody = 1 << 20

var errTooLarge = errors.New("file too large")

// readUpload reads the "file" part of a multipart form.
// The whole file is materialized; size is capped by Upload.MaxFileSize.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if isTooLarge(err) {
			return "", nil, fmt.Errorf("%w: %v", errTooLarge, err)
		}
		return "", nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds %d", errTooLarge, header.Size, maxSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return "", nil, fmt.Errorf("%w: exceeds %d bytes", errTooLarge, maxSize)
	}

	return header.Filename, data, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// sessionID returns the {id} route parameter.
func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// sessionPath returns the page URL of a session.
func sessionPath(id string) string {
	return "/sessions/" + url.PathEscape(id)
}

// redirect sends the browser to path after a form POST.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// render writes an HTML component.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "path", r.URL.Path, "error", err)
	}
}
