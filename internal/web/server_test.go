package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/metrics"
)

const contactsCSV = "name,email\n" +
	"Ann,ann@x.com\n" +
	"Bob,BOB@x.com\n" +
	"Cy,cy@\n" +
	"Ann again, Ann@X.com \n" +
	"Di,\n"

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Rate.Enabled = false
	for _, fn := range mutate {
		fn(cfg)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return NewServer(core.NewService(cfg, m), cfg, m, reg)
}

func (s *Server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// createSession uploads content and returns the new session id.
func createSession(t *testing.T, s *Server, fileName, content string) string {
	t.Helper()
	rec := s.do(uploadRequest(t, "/sessions", fileName, content, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/sessions/"), loc)
	return strings.TrimPrefix(loc, "/sessions/")
}

func getSummary(t *testing.T, s *Server, id string) core.Summary {
	t.Helper()
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum core.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	return sum
}

// ============================================================================
// Page Tests
// ============================================================================

func TestIndex(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `action="/sessions"`)
	assert.Contains(t, rec.Body.String(), "basic syntactic check")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestCreateSession_ShowsClassification(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid emails (2)")
	assert.Contains(t, body, "Duplicates (1)")
	assert.Contains(t, body, "Download contacts_fixed.csv")
	assert.Contains(t, body, `<option value="email" selected>`)
}

func TestCreateSession_ExplicitColumn(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(uploadRequest(t, "/sessions", "c.csv", "name,contact\nAnn,ann@x.com\n", map[string]string{"column": "contact"}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	id := strings.TrimPrefix(rec.Header().Get("Location"), "/sessions/")

	sum := getSummary(t, s, id)
	assert.Equal(t, core.StateClassified, sum.State)
	assert.Equal(t, "contact", sum.EmailColumn)
	assert.Equal(t, 1, sum.Valid)
}

func TestCreateSession_ParseErrorShownOnPage(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "bad.csv", "a,b\n1,2,3\n")

	sum := getSummary(t, s, id)
	assert.Equal(t, core.StateEmpty, sum.State)
	require.NotNil(t, sum.LastError)
	assert.Equal(t, "FILE002", sum.LastError.Code)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Contains(t, rec.Body.String(), "FILE002")
	assert.Contains(t, rec.Body.String(), "line 2: expected 2 fields, got 3")
}

func TestCreateSession_HeaderOnly(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "h.csv", "name,email\n")

	sum := getSummary(t, s, id)
	require.NotNil(t, sum.LastError)
	assert.Equal(t, "FILE006", sum.LastError.Code)
}

func TestCreateSession_NoFile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(uploadRequest(t, "/sessions", "", "", map[string]string{"column": "email"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestCreateSession_NotMultipart(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(formRequest("/sessions", url.Values{"column": {"email"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSession_TooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 16 })

	rec := s.do(uploadRequest(t, "/sessions", "big.csv", contactsCSV, nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE001")
}

func TestLoadFile_ReplacesDocument(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)

	rec := s.do(uploadRequest(t, "/sessions/"+id+"/file", "other.csv", "email\nz@z.io\n", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	sum := getSummary(t, s, id)
	assert.Equal(t, "other.csv", sum.FileName)
	assert.Equal(t, 1, sum.TotalRows)
	assert.Equal(t, 0, sum.Invalid)
}

func TestSelectColumn(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "c.csv", "name,contact\nAnn,ann@x.com\nBob,nope\n")
	assert.Equal(t, core.StateParsed, getSummary(t, s, id).State)

	rec := s.do(formRequest("/sessions/"+id+"/column", url.Values{"column": {"contact"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	sum := getSummary(t, s, id)
	assert.Equal(t, core.StateClassified, sum.State)
	assert.Equal(t, 1, sum.Invalid)

	rec = s.do(formRequest("/sessions/"+id+"/column", url.Values{"column": {"missing"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	sum = getSummary(t, s, id)
	assert.Equal(t, core.StateParsed, sum.State)
	require.NotNil(t, sum.LastError)
	assert.Equal(t, "COL001", sum.LastError.Code)

	rec = s.do(formRequest("/sessions/"+id+"/column", url.Values{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorrectAndExport(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)
	sum := getSummary(t, s, id)
	require.Len(t, sum.InvalidRows, 2)

	rec := s.do(formRequest("/sessions/"+id+"/corrections", url.Values{
		"row":   {sum.InvalidRows[0].Key},
		"email": {" Cy@X.com "},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sessions/"+id+"#invalid", rec.Header().Get("Location"))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=contacts_fixed.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "name,email\nAnn,ann@x.com\nBob,bob@x.com\nCy,cy@x.com\n", rec.Body.String())

	assert.Equal(t, 1, getSummary(t, s, id).Exports)
}

func TestCorrect_UnknownRow(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)

	rec := s.do(formRequest("/sessions/"+id+"/corrections", url.Values{"row": {`["nope"]`}, "email": {"a@b.com"}}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "COL003")
}

func TestExport_BeforeClassification(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "c.csv", "name,contact\nAnn,ann@x.com\n")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/export", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "COL002")
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/delete", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SES001")
}

// ============================================================================
// API Tests
// ============================================================================

func TestAPICorrect(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)
	key := getSummary(t, s, id).InvalidRows[0].Key

	tests := []struct {
		email      string
		resolved   bool
		normalized string
	}{
		{"still-bad", false, "still-bad"},
		{" Fixed@Example.com", true, "fixed@example.com"},
	}

	for _, tt := range tests {
		body, _ := json.Marshal(map[string]string{"row": key, "email": tt.email})
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/corrections", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := s.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res core.CorrectionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, tt.resolved, res.Resolved, tt.email)
		assert.Equal(t, tt.normalized, res.Normalized, tt.email)
	}

	sum := getSummary(t, s, id)
	assert.Equal(t, 1, sum.Corrected)
	assert.Equal(t, 3, sum.Exportable)
}

func TestAPICorrect_BadRequests(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed json", `{"row":`, http.StatusBadRequest, "REQ003"},
		{"missing row", `{"email":"a@b.com"}`, http.StatusBadRequest, "REQ003"},
		{"unknown row", `{"row":"[\"x\"]","email":"a@b.com"}`, http.StatusConflict, "COL003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/corrections", strings.NewReader(tt.body))
			rec := s.do(req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestAPIUnknownSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SES001", resp.Code)
	assert.Equal(t, "Upload the file again to start a new session", resp.Action)
}

func TestAPIDelete(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "contacts.csv", contactsCSV)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Infrastructure Tests
// ============================================================================

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s, "contacts.csv", contactsCSV)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `csvclean_files_loaded_total{result="ok"} 1`)
	assert.Contains(t, body, `csvclean_http_requests_total{method="POST",route="/sessions",status="303"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Metrics.Enabled = false })
	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 1
		c.Rate.Burst = 2
	})

	for i := 0; i < 2; i++ {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/x", nil)
	rec := s.do(req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE001", resp.Code)

	other := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	other.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, http.StatusOK, s.do(other).Code, "limits are per client")
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQ004")
}

func TestRespondError_HTMLPage(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/sessions/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `class="alert" role="alert"`)
	assert.Contains(t, body, "SES001")
	assert.Contains(t, body, `<a href="/">Start over</a>`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{core.ErrTooManySessions, http.StatusServiceUnavailable},
		{core.ErrTooManyLoads, http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", core.ErrUnknownRow), http.StatusConflict},
		{fmt.Errorf("x: %w", core.ErrNotClassified), http.StatusConflict},
		{&core.ParseError{}, http.StatusUnprocessableEntity},
		{&core.EmptyInputError{Reason: core.NoRows}, http.StatusUnprocessableEntity},
		{&core.ColumnMismatchError{Column: "x"}, http.StatusUnprocessableEntity},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("%w: big", errTooLarge), http.StatusRequestEntityTooLarge},
		{errNoFile, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
