package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvclean/internal/core"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestUploadPage(t *testing.T) {
	out := renderString(t, UploadPage(100<<20))

	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, "<title>Clean a CSV · csvclean</title>")
	assert.Contains(t, out, `enctype="multipart/form-data"`)
	assert.Contains(t, out, "Files up to 100 MB.")
	assert.Contains(t, out, "basic syntactic check")
}

func TestSessionPage_EscapesCellValues(t *testing.T) {
	sum := core.Summary{
		SessionID:   "abc",
		FileName:    `<b>list</b>.csv`,
		State:       core.StateClassified,
		Header:      []string{"name", "email"},
		EmailColumn: "email",
		TotalRows:   1,
		Invalid:     1,
		InvalidRows: []core.RowView{{
			Key:    `["<script>alert(1)</script>","x"]`,
			Values: []string{"<script>alert(1)</script>", "x"},
			Email:  "x",
		}},
	}

	out := renderString(t, SessionPage(sum))

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>list</b>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `action="/sessions/abc/corrections"`)
	assert.Contains(t, out, `value="[&#34;&lt;script&gt;alert(1)&lt;/script&gt;&#34;,&#34;x&#34;]"`)
}

func TestSessionPage_States(t *testing.T) {
	empty := renderString(t, SessionPage(core.Summary{SessionID: "s", State: core.StateEmpty}))
	assert.Contains(t, empty, "New session")
	assert.NotContains(t, empty, `name="column"`)

	parsed := renderString(t, SessionPage(core.Summary{
		SessionID: "s",
		FileName:  "a.csv",
		State:     core.StateParsed,
		Header:    []string{"name", "contact"},
	}))
	assert.Contains(t, parsed, `name="column"`)
	assert.Contains(t, parsed, "Pick one to continue")
	assert.NotContains(t, parsed, "/export")

	classified := renderString(t, SessionPage(core.Summary{
		SessionID:   "s",
		FileName:    "a.csv",
		State:       core.StateClassified,
		Header:      []string{"email"},
		EmailColumn: "email",
		Valid:       3,
		Exportable:  4,
		Corrected:   1,
		Invalid:     1,
		InvalidRows: []core.RowView{{Key: `["x"]`, Values: []string{"x"}, Email: "x", Correction: "x@y.com", Resolved: true}},
	}))
	assert.Contains(t, classified, `href="/sessions/s/export"`)
	assert.Contains(t, classified, "<th>Rows in export</th><td>4</td>")
	assert.Contains(t, classified, `class="ok">fixed`)
	assert.Contains(t, classified, `value="x@y.com"`)
	assert.Contains(t, classified, CorrectionNotice)
}

func TestSessionPage_Truncation(t *testing.T) {
	out := renderString(t, SessionPage(core.Summary{
		SessionID: "s",
		State:     core.StateClassified,
		Header:    []string{"email"},
		Duplicate: 10,
		DupRows:   []core.RowView{{Values: []string{"a@b.com"}}},
	}))
	assert.Contains(t, out, "Showing the first 1 of 10 rows.")
}

func TestErrorAlert(t *testing.T) {
	out := renderString(t, ErrorAlert(core.UserMessage{
		Message: "The file could not be read as CSV",
		Action:  "Fix the listed lines and upload again",
		Code:    "FILE002",
		Details: []string{`line 2, column 3: bare " in non-quoted-field`},
	}))

	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "FILE002")
	assert.Contains(t, out, "<li>line 2, column 3: bare &#34; in non-quoted-field</li>")
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:       "512 B",
		1024:      "1 KB",
		1536:      "1.5 KB",
		100 << 20: "100 MB",
		1 << 30:   "1 GB",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatBytes(in), "%d", in)
	}
}
