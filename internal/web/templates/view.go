// Package templates renders the HTML views of the cleansing UI. Components
// are written in .templ files; run `templ generate` after editing them.
package templates

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// ValidationNotice describes what the email check accepts.
const ValidationNotice = "Email validation is a basic syntactic check: a local part, an @ sign and a domain containing a dot. " +
	"Quoted local parts, internationalized addresses and dotless domains are reported as invalid."

// CorrectionNotice explains how a typed correction is checked.
const CorrectionNotice = "Corrections are trimmed and lower-cased before they are checked, the same way as addresses in the file."

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f8;color:#1f2328}
header{background:#1f2328;color:#fff;padding:.75rem 1.5rem}
header a{color:#fff;text-decoration:none;font-weight:600}
main{max-width:72rem;margin:1.5rem auto;padding:0 1.5rem}
section{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:1rem 1.25rem;margin-bottom:1rem}
table{border-collapse:collapse;width:100%;font-size:.9rem}
th,td{border-bottom:1px solid #eaeef2;padding:.35rem .5rem;text-align:left;vertical-align:top}
th{background:#f6f8fa}
.alert{border:1px solid #cf222e;background:#ffebe9;border-radius:6px;padding:.75rem 1rem;margin-bottom:1rem}
.alert code{color:#57606a}
.muted{color:#57606a;font-size:.85rem}
.ok{color:#1a7f37;font-weight:600}
.pending{color:#9a6700;font-weight:600}
.counts td{font-variant-numeric:tabular-nums}
button,.button{background:#1f883d;color:#fff;border:0;border-radius:6px;padding:.35rem .75rem;cursor:pointer;text-decoration:none;display:inline-block}
button.danger{background:#cf222e}
input[type=text],select{padding:.3rem;border:1px solid #d0d7de;border-radius:6px}
`

type countRow struct {
	Label string
	N     int
}

func countRows(sum core.Summary) []countRow {
	return []countRow{
		{"Rows", sum.TotalRows},
		{"Valid", sum.Valid},
		{"Invalid", sum.Invalid},
		{"Duplicate", sum.Duplicate},
		{"Corrected", sum.Corrected},
		{"Rows in export", sum.Exportable},
	}
}

func pageTitle(sum core.Summary) string {
	if sum.FileName == "" {
		return "New session"
	}
	return sum.FileName
}

func sessionBase(sum core.Summary) string {
	return "/sessions/" + sum.SessionID
}

// correctionValue prefills the correction input with the last candidate,
// or the current email when nothing was entered yet.
func correctionValue(row core.RowView) string {
	if row.Correction != "" {
		return row.Correction
	}
	return row.Email
}

func uploadHint(maxFileSize int64) string {
	return fmt.Sprintf("Files up to %s. The first row must be a header.", formatBytes(maxFileSize))
}

func truncationNote(shown, total int) string {
	return fmt.Sprintf("Showing the first %d of %d rows.", shown, total)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	s := fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
	return strings.Replace(s, ".0 ", " ", 1)
}
