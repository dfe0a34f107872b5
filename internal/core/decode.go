package core

// decode.go turns uploaded bytes into clean UTF-8 before CSV tokenizing.
//
// Spreadsheet exports arrive in whatever shape the host produced:
//
//   - UTF-8 or UTF-16 with a byte-order mark (Excel "CSV UTF-8")
//   - legacy single-byte encodings such as Windows-1252
//   - occasionally a binary workbook renamed to .csv
//
// Decode strips BOMs, transcodes detected legacy charsets and replaces any
// remaining invalid sequences with U+FFFD so the parser only sees valid UTF-8.

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode normalizes raw file content to UTF-8.
// Returns a *ParseError if the content is not text at all.
func Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	if !isTextual(data) {
		mt := mimetype.Detect(data)
		return nil, &ParseError{Issues: []ParseIssue{{
			Message: fmt.Sprintf("unsupported file type %s, expected comma-separated text", mt.String()),
		}}}
	}

	if hasBOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return nil, fmt.Errorf("decode byte-order mark: %w", err)
		}
		return out, nil
	}

	if utf8.Valid(data) {
		return data, nil
	}

	if out, ok := decodeDetected(data); ok {
		return out, nil
	}

	return sanitizeUTF8(data), nil
}

// DetectCharset returns the most likely charset name for data, lower-cased.
// Falls back to "utf-8" when detection fails.
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// decodeDetected transcodes data from its detected charset.
func decodeDetected(data []byte) ([]byte, bool) {
	name := DetectCharset(data)
	if name == "utf-8" {
		return nil, false
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, false
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil || !utf8.Valid(out) {
		return nil, false
	}
	return out, true
}

// isTextual reports whether the content sniffs as some kind of text.
func isTextual(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") || strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16LE) ||
		bytes.HasPrefix(data, bomUTF16BE)
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement character.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
