package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxParseIssues caps how many tokenizer problems are reported for one file.
var MaxParseIssues = 20

// ParseOptions configures the CSV tokenizer.
type ParseOptions struct {
	Comma      rune // field delimiter, ',' if zero
	LazyQuotes bool // tolerate bare quotes inside unquoted fields
}

// DefaultParseOptions returns strict comma-separated parsing.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Comma: ','}
}

// Parse turns decoded file content into a Table.
//
// The first record is the header. Rows whose cells are all blank are skipped.
// Any tokenizer problem, including a row whose field count differs from the
// header, fails the whole parse with a *ParseError. A file without data rows
// fails with an *EmptyInputError.
func Parse(data []byte, opts ParseOptions) (Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Table{}, &EmptyInputError{Reason: EmptyFile}
	}

	r := csv.NewReader(bytes.NewReader(data))
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}
	r.LazyQuotes = opts.LazyQuotes
	r.FieldsPerRecord = -1

	var (
		header []string
		rows   []Record
		issues []ParseIssue
	)

	for len(issues) < MaxParseIssues {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The reader's position is unreliable after a syntax error.
			issues = append(issues, issueFromError(err))
			break
		}

		if header == nil {
			header = uniqueHeader(fields)
			continue
		}

		if isEmptyRow(fields) {
			continue
		}

		if len(fields) != len(header) {
			line, _ := r.FieldPos(0)
			issues = append(issues, ParseIssue{
				Line:    line,
				Message: fmt.Sprintf("expected %d fields, got %d", len(header), len(fields)),
			})
			continue
		}

		rec := make(Record, len(header))
		for i, col := range header {
			rec[col] = fields[i]
		}
		rows = append(rows, rec)
	}

	if len(issues) > 0 {
		return Table{}, &ParseError{Issues: issues}
	}
	if header == nil {
		return Table{}, &EmptyInputError{Reason: EmptyFile}
	}
	if len(rows) == 0 {
		return Table{}, &EmptyInputError{Reason: NoRows}
	}

	return Table{Header: header, Rows: rows}, nil
}

// issueFromError converts a tokenizer error into a ParseIssue.
func issueFromError(err error) ParseIssue {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return ParseIssue{Line: pe.Line, Column: pe.Column, Message: pe.Err.Error()}
	}
	return ParseIssue{Message: err.Error()}
}

// uniqueHeader disambiguates repeated column names with _1, _2 suffixes so
// every column maps to exactly one record key.
func uniqueHeader(fields []string) []string {
	header := make([]string, len(fields))
	seen := make(map[string]bool, len(fields))
	for i, name := range fields {
		candidate := name
		for n := 1; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		header[i] = candidate
	}
	return header
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
