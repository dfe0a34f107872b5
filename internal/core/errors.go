package core

import (
	"errors"
	"fmt"
	"strings"
)

// ParseIssue is one problem reported by the CSV tokenizer.
// Line and Column are 1-indexed; zero means unknown.
type ParseIssue struct {
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

func (i ParseIssue) String() string {
	switch {
	case i.Line > 0 && i.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", i.Line, i.Column, i.Message)
	case i.Line > 0:
		return fmt.Sprintf("line %d: %s", i.Line, i.Message)
	default:
		return i.Message
	}
}

// ParseError reports malformed CSV structure. No partial table is retained.
type ParseError struct {
	Issues []ParseIssue
}

func (e *ParseError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid csv: " + strings.Join(parts, "; ")
}

// EmptyReason distinguishes the two user-visible empty cases.
type EmptyReason string

const (
	// EmptyFile means there was nothing to read, not even a header.
	EmptyFile EmptyReason = "empty file"
	// NoRows means a header was found but no data rows followed it.
	NoRows EmptyReason = "no rows"
)

// EmptyInputError reports that parsing produced zero data rows.
type EmptyInputError struct {
	Reason EmptyReason
}

func (e *EmptyInputError) Error() string {
	if e.Reason == NoRows {
		return "no rows after header"
	}
	return "empty file"
}

// ColumnMismatchError reports an email column absent from the header.
type ColumnMismatchError struct {
	Column string
	Header []string
}

func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("column not found: %q (header: %s)", e.Column, strings.Join(e.Header, ", "))
}

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the store is at capacity.
	ErrTooManySessions = errors.New("too many sessions open, close one and try again")

	// ErrNoFile is returned when an action needs a loaded file.
	ErrNoFile = errors.New("no file loaded")

	// ErrNotClassified is returned for actions that need a classification.
	ErrNotClassified = errors.New("no email column selected")

	// ErrUnknownRow is returned when a correction targets a row that is not invalid.
	ErrUnknownRow = errors.New("row is not in the invalid set")
)

// IsParseError reports whether err is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsEmptyInput reports whether err is an *EmptyInputError.
func IsEmptyInput(err error) bool {
	var ee *EmptyInputError
	return errors.As(err, &ee)
}
