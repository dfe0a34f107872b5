package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "parse error",
			err:         &ParseError{Issues: []ParseIssue{{Line: 3, Message: "expected 2 fields, got 3"}}},
			wantCode:    "FILE002",
			wantMessage: "The file could not be read as CSV",
		},
		{
			name:        "wrapped parse error",
			err:         fmt.Errorf("load: %w", &ParseError{}),
			wantCode:    "FILE002",
			wantMessage: "The file could not be read as CSV",
		},
		{
			name:        "empty file",
			err:         &EmptyInputError{Reason: EmptyFile},
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "no rows",
			err:         &EmptyInputError{Reason: NoRows},
			wantCode:    "FILE006",
			wantMessage: "The file has a header but no data rows",
		},
		{
			name:        "column mismatch",
			err:         &ColumnMismatchError{Column: "mail", Header: []string{"email"}},
			wantCode:    "COL001",
			wantMessage: "The selected email column is not in this file",
		},
		{
			name:        "not classified",
			err:         fmt.Errorf("export: %w", ErrNotClassified),
			wantCode:    "COL002",
			wantMessage: "No email column has been selected yet",
		},
		{
			name:        "unknown row",
			err:         fmt.Errorf("correct: %w", ErrUnknownRow),
			wantCode:    "COL003",
			wantMessage: "That row is no longer in the invalid list",
		},
		{
			name:        "session not found",
			err:         ErrSessionNotFound,
			wantCode:    "SES001",
			wantMessage: "This session does not exist or has expired",
		},
		{
			name:        "too many sessions",
			err:         ErrTooManySessions,
			wantCode:    "SES002",
			wantMessage: "Too many sessions are open",
		},
		{
			name:        "parse slots busy",
			err:         fmt.Errorf("load: %w", ErrTooManyLoads),
			wantCode:    "FILE003",
			wantMessage: "Too many files are being loaded at once",
		},
		{
			name:        "request body too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the upload size limit",
		},
		{
			name:        "timeout maps correctly",
			err:         errors.New("context deadline exceeded"),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO FILE PROVIDED"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_Details(t *testing.T) {
	err := &ParseError{Issues: []ParseIssue{
		{Line: 2, Column: 5, Message: "bare \" in non-quoted-field"},
		{Line: 7, Message: "expected 3 fields, got 2"},
	}}

	got := MapError(err)

	if len(got.Details) != 2 {
		t.Fatalf("Details = %v, want 2 entries", got.Details)
	}
	if got.Details[0] != "line 2, column 5: bare \" in non-quoted-field" {
		t.Errorf("Details[0] = %q", got.Details[0])
	}
	if got.Details[1] != "line 7: expected 3 fields, got 2" {
		t.Errorf("Details[1] = %q", got.Details[1])
	}

	col := MapError(&ColumnMismatchError{Column: "x", Header: []string{"a", "b"}})
	if len(col.Details) != 1 || col.Details[0] != "available columns: a, b" {
		t.Errorf("column Details = %v", col.Details)
	}
}

func TestMapError_DoesNotShareDetails(t *testing.T) {
	first := MapError(&ParseError{Issues: []ParseIssue{{Message: "one"}}})
	second := MapError(&ParseError{Issues: []ParseIssue{{Message: "two"}}})

	if first.Details[0] != "one" || second.Details[0] != "two" {
		t.Errorf("details leaked between calls: %v, %v", first.Details, second.Details)
	}
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "session error",
			err:  ErrSessionNotFound,
			want: "This session does not exist or has expired (Code: SES001). Upload the file again to start a new session",
		},
		{
			name: "unknown error",
			err:  errors.New("unknown"),
			want: "An unexpected error occurred (Code: ERR000). Please try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUserError(tt.err); got != tt.want {
				t.Errorf("FormatUserError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"known typed error", &EmptyInputError{Reason: NoRows}, true},
		{"known pattern", errors.New("rate limit exceeded"), true},
		{"unknown error", errors.New("random error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
