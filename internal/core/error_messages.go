// Package core provides the business logic for CSV email cleansing.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: The file could not be read as CSV
//	          Action: Fix the listed lines and upload again
//	          Matches: *ParseError (issues are shown verbatim)
//
//	FILE003 - Busy: Too many files are being loaded at once
//	          Action: Wait a moment and upload again
//	          Matches: ErrTooManyLoads
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a CSV file with a header and data rows
//	          Matches: *EmptyInputError{Reason: EmptyFile}
//
//	FILE006 - No rows: The file has a header but no data rows
//	          Action: Add at least one data row below the header
//	          Matches: *EmptyInputError{Reason: NoRows}
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found: The email column is not in the header
//	         Action: Pick one of the columns listed for this file
//	         Matches: *ColumnMismatchError
//
//	COL002 - No column: No email column has been selected yet
//	         Action: Choose the column that holds email addresses
//	         Matches: ErrNotClassified, ErrNoFile
//
//	COL003 - Unknown row: The corrected row is no longer in the invalid set
//	         Action: Reload the page and try again
//	         Matches: ErrUnknownRow
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: The session does not exist or has expired
//	         Action: Upload the file again to start a new session
//	         Matches: ErrSessionNotFound
//
//	SES002 - Too many sessions: The utility is at its session limit
//	         Action: Close another session or wait for idle ones to expire
//	         Matches: ErrTooManySessions
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
//	REQ003 - Bad request: The request could not be read
//	         Patterns: "invalid request body", "missing form value"
//
//	REQ004 - Not found: The page does not exist
//	         Patterns: "page not found"
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// original technical error.
//
// # Matching
//
// Typed errors are matched first with errors.As/errors.Is. Remaining errors
// are matched case-insensitively with strings.Contains against the pattern
// list; the first matching pattern wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string   `json:"message"`           // What happened (user-friendly)
	Action  string   `json:"action,omitempty"`  // What to do about it
	Code    string   `json:"code"`              // Error code for support reference
	Details []string `json:"details,omitempty"` // Verbatim parser issues, if any
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgInvalidCSV = UserMessage{
		Message: "The file could not be read as CSV",
		Action:  "Fix the listed lines and upload again",
		Code:    "FILE002",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with a header and data rows",
		Code:    "FILE005",
	}
	msgNoRows = UserMessage{
		Message: "The file has a header but no data rows",
		Action:  "Add at least one data row below the header",
		Code:    "FILE006",
	}
	msgBusy = UserMessage{
		Message: "Too many files are being loaded at once",
		Action:  "Wait a moment and upload again",
		Code:    "FILE003",
	}
	msgColumnMismatch = UserMessage{
		Message: "The selected email column is not in this file",
		Action:  "Pick one of the columns listed for this file",
		Code:    "COL001",
	}
	msgNoColumn = UserMessage{
		Message: "No email column has been selected yet",
		Action:  "Choose the column that holds email addresses",
		Code:    "COL002",
	}
	msgUnknownRow = UserMessage{
		Message: "That row is no longer in the invalid list",
		Action:  "Reload the page and try again",
		Code:    "COL003",
	}
	msgSessionNotFound = UserMessage{
		Message: "This session does not exist or has expired",
		Action:  "Upload the file again to start a new session",
		Code:    "SES001",
	}
	msgTooManySessions = UserMessage{
		Message: "Too many sessions are open",
		Action:  "Close another session or wait for idle ones to expire",
		Code:    "SES002",
	}
)

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Order matters: specific patterns before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Reload the page and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "missing form value",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Reload the page and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "page not found",
		msg: UserMessage{
			Message: "Page not found",
			Action:  "Check the address or start over from the upload page",
			Code:    "REQ004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		msg := msgInvalidCSV
		for _, issue := range pe.Issues {
			msg.Details = append(msg.Details, issue.String())
		}
		return msg
	}

	var ee *EmptyInputError
	if errors.As(err, &ee) {
		if ee.Reason == NoRows {
			return msgNoRows
		}
		return msgEmptyFile
	}

	var ce *ColumnMismatchError
	if errors.As(err, &ce) {
		msg := msgColumnMismatch
		msg.Details = []string{fmt.Sprintf("available columns: %s", strings.Join(ce.Header, ", "))}
		return msg
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		return msgSessionNotFound
	case errors.Is(err, ErrTooManySessions):
		return msgTooManySessions
	case errors.Is(err, ErrTooManyLoads):
		return msgBusy
	case errors.Is(err, ErrNotClassified), errors.Is(err, ErrNoFile):
		return msgNoColumn
	case errors.Is(err, ErrUnknownRow):
		return msgUnknownRow
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
