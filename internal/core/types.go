// Package core provides the business logic for CSV email cleansing.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"maps"
	"time"
)

// Record is one logical CSV row keyed by column name.
// Every Record in a Table has exactly the Table's header as its key set.
type Record map[string]string

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Values returns the record's cells in header order.
func (r Record) Values(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = r[col]
	}
	return out
}

// Table is an ordered sequence of records sharing one header.
type Table struct {
	Header []string
	Rows   []Record
}

// HasColumn reports whether name is part of the header.
func (t Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// RowKey returns the content-derived identity of a record: its cells in
// header order, JSON encoded. Records carry no surrogate id, so two textually
// identical rows share one key.
func RowKey(header []string, r Record) string {
	b, err := json.Marshal(r.Values(header))
	if err != nil {
		// []string always marshals
		panic(err)
	}
	return string(b)
}

// Group names one of the three disjoint classification outcomes.
type Group string

const (
	GroupValid     Group = "valid"
	GroupInvalid   Group = "invalid"
	GroupDuplicate Group = "duplicate"
)

// Classification is the valid/invalid/duplicate partition of a table for one
// email column. Order within each group matches input order.
type Classification struct {
	Column    string
	Valid     []Record
	Invalid   []Record
	Duplicate []Record
}

// Total returns the number of classified rows.
func (c Classification) Total() int {
	return len(c.Valid) + len(c.Invalid) + len(c.Duplicate)
}

// SessionState is the processing stage of a session.
type SessionState string

const (
	StateEmpty      SessionState = "empty"
	StateParsed     SessionState = "parsed"
	StateClassified SessionState = "classified"
)

// Summary is the display-oriented view of a session.
type Summary struct {
	SessionID   string       `json:"sessionId"`
	FileName    string       `json:"fileName"`
	State       SessionState `json:"state"`
	Header      []string     `json:"header"`
	EmailColumn string       `json:"emailColumn,omitempty"`
	TotalRows   int          `json:"totalRows"`
	Valid       int          `json:"valid"`
	Invalid     int          `json:"invalid"`
	Duplicate   int          `json:"duplicate"`
	Corrected   int          `json:"corrected"`
	Exportable  int          `json:"exportable"`
	Exports     int          `json:"exports"`
	InvalidRows []RowView    `json:"invalidRows,omitempty"`
	DupRows     []RowView    `json:"duplicateRows,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	LastError   *UserMessage `json:"lastError,omitempty"`
}

// RowView is a single row prepared for display.
type RowView struct {
	Key        string   `json:"key"`
	Values     []string `json:"values"`
	Email      string   `json:"email"`
	Correction string   `json:"correction,omitempty"`
	Resolved   bool     `json:"resolved"`
}
