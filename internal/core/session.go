package core

// session.go holds the per-session state and the reducers that move it
// through its lifecycle:
//
//	Empty -> Parsed -> Classified (-> export, stays Classified)
//
// Each reducer takes the current Session by value and returns the next one.
// Table, Classification and Ledger are replaced wholesale, never patched, so
// a failed action cannot leave half-applied state behind:
//
//   - a parse or empty-input failure returns an Empty session
//   - a column mismatch returns a Parsed session with no classification

import (
	"fmt"
	"time"
)

// MaxListedRows caps how many invalid or duplicate rows a Summary lists.
var MaxListedRows = 500

// Session is one user's single-document workspace.
type Session struct {
	ID             string
	FileName       string
	State          SessionState
	Table          Table
	EmailColumn    string
	Classification Classification
	Ledger         *CorrectionLedger
	Exports        int
	LastError      error
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExportFile is a serialized export ready for download.
type ExportFile struct {
	Name string
	Data []byte
	Rows int
}

// NewSession returns an empty session.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		State:     StateEmpty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// reset returns s stripped of all document state.
func (s Session) reset() Session {
	return Session{
		ID:        s.ID,
		State:     StateEmpty,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// LoadFile replaces the session's document with a newly uploaded file.
// When the header has an obvious email column the table is classified
// straight away; otherwise the session waits in Parsed for SelectColumn.
func LoadFile(s Session, fileName string, data []byte, opts ParseOptions) (Session, error) {
	next := s.reset()

	decoded, err := Decode(data)
	if err != nil {
		next.LastError = err
		return next, err
	}

	table, err := Parse(decoded, opts)
	if err != nil {
		next.LastError = err
		return next, err
	}

	next.FileName = fileName
	next.Table = table
	next.State = StateParsed

	if col, ok := InferEmailColumn(table.Header); ok {
		return SelectColumn(next, col)
	}
	return next, nil
}

// SelectColumn classifies the loaded table by column. Any previous
// classification and its corrections are discarded.
func SelectColumn(s Session, column string) (Session, error) {
	if s.State == StateEmpty {
		return s, fmt.Errorf("select column: %w", ErrNoFile)
	}

	next := s
	next.State = StateParsed
	next.EmailColumn = ""
	next.Classification = Classification{}
	next.Ledger = nil
	next.LastError = nil

	c, err := RunPipeline(s.Table, column)
	if err != nil {
		next.LastError = err
		return next, err
	}

	next.EmailColumn = column
	next.Classification = c
	next.Ledger = NewCorrectionLedger(column)
	next.State = StateClassified
	return next, nil
}

// Correct records candidate against the invalid row identified by rowKey
// and reports whether the correction is resolved.
func Correct(s Session, rowKey, candidate string) (Session, bool, error) {
	if s.State != StateClassified {
		return s, false, fmt.Errorf("correct: %w", ErrNotClassified)
	}

	row, ok := findInvalid(s, rowKey)
	if !ok {
		return s, false, fmt.Errorf("correct: %w", ErrUnknownRow)
	}

	next := s
	next.Ledger = s.Ledger.Clone()
	next.LastError = nil
	resolved := next.Ledger.Record(s.Table.Header, row, candidate)
	return next, resolved, nil
}

// Export builds the cleaned CSV from valid rows plus resolved corrections.
// Export proceeds with whatever is resolved so far; the session stays
// Classified and can be exported again.
func Export(s Session, comma rune) (Session, ExportFile, error) {
	if s.State != StateClassified {
		return s, ExportFile{}, fmt.Errorf("export: %w", ErrNotClassified)
	}

	t := BuildExportTable(s.Table.Header, s.Classification.Valid, s.Classification.Invalid, s.Ledger)
	data, err := EncodeCSV(t, comma)
	if err != nil {
		return s, ExportFile{}, fmt.Errorf("export: %w", err)
	}

	next := s
	next.Exports++
	return next, ExportFile{
		Name: ExportFileName(s.FileName),
		Data: data,
		Rows: len(t.Rows),
	}, nil
}

// Summarize builds the display view of a session.
func Summarize(s Session) Summary {
	sum := Summary{
		SessionID:   s.ID,
		FileName:    s.FileName,
		State:       s.State,
		Header:      s.Table.Header,
		EmailColumn: s.EmailColumn,
		TotalRows:   len(s.Table.Rows),
		Exports:     s.Exports,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.LastError != nil {
		msg := MapError(s.LastError)
		sum.LastError = &msg
	}
	if s.State != StateClassified {
		return sum
	}

	c := s.Classification
	header := s.Table.Header
	sum.Valid = len(c.Valid)
	sum.Invalid = len(c.Invalid)
	sum.Duplicate = len(c.Duplicate)

	for _, row := range c.Invalid {
		view := RowView{
			Key:    RowKey(header, row),
			Values: row.Values(header),
			Email:  row[c.Column],
		}
		if s.Ledger != nil {
			view.Correction, _ = s.Ledger.Candidate(header, row)
			_, view.Resolved = s.Ledger.Resolved(header, row)
		}
		if view.Resolved {
			sum.Corrected++
		}
		if len(sum.InvalidRows) < MaxListedRows {
			sum.InvalidRows = append(sum.InvalidRows, view)
		}
	}

	for _, row := range c.Duplicate {
		if len(sum.DupRows) >= MaxListedRows {
			break
		}
		sum.DupRows = append(sum.DupRows, RowView{
			Key:    RowKey(header, row),
			Values: row.Values(header),
			Email:  row[c.Column],
		})
	}

	sum.Exportable = sum.Valid + sum.Corrected
	return sum
}

func findInvalid(s Session, rowKey string) (Record, bool) {
	for _, row := range s.Classification.Invalid {
		if RowKey(s.Table.Header, row) == rowKey {
			return row, true
		}
	}
	return nil, false
}
