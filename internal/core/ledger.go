package core

// CorrectionLedger holds user-supplied replacement emails for invalid rows.
//
// Entries are keyed by RowKey, the row's content, because rows have no
// surrogate id. Two textually identical invalid rows therefore share a
// single correction slot. Every candidate is stored, valid or not, so
// in-progress edits survive; only candidates that validate after
// normalization are resolved and eligible for export.
type CorrectionLedger struct {
	column  string
	entries map[string]string
}

// NewCorrectionLedger returns an empty ledger for one email column.
func NewCorrectionLedger(column string) *CorrectionLedger {
	return &CorrectionLedger{
		column:  column,
		entries: make(map[string]string),
	}
}

// Column returns the email column the ledger corrects.
func (l *CorrectionLedger) Column() string {
	return l.column
}

// Record stores candidate for row, replacing any earlier value, and reports
// whether the entry is now resolved. Like file values, the candidate is
// normalized before it is validated.
func (l *CorrectionLedger) Record(header []string, row Record, candidate string) bool {
	l.entries[RowKey(header, row)] = candidate
	return IsValidEmail(NormalizeEmail(candidate))
}

// Candidate returns the raw value last recorded for row.
func (l *CorrectionLedger) Candidate(header []string, row Record) (string, bool) {
	v, ok := l.entries[RowKey(header, row)]
	return v, ok
}

// Resolved returns the normalized replacement for row if its entry passes
// validation.
func (l *CorrectionLedger) Resolved(header []string, row Record) (string, bool) {
	v, ok := l.entries[RowKey(header, row)]
	if !ok {
		return "", false
	}
	email := NormalizeEmail(v)
	if !IsValidEmail(email) {
		return "", false
	}
	return email, true
}

// Len returns the number of stored entries, resolved or not.
func (l *CorrectionLedger) Len() int {
	return len(l.entries)
}

// Clone returns an independent copy of the ledger.
func (l *CorrectionLedger) Clone() *CorrectionLedger {
	c := NewCorrectionLedger(l.column)
	for k, v := range l.entries {
		c.entries[k] = v
	}
	return c
}
