package core

import (
	"regexp"
	"strings"
)

// emailRegex is a syntactic guardrail, not an RFC 5321 validator:
// a local part and a domain, neither containing whitespace or '@',
// where the domain has a dot followed by at least one more character.
//
// Exotic but legal addresses (quoted local parts, dotless intranet
// domains, IP literals) are rejected, and some malformed strings such as
// "a@b..c" are accepted. The upload page states this limitation.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)

// IsValidEmail reports whether s passes the syntactic email check.
// s is tested as given; callers normalize first.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// NormalizeEmail trims surrounding whitespace and lower-cases s.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeRows returns copies of rows with the email column normalized.
// Input rows are not modified. The column must be part of every row's key
// set; use CheckColumn before calling.
func NormalizeRows(rows []Record, column string) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		rec := row.Clone()
		rec[column] = NormalizeEmail(row[column])
		out[i] = rec
	}
	return out
}
