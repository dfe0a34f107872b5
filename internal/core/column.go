package core

import "strings"

// emailHeaderHints are substrings that mark a likely email column,
// checked after an exact "email" match fails.
var emailHeaderHints = []string{"email", "e-mail", "e_mail", "mail"}

// InferEmailColumn picks the header most likely to hold email addresses.
// An exact "email" (ignoring case and surrounding space) wins; otherwise the
// first header containing one of the hints, tried hint by hint. Returns
// false when nothing looks like an email column.
func InferEmailColumn(header []string) (string, bool) {
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "email") {
			return h, true
		}
	}

	for _, hint := range emailHeaderHints {
		for _, h := range header {
			if strings.Contains(strings.ToLower(h), hint) {
				return h, true
			}
		}
	}

	return "", false
}

// CheckColumn returns a *ColumnMismatchError if column is not in header.
func CheckColumn(header []string, column string) error {
	for _, h := range header {
		if h == column {
			return nil
		}
	}
	return &ColumnMismatchError{Column: column, Header: header}
}
