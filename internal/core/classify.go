package core

// Classify partitions normalized rows by the validity and uniqueness of
// their email column.
//
// Rows are visited in input order. A row whose email fails IsValidEmail is
// invalid. The first row carrying a given email is valid; every later row
// with the same email is a duplicate, whatever its other columns hold.
// Each group keeps input order.
func Classify(rows []Record, column string) Classification {
	c := Classification{Column: column}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		email := row[column]
		if !IsValidEmail(email) {
			c.Invalid = append(c.Invalid, row)
			continue
		}
		if _, dup := seen[email]; dup {
			c.Duplicate = append(c.Duplicate, row)
			continue
		}
		seen[email] = struct{}{}
		c.Valid = append(c.Valid, row)
	}

	return c
}

// RunPipeline normalizes and classifies a parsed table for one column.
// Returns a *ColumnMismatchError if the column is not in the header.
func RunPipeline(t Table, column string) (Classification, error) {
	if err := CheckColumn(t.Header, column); err != nil {
		return Classification{}, err
	}
	return Classify(NormalizeRows(t.Rows, column), column), nil
}
