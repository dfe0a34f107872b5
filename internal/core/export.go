package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strings"
)

// ExportSuffix is appended to the uploaded base name for the cleaned file.
const ExportSuffix = "_fixed"

// BuildExportTable merges valid rows with invalid rows whose ledger entry
// is resolved. Corrected rows are copies with the email column replaced;
// unresolved invalid rows and all duplicates are left out.
func BuildExportTable(header []string, valid, invalid []Record, ledger *CorrectionLedger) Table {
	rows := make([]Record, 0, len(valid)+len(invalid))
	rows = append(rows, valid...)

	if ledger != nil {
		for _, row := range invalid {
			email, ok := ledger.Resolved(header, row)
			if !ok {
				continue
			}
			fixed := row.Clone()
			fixed[ledger.Column()] = email
			rows = append(rows, fixed)
		}
	}

	return Table{Header: header, Rows: rows}
}

// EncodeCSV serializes a table, header first, in header column order.
func EncodeCSV(t Table, comma rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if comma != 0 {
		w.Comma = comma
	}

	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row.Values(t.Header)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFileName derives the download name from the uploaded file name:
// directories are dropped, a trailing ".csv" (any case) is stripped and
// ExportSuffix plus ".csv" appended.
func ExportFileName(uploadName string) string {
	base := path.Base(strings.ReplaceAll(uploadName, `\`, "/"))
	if len(base) >= 4 && strings.EqualFold(base[len(base)-4:], ".csv") {
		base = base[:len(base)-4]
	}
	if base == "" || base == "." || base == "/" {
		base = "export"
	}
	return base + ExportSuffix + ".csv"
}
