package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactsCSV = "name,email\n" +
	"Ann,ann@x.com\n" +
	"Bob,BOB@x.com\n" +
	"Cy,cy@\n" +
	"Ann again, Ann@X.com \n" +
	"Di,\n"

func loadedSession(t *testing.T) Session {
	t.Helper()
	s, err := LoadFile(NewSession("s1", time.Now()), "contacts.csv", []byte(contactsCSV), DefaultParseOptions())
	require.NoError(t, err)
	require.Equal(t, StateClassified, s.State)
	return s
}

func invalidKey(t *testing.T, s Session, email string) string {
	t.Helper()
	for _, r := range s.Classification.Invalid {
		if r[s.EmailColumn] == email {
			return RowKey(s.Table.Header, r)
		}
	}
	t.Fatalf("no invalid row with email %q", email)
	return ""
}

// ============================================================================
// LoadFile Tests
// ============================================================================

func TestLoadFile_InfersColumnAndClassifies(t *testing.T) {
	s := loadedSession(t)

	assert.Equal(t, "contacts.csv", s.FileName)
	assert.Equal(t, "email", s.EmailColumn)
	assert.Len(t, s.Table.Rows, 5)
	assert.Len(t, s.Classification.Valid, 2)
	assert.Len(t, s.Classification.Invalid, 2)
	assert.Len(t, s.Classification.Duplicate, 1)
	assert.NotNil(t, s.Ledger)
	assert.Nil(t, s.LastError)
}

func TestLoadFile_WaitsForColumnWhenNoneInferred(t *testing.T) {
	data := "name,contact\nAnn,ann@x.com\n"

	s, err := LoadFile(NewSession("s1", time.Now()), "c.csv", []byte(data), DefaultParseOptions())
	require.NoError(t, err)

	assert.Equal(t, StateParsed, s.State)
	assert.Empty(t, s.EmailColumn)
	assert.Nil(t, s.Ledger)

	s, err = SelectColumn(s, "contact")
	require.NoError(t, err)
	assert.Equal(t, StateClassified, s.State)
	assert.Len(t, s.Classification.Valid, 1)
}

func TestLoadFile_FailureClearsPreviousDocument(t *testing.T) {
	s := loadedSession(t)

	tests := []struct {
		name string
		data string
	}{
		{"parse error", "a,b\n1,2,3\n"},
		{"empty file", ""},
		{"header only", "name,email\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := LoadFile(s, "bad.csv", []byte(tt.data), DefaultParseOptions())
			require.Error(t, err)

			assert.Equal(t, StateEmpty, next.State)
			assert.Empty(t, next.FileName)
			assert.Empty(t, next.Table.Rows)
			assert.Nil(t, next.Ledger)
			assert.Zero(t, next.Classification.Total())
			assert.Equal(t, err, next.LastError)
			assert.Equal(t, s.ID, next.ID)
		})
	}
}

func TestLoadFile_NewUploadDiscardsCorrections(t *testing.T) {
	s := loadedSession(t)
	s, _, err := Correct(s, invalidKey(t, s, "cy@"), "cy@x.com")
	require.NoError(t, err)
	require.Equal(t, 1, s.Ledger.Len())

	s, err = LoadFile(s, "again.csv", []byte(contactsCSV), DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Ledger.Len())
	assert.Equal(t, 0, s.Exports)
}

// ============================================================================
// SelectColumn Tests
// ============================================================================

func TestSelectColumn_NoFile(t *testing.T) {
	_, err := SelectColumn(NewSession("s1", time.Now()), "email")
	assert.True(t, errors.Is(err, ErrNoFile))
}

func TestSelectColumn_MismatchKeepsTableDropsClassification(t *testing.T) {
	s := loadedSession(t)

	next, err := SelectColumn(s, "missing")

	var ce *ColumnMismatchError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StateParsed, next.State)
	assert.Equal(t, s.Table, next.Table)
	assert.Empty(t, next.EmailColumn)
	assert.Zero(t, next.Classification.Total())
	assert.Nil(t, next.Ledger)
}

func TestSelectColumn_ResetsCorrections(t *testing.T) {
	s := loadedSession(t)
	s, _, err := Correct(s, invalidKey(t, s, "cy@"), "cy@x.com")
	require.NoError(t, err)

	s, err = SelectColumn(s, "email")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Ledger.Len())
}

func TestSelectColumn_OtherColumn(t *testing.T) {
	s := loadedSession(t)

	s, err := SelectColumn(s, "name")
	require.NoError(t, err)

	assert.Equal(t, "name", s.EmailColumn)
	assert.Empty(t, s.Classification.Valid)
	assert.Len(t, s.Classification.Invalid, 5)
}

// ============================================================================
// Correct Tests
// ============================================================================

func TestCorrect(t *testing.T) {
	s := loadedSession(t)
	key := invalidKey(t, s, "cy@")

	next, resolved, err := Correct(s, key, "bad")
	require.NoError(t, err)
	assert.False(t, resolved)

	next, resolved, err = Correct(next, key, " CY@x.com")
	require.NoError(t, err)
	assert.True(t, resolved)

	// the previous value's ledger is untouched
	assert.Equal(t, 0, s.Ledger.Len())
	assert.Equal(t, 1, next.Ledger.Len())
}

func TestCorrect_Errors(t *testing.T) {
	_, _, err := Correct(NewSession("s1", time.Now()), "k", "a@b.com")
	assert.True(t, errors.Is(err, ErrNotClassified))

	s := loadedSession(t)
	validKey := RowKey(s.Table.Header, s.Classification.Valid[0])
	_, _, err = Correct(s, validKey, "a@b.com")
	assert.True(t, errors.Is(err, ErrUnknownRow))

	_, _, err = Correct(s, "not a key", "a@b.com")
	assert.True(t, errors.Is(err, ErrUnknownRow))
}

// ============================================================================
// Export Tests
// ============================================================================

func TestExport(t *testing.T) {
	s := loadedSession(t)
	s, _, err := Correct(s, invalidKey(t, s, "cy@"), "Cy@X.com")
	require.NoError(t, err)
	s, _, err = Correct(s, invalidKey(t, s, ""), "not valid")
	require.NoError(t, err)

	s, file, err := Export(s, ',')
	require.NoError(t, err)

	assert.Equal(t, "contacts_fixed.csv", file.Name)
	assert.Equal(t, 3, file.Rows)
	assert.Equal(t, "name,email\nAnn,ann@x.com\nBob,bob@x.com\nCy,cy@x.com\n", string(file.Data))
	assert.Equal(t, 1, s.Exports)
	assert.Equal(t, StateClassified, s.State)

	_, _, err = Export(s, ',')
	require.NoError(t, err, "export can be repeated")
}

func TestExport_NotClassified(t *testing.T) {
	_, _, err := Export(NewSession("s1", time.Now()), ',')
	assert.True(t, errors.Is(err, ErrNotClassified))
}

// ============================================================================
// Summarize Tests
// ============================================================================

func TestSummarize(t *testing.T) {
	s := loadedSession(t)
	s, _, _ = Correct(s, invalidKey(t, s, "cy@"), "cy@x.com")
	s, _, _ = Correct(s, invalidKey(t, s, ""), "nope")

	sum := Summarize(s)

	assert.Equal(t, StateClassified, sum.State)
	assert.Equal(t, 5, sum.TotalRows)
	assert.Equal(t, 2, sum.Valid)
	assert.Equal(t, 2, sum.Invalid)
	assert.Equal(t, 1, sum.Duplicate)
	assert.Equal(t, 1, sum.Corrected)
	assert.Equal(t, 3, sum.Exportable)
	require.Len(t, sum.InvalidRows, 2)
	assert.Equal(t, "cy@x.com", sum.InvalidRows[0].Correction)
	assert.True(t, sum.InvalidRows[0].Resolved)
	assert.Equal(t, "nope", sum.InvalidRows[1].Correction)
	assert.False(t, sum.InvalidRows[1].Resolved)
	require.Len(t, sum.DupRows, 1)
	assert.Equal(t, "ann@x.com", sum.DupRows[0].Email)
}

func TestSummarize_LastError(t *testing.T) {
	s, err := LoadFile(NewSession("s1", time.Now()), "e.csv", nil, DefaultParseOptions())
	require.Error(t, err)

	sum := Summarize(s)
	require.NotNil(t, sum.LastError)
	assert.Equal(t, "FILE005", sum.LastError.Code)
	assert.Equal(t, StateEmpty, sum.State)
}

func TestSummarize_CapsListedRows(t *testing.T) {
	prev := MaxListedRows
	MaxListedRows = 1
	t.Cleanup(func() { MaxListedRows = prev })

	sum := Summarize(loadedSession(t))

	assert.Len(t, sum.InvalidRows, 1)
	assert.Equal(t, 2, sum.Invalid)
}
