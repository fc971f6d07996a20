package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_BasicHeader(t *testing.T) {
	rows, rowErrors, err := parseCSV("sku,available\nSH-1,5\nSH-2,0\n")
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "SH-1", rows[0].Fields["sku"])
	assert.Equal(t, "5", rows[0].Fields["available"])
	assert.Equal(t, "0", rows[1].Fields["available"])
}

func TestParseCSV_StripsBOM(t *testing.T) {
	rows, _, err := parseCSV("\uFEFFsku,available\nSH-1,5\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SH-1", rows[0].Fields["sku"])
}

func TestParseCSV_HebrewHeaders(t *testing.T) {
	rows, _, err := parseCSV("מקט,ברקוד,כמות,שמור\nSH-1,7290001,12,2\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "SH-1", rows[0].Fields["sku"])
	assert.Equal(t, "7290001", rows[0].Fields["barcode"])
	assert.Equal(t, "12", rows[0].Fields["available"])
	assert.Equal(t, "2", rows[0].Fields["committed"])
}

func TestParseCSV_QuantityAliasesAvailable(t *testing.T) {
	rows, _, err := parseCSV("SKU,Quantity\nSH-1,7\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].Fields["available"])
}

func TestParseCSV_QuotedValues(t *testing.T) {
	rows, _, err := parseCSV("sku,available\n\"SH,COMMA\",5\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SH,COMMA", rows[0].Fields["sku"])
}

func TestParseCSV_ColumnMismatchIsRowError(t *testing.T) {
	rows, rowErrors, err := parseCSV("sku,available\nSH-1,5\nSH-2,5,extra\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, 3, rowErrors[0].Row)
	assert.Contains(t, rowErrors[0].Error, "Column count mismatch")
}

func TestParseCSV_SkipsBlankLines(t *testing.T) {
	rows, _, err := parseCSV("sku,available\n\nSH-1,5\n\n\nSH-2,3\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// line numbers count the raw file, not the surviving rows
	assert.Equal(t, 3, rows[0].Line)
	assert.Equal(t, 6, rows[1].Line)
}

func TestParseCSV_HeaderValidation(t *testing.T) {
	_, _, err := parseCSV("sku,available")
	assert.ErrorIs(t, err, ErrTooFewLines)

	_, _, err = parseCSV("sku,committed\nSH-1,5\n")
	assert.ErrorIs(t, err, ErrMissingAvailable)

	_, _, err = parseCSV("name,available\nShirt,5\n")
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestParseLine_EscapedQuote(t *testing.T) {
	values := parseLine(`"say ""hi""",5`)
	require.Len(t, values, 2)
	assert.Equal(t, `say "hi"`, values[0])
}
