package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Table {
	return Table{
		Title:   "Client payment status",
		Headers: []string{"Bill No", "Bill Total", "Amount Paid", "Balance Due"},
		Rows: [][]string{
			{"B-1", "1180.00", "1060.00", "120.00"},
			{"B-2", "500.00", "0.00", "500.00"},
		},
		Footer: []string{"Total", "1680.00", "1060.00", "620.00"},
		Money:  []int{1, 2, 3},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "status.xlsx", f.Filename("status"))

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sample()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Bill No", "Bill Total", "Amount Paid", "Balance Due"}, records[0])
	assert.Equal(t, []string{"Total", "1680.00", "1060.00", "620.00"}, records[3])
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := "Client payment status"
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	v, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "B-1", v)

	raw, err := f.GetCellValue(sheet, "D4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "620", raw)
}
