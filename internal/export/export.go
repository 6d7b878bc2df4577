// Package export renders report tables as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case; empty means csv.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds the attachment name for a report.
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Table is a rendered report: one header row, the data rows and an optional
// totals row. Money lists the column indexes holding amounts.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
	Money   []int
}

func Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatXLSX:
		return XLSX(w, t)
	default:
		return CSV(w, t)
	}
}

// CSV writes the table with a UTF-8 BOM so spreadsheet apps detect the encoding.
func CSV(w io.Writer, t Table) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	if len(t.Footer) > 0 {
		if err := cw.Write(t.Footer); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX writes the table to a single sheet. Money columns are stored as numbers
// with two decimal places.
func XLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Title
	if sheet == "" {
		sheet = "Report"
	}
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	boldAmount, err := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	money := make(map[int]bool, len(t.Money))
	for _, c := range t.Money {
		money[c] = true
	}

	writeRow := func(row int, values []string, style, moneyStyle int) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if money[col] {
				if d, err := decimal.NewFromString(v); err == nil {
					if err := f.SetCellValue(sheet, cell, d.InexactFloat64()); err != nil {
						return err
					}
					if err := f.SetCellStyle(sheet, cell, cell, moneyStyle); err != nil {
						return err
					}
					continue
				}
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := writeRow(1, t.Headers, bold, bold); err != nil {
		return err
	}
	for i, r := range t.Rows {
		if err := writeRow(i+2, r, 0, amount); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		if err := writeRow(len(t.Rows)+2, t.Footer, bold, boldAmount); err != nil {
			return err
		}
	}

	for col, h := range t.Headers {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(len(h) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}
