package table

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
)

// XLSXContentType is the media type of ExportXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sheetNameCleaner = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// ExportXLSX writes rows as a single sheet workbook: one header row with the
// column headers, then one row per record. Money columns are numeric cells.
func ExportXLSX(w io.Writer, title string, columns []registry.Column, rows []records.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		values := make([]any, len(columns))
		for j, c := range columns {
			if c.Style == registry.StyleMoney && r.Has(c.Accessor) {
				values[j] = r.Decimal(c.Accessor).InexactFloat64()
				continue
			}
			values[j] = c.Value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func sheetName(title string) string {
	name := strings.TrimSpace(sheetNameCleaner.Replace(title))
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
