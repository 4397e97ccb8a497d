package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel flattens every sheet of an .xlsx workbook to tab-separated
// rows, sheets in workbook order. Rows stream through the iterator rather
// than materializing per sheet.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return "", fmt.Errorf("rows for sheet %q: %w", sheet, err)
		}
		for rows.Next() {
			cells, err := rows.Columns()
			if err != nil {
				rows.Close()
				return "", fmt.Errorf("row in sheet %q: %w", sheet, err)
			}
			b.WriteString(strings.Join(cells, "\t"))
			b.WriteByte('\n')
		}
		if err := rows.Close(); err != nil {
			return "", fmt.Errorf("close rows for sheet %q: %w", sheet, err)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
