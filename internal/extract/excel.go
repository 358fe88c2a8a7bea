package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// excelText flattens every sheet of a workbook into tab-separated lines, one
// row per line, sheets separated by a header line. That keeps column
// structure visible to the parser agent without committing to any layout.
func excelText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		fmt.Fprintf(&sb, "Sheet: %s\n", sheet)
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
			if sb.Len() > maxTextChars {
				return sb.String(), nil
			}
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
