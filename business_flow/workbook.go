package businessflow

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// sheetRows is one worksheet with its header resolved to column positions
type sheetRows struct {
	name    string
	columns map[string]int
	rows    [][]string
}

// cell returns the trimmed value of column in row, or "" when the row is short
func (s *sheetRows) cell(row []string, column string) string {
	idx, ok := s.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func openWorkbook(r io.Reader) (*excelize.File, error) {
	xl, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, NewBusinessError("INVALID_SPREADSHEET", "Unable to open spreadsheet", fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err))
	}
	return xl, nil
}

// readSheet loads a worksheet and checks that every required column is in its
// first row. Blank rows are dropped and an empty sheet yields no rows.
func readSheet(xl *excelize.File, sheet string, required []string) (*sheetRows, error) {
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, NewBusinessErrorf("INVALID_SPREADSHEET", "Unable to read sheet %s", fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err), sheet)
	}
	if len(rows) == 0 {
		return &sheetRows{name: sheet, columns: map[string]int{}}, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}

	var missing []string
	resolved := make(map[string]int, len(required))
	for _, name := range required {
		idx, ok := columns[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved[name] = idx
	}
	if len(missing) > 0 {
		return nil, NewBusinessErrorf("MISSING_COLUMN", "Sheet %s is missing required columns: %s", ErrMissingColumn, sheet, strings.Join(missing, ", "))
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		data = append(data, row)
	}

	return &sheetRows{name: sheet, columns: resolved, rows: data}, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sheetTable is one worksheet of an export
type sheetTable struct {
	name   string
	header []string
	rows   [][]any
}

// renderWorkbook writes sheets to a uniquely named file under dir, reads it
// back and removes it
func renderWorkbook(dir, kind string, sheets []sheetTable) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	for i, sheet := range sheets {
		if i == 0 {
			if err := xl.SetSheetName(xl.GetSheetName(0), sheet.name); err != nil {
				return nil, err
			}
		} else if _, err := xl.NewSheet(sheet.name); err != nil {
			return nil, err
		}

		header := make([]any, len(sheet.header))
		for j, h := range sheet.header {
			header[j] = h
		}
		if err := xl.SetSheetRow(sheet.name, "A1", &header); err != nil {
			return nil, err
		}
		for ri, row := range sheet.rows {
			cellRef, err := excelize.CoordinatesToCellName(1, ri+2)
			if err != nil {
				return nil, err
			}
			if err := xl.SetSheetRow(sheet.name, cellRef, &row); err != nil {
				return nil, err
			}
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.xlsx", kind, uuid.NewString()))
	if err := xl.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	defer func() { _ = os.Remove(path) }()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook back: %w", err)
	}
	return content, nil
}
