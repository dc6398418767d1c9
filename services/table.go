package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TableRow maps a column name to the scalar value found in that cell.
type TableRow map[string]any

// Text returns the cell as trimmed text. Blank cells, missing columns and the
// literal "nan" all yield "".
func (r TableRow) Text(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	s := strings.TrimSpace(cast.ToString(v))
	if isBlank(s) {
		return ""
	}
	return s
}

// Table is one sheet of the uploaded spreadsheet: a header row plus data rows.
type Table struct {
	Sheet   string
	Columns []string
	Rows    []TableRow
}

// HasColumn reports whether the header contains col.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// ReadTable parses a spreadsheet upload and returns the sheet chosen by sel.
// Excel workbooks (.xlsx) and CSV files are supported.
func ReadTable(data []byte, fileName string, sel SheetSelector) (*Table, error) {
	if len(data) == 0 {
		return nil, &SourceReadError{Err: errors.New("file is empty")}
	}

	switch detectSpreadsheetFormat(data, fileName) {
	case "xlsx":
		return readExcelTable(data, sel)
	case "csv":
		return readCSVTable(data, fileName, sel)
	default:
		return nil, &SourceReadError{
			Err: fmt.Errorf("unsupported file format %q: must be .xlsx or .csv", mimetype.Detect(data).String()),
		}
	}
}

// detectSpreadsheetFormat sniffs the content first and falls back to the file
// extension, since CSV has no magic bytes.
func detectSpreadsheetFormat(data []byte, fileName string) string {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is(xlsxMIME):
		return "xlsx"
	case mt.Is("application/zip") && strings.EqualFold(filepath.Ext(fileName), ".xlsx"):
		return "xlsx"
	case mt.Is("text/csv"):
		return "csv"
	case mt.Is("text/plain") && strings.EqualFold(filepath.Ext(fileName), ".csv"):
		return "csv"
	}
	return ""
}

func readExcelTable(data []byte, sel SheetSelector) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &SourceReadError{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheetName, err := resolveSheet(sheets, sel)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &SourceReadError{Err: fmt.Errorf("read sheet %q: %w", sheetName, err)}
	}
	return buildTable(sheetName, rows)
}

func readCSVTable(data []byte, fileName string, sel SheetSelector) (*Table, error) {
	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if name == "" || name == "." {
		name = "Sheet1"
	}
	sheetName, err := resolveSheet([]string{name}, sel)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &SourceReadError{Err: fmt.Errorf("parse CSV: %w", err)}
	}
	return buildTable(sheetName, rows)
}

// resolveSheet maps the selector onto a sheet name.
func resolveSheet(sheets []string, sel SheetSelector) (string, error) {
	if idx, ok := sel.Index(); ok {
		if idx < 0 || idx >= len(sheets) {
			return "", &SheetNotFoundError{Selector: sel.String(), Available: sheets}
		}
		return sheets[idx], nil
	}
	for _, s := range sheets {
		if s == sel.Name() {
			return s, nil
		}
	}
	return "", &SheetNotFoundError{Selector: sel.String(), Available: sheets}
}

// buildTable turns raw string rows into a Table keyed by the header row.
func buildTable(sheetName string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, &SourceReadError{Err: fmt.Errorf("sheet %q has no header row", sheetName)}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Sheet: sheetName, Columns: header}
	for _, raw := range rows[1:] {
		row := make(TableRow, len(header))
		empty := true
		for i, col := range header {
			if col == "" {
				continue
			}
			val := ""
			if i < len(raw) {
				val = raw[i]
			}
			if strings.TrimSpace(val) != "" {
				empty = false
			}
			row[col] = val
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}
