// Package testhelpers builds fixture workbooks, PDFs and upload requests for
// the report generator's tests.
package testhelpers

import (
	"bytes"
	"mime/multipart"
	"sort"
	"strings"
	"testing"

	"github.com/phpdave11/gofpdf"
	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// The report generator keeps no collections, so the app is only bootstrapped.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: t.TempDir(),
	})
	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}
	return app
}

// TrialColumns is the full header of a trial spreadsheet.
var TrialColumns = []string{
	"test number", "Section", "Test", "Method", "Step", "Expected Result",
	"Result + Comment", "Witness 1", "Witness 2", "Date", "FMEA Reference",
	"Sub-System", "Objective", "Auditor FMEA Comment",
	"Max. Position Deviation (meters)", "Max. Heading Deviation (degrees)",
	"Vessel", "Type", "Year", "Abreviation",
}

// Row is one spreadsheet row keyed by column name. Missing keys are blank.
type Row map[string]any

// Sheet is one worksheet of a fixture workbook.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}

// TrialSheet returns a sheet with the full trial header.
func TrialSheet(name string, rows ...Row) Sheet {
	return Sheet{Name: name, Columns: TrialColumns, Rows: rows}
}

// Workbook builds an .xlsx file with the given sheets in order.
func Workbook(t *testing.T, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("add sheet %q: %v", s.Name, err)
		}

		header := make([]any, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
			t.Fatalf("write header: %v", err)
		}

		for r, row := range s.Rows {
			values := make([]any, len(s.Columns))
			for j, c := range s.Columns {
				if v, ok := row[c]; ok {
					values[j] = v
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("write row %d: %v", r+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// CSV renders rows under the given header as comma-separated text.
func CSV(columns []string, rows ...Row) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteString("\n")
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			if v, ok := row[c]; ok {
				s := cast.ToString(v)
				if strings.ContainsAny(s, ",\"\n") {
					s = `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
				}
				cells[i] = s
			}
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// PDF builds an A4 PDF with one page per entry. An empty entry gives a page
// without any text.
func PDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	return SizedPDF(t, 595.28, 841.89, pages...)
}

// SizedPDF is PDF with a custom page size in points.
func SizedPDF(t *testing.T, width, height float64, pages ...string) []byte {
	t.Helper()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetAutoPageBreak(false, 0)
	for _, text := range pages {
		pdf.AddPage()
		if text == "" {
			continue
		}
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(72, 100, text)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// FormFile is a file part of a multipart upload.
type FormFile struct {
	Name string
	Data []byte
}

// Multipart encodes form fields and files. Parts are written in key order so
// requests are reproducible.
func Multipart(t *testing.T, fields map[string]string, files map[string]FormFile) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for _, k := range sortedKeys(fields) {
		if err := w.WriteField(k, fields[k]); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, k := range sortedKeys(files) {
		part, err := w.CreateFormFile(k, files[k].Name)
		if err != nil {
			t.Fatalf("create file part %s: %v", k, err)
		}
		if _, err := part.Write(files[k].Data); err != nil {
			t.Fatalf("write file part %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, w.FormDataContentType()
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
