package handlers

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dpreport/services"
	"dpreport/testhelpers"
)

func trialFile(t *testing.T) testhelpers.FormFile {
	vessel := testhelpers.Row{"Vessel": "MV Explorer", "Type": "Annual DP Trials", "Year": "2025", "Abreviation": "ADT-01"}
	rows := []testhelpers.Row{
		{"test number": 1, "Section": "Power", "Test": "Blackout", "Method": "Trip", "Step": "1. Trip bus", "Expected Result": "Recovers"},
		{"test number": 2, "Section": "Thrusters", "Test": "Thruster loss", "Method": "Stop T1", "Step": "Stop", "Expected Result": "Holds"},
	}
	for _, r := range rows {
		for k, v := range vessel {
			r[k] = v
		}
	}
	return testhelpers.FormFile{
		Name: "trials.xlsx",
		Data: testhelpers.Workbook(t, testhelpers.TrialSheet("Trials", rows...)),
	}
}

func TestHandleIndex(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	err := HandleIndex(testDefaults(t))(newTestRequestEvent(t, req, rec))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		`action="/reports/docx"`,
		`formaction="/reports/pdf"`,
		`action="/reports/merge"`,
		`formaction="/reports/build"`,
		`name="sheet" value="0"`,
		`name="font_family" value="Raleway"`,
		`<option value="compact"`,
	)
}

func TestHandleReportDOCX(t *testing.T) {
	rec := postForm(t, HandleReportDOCX(testGenerator(t), testDefaults(t)), "/reports/docx",
		map[string]string{"sheet": "Trials", "layout": "compact"},
		map[string]testhelpers.FormFile{"file": trialFile(t)},
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, docxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="test_report.docx"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Generated 2 tests in 2 sections")

	data := rec.Body.Bytes()
	_, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	assert.NoError(t, err, "response is not a DOCX package")
}

func TestHandleReportPDF(t *testing.T) {
	rec := postForm(t, HandleReportPDF(testGenerator(t), testDefaults(t)), "/reports/pdf",
		nil,
		map[string]testhelpers.FormFile{"file": trialFile(t)},
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pdfContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestHandleReportDOCX_BadInput(t *testing.T) {
	schemaOnly := testhelpers.FormFile{Name: "bad.csv", Data: testhelpers.CSV(
		[]string{"test number", "Step"},
		testhelpers.Row{"test number": "1", "Step": "x"},
	)}

	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]testhelpers.FormFile
		status int
		body   string
	}{
		{"missing file", nil, nil, http.StatusBadRequest, `please select a file for "file"`},
		{"unknown sheet", map[string]string{"sheet": "Nope"}, map[string]testhelpers.FormFile{"file": trialFile(t)}, http.StatusBadRequest, `sheet "Nope" not found`},
		{"sheet index out of range", map[string]string{"sheet": "3"}, map[string]testhelpers.FormFile{"file": trialFile(t)}, http.StatusBadRequest, `sheet "3" not found`},
		{"missing columns", nil, map[string]testhelpers.FormFile{"file": schemaOnly}, http.StatusBadRequest, "missing required columns"},
		{"not a number", map[string]string{"body_size": "large"}, map[string]testhelpers.FormFile{"file": trialFile(t)}, http.StatusBadRequest, "body_size"},
		{"bad layout", map[string]string{"layout": "poster"}, map[string]testhelpers.FormFile{"file": trialFile(t)}, http.StatusBadRequest, "invalid document settings"},
		{"pdf as spreadsheet", nil, map[string]testhelpers.FormFile{"file": {Name: "x.xlsx", Data: testhelpers.PDF(t, "x")}}, http.StatusBadRequest, "unsupported file type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, HandleReportDOCX(testGenerator(t), testDefaults(t)), "/reports/docx", tt.fields, tt.files)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
			assert.Equal(t, "none", rec.Header().Get("HX-Reswap"))
		})
	}
}

func TestHandleReport_InvalidForm(t *testing.T) {
	rec := post(t, HandleReportDOCX(testGenerator(t), testDefaults(t)), "/reports/docx",
		strings.NewReader("not multipart"), "multipart/form-data; boundary=xyz")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMerge(t *testing.T) {
	rec := postForm(t, HandleMerge(testGenerator(t), testDefaults(t)), "/reports/merge", nil,
		map[string]testhelpers.FormFile{
			"cover":  {Name: "cover.pdf", Data: testhelpers.PDF(t, "Cover")},
			"report": {Name: "report.pdf", Data: testhelpers.PDF(t, "Test 1", "", "Test 2")},
			"file":   trialFile(t),
		},
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pdfContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf(`attachment; filename="%s"`, services.FinalPDFName), rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Final PDF has 3 pages")
}

func TestHandleMerge_MissingOverlayColumns(t *testing.T) {
	sheet := testhelpers.FormFile{Name: "trials.csv", Data: testhelpers.CSV(
		[]string{"test number", "Section", "Test", "Method", "Step", "Expected Result"},
		testhelpers.Row{"test number": "1", "Step": "x"},
	)}

	rec := postForm(t, HandleMerge(testGenerator(t), testDefaults(t)), "/reports/merge", nil,
		map[string]testhelpers.FormFile{
			"cover":  {Name: "cover.pdf", Data: testhelpers.PDF(t, "Cover")},
			"report": {Name: "report.pdf", Data: testhelpers.PDF(t, "Test 1")},
			"file":   sheet,
		},
	)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Vessel")
}

func TestHandleMerge_MissingReport(t *testing.T) {
	rec := postForm(t, HandleMerge(testGenerator(t), testDefaults(t)), "/reports/merge", nil,
		map[string]testhelpers.FormFile{
			"cover": {Name: "cover.pdf", Data: testhelpers.PDF(t, "Cover")},
			"file":  trialFile(t),
		},
	)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"report"`)
}

func TestHandleBuild(t *testing.T) {
	rec := postForm(t, HandleBuild(testGenerator(t), testDefaults(t)), "/reports/build", nil,
		map[string]testhelpers.FormFile{
			"cover": {Name: "cover.pdf", Data: testhelpers.PDF(t, "Cover")},
			"file":  trialFile(t),
		},
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"config", &services.ConfigError{Err: errors.New("x")}, http.StatusBadRequest},
		{"sheet", &services.SheetNotFoundError{Selector: "x"}, http.StatusBadRequest},
		{"schema", &services.SchemaError{Missing: []string{"Step"}}, http.StatusBadRequest},
		{"upload type", &uploadTypeError{Field: "file", Got: "image/png"}, http.StatusBadRequest},
		{"missing upload", errMissingUpload{field: "cover"}, http.StatusBadRequest},
		{"unreadable", &services.SourceReadError{Err: errors.New("zip")}, http.StatusUnprocessableEntity},
		{"merge source", &services.MergeSourceError{Reason: "missing columns", Err: &services.SchemaError{}}, http.StatusUnprocessableEntity},
		{"wrapped", fmt.Errorf("outer: %w", &services.SchemaError{}), http.StatusBadRequest},
		{"internal", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Relatorio_Final_DP.pdf", sanitizeFilename("Relatorio_Final_DP.pdf"))
	assert.Equal(t, "a-b-c-d.pdf", sanitizeFilename(`a b/c:d".pdf`))
}
