package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"dpreport/services"
	"dpreport/templates"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	pdfContentType  = "application/pdf"
)

// HandleIndex renders the upload page with the default settings filled in.
// Route: GET /
func HandleIndex(defaults services.DocumentConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data := templates.IndexData{
			Sheet:        defaults.Sheet.String(),
			FontFamily:   defaults.FontFamily,
			TitleSize:    defaults.TitleSize,
			SubtitleSize: defaults.SubtitleSize,
			BodySize:     defaults.BodySize,
			MarginTop:    defaults.Margins.Top,
			MarginBottom: defaults.Margins.Bottom,
			MarginLeft:   defaults.Margins.Left,
			MarginRight:  defaults.Margins.Right,
			Layout:       string(defaults.Layout),
			Layouts:      []string{string(services.LayoutCover), string(services.LayoutCompact)},
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return templates.IndexPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleReportDOCX turns an uploaded spreadsheet into a DOCX report.
// Route: POST /reports/docx
func HandleReportDOCX(gen *services.Generator, defaults services.DocumentConfig) func(*core.RequestEvent) error {
	return handleReport(defaults, "report_docx", gen.GenerateDOCX, docxContentType)
}

// HandleReportPDF turns an uploaded spreadsheet into a PDF report.
// Route: POST /reports/pdf
func HandleReportPDF(gen *services.Generator, defaults services.DocumentConfig) func(*core.RequestEvent) error {
	return handleReport(defaults, "report_pdf", gen.GeneratePDF, pdfContentType)
}

type generateFunc = func(ctx context.Context, in services.Input) (*services.Output, error)

func handleReport(defaults services.DocumentConfig, op string, generate generateFunc, contentType string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		cfg, err := configFromForm(e, defaults)
		if err != nil {
			return respondError(e, op, err)
		}
		sheet, err := readUpload(e.Request, "file", spreadsheetTypes...)
		if err != nil {
			return respondError(e, op, err)
		}

		out, err := generate(e.Request.Context(), services.Input{
			Data:     sheet.Data,
			FileName: sheet.Name,
			Config:   cfg,
		})
		if err != nil {
			return respondError(e, op, err)
		}

		SetToast(e, "success", fmt.Sprintf("Generated %d tests in %d sections", out.Tests, out.Sections))
		return sendFile(e, contentType, out.FileName, out.Bytes)
	}
}

// HandleMerge joins an uploaded cover PDF and report PDF into the final
// stamped PDF. The spreadsheet supplies the header and footer text.
// Route: POST /reports/merge
func HandleMerge(gen *services.Generator, defaults services.DocumentConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		const op = "merge"
		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		cfg, err := configFromForm(e, defaults)
		if err != nil {
			return respondError(e, op, err)
		}
		cover, err := readUpload(e.Request, "cover", pdfTypes...)
		if err != nil {
			return respondError(e, op, err)
		}
		report, err := readUpload(e.Request, "report", pdfTypes...)
		if err != nil {
			return respondError(e, op, err)
		}
		sheet, err := readUpload(e.Request, "file", spreadsheetTypes...)
		if err != nil {
			return respondError(e, op, err)
		}

		res, err := gen.Merge(e.Request.Context(), cover.Data, report.Data, services.Input{
			Data:     sheet.Data,
			FileName: sheet.Name,
			Config:   cfg,
		})
		if err != nil {
			return respondError(e, op, err)
		}
		SetToast(e, "success", fmt.Sprintf("Final PDF has %d pages", res.Pages))
		return sendFile(e, pdfContentType, services.FinalPDFName, res.PDF)
	}
}

// HandleBuild renders the report from the spreadsheet and merges it behind
// the uploaded cover in one step.
// Route: POST /reports/build
func HandleBuild(gen *services.Generator, defaults services.DocumentConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		const op = "build"
		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		cfg, err := configFromForm(e, defaults)
		if err != nil {
			return respondError(e, op, err)
		}
		cover, err := readUpload(e.Request, "cover", pdfTypes...)
		if err != nil {
			return respondError(e, op, err)
		}
		sheet, err := readUpload(e.Request, "file", spreadsheetTypes...)
		if err != nil {
			return respondError(e, op, err)
		}

		res, err := gen.Build(e.Request.Context(), cover.Data, services.Input{
			Data:     sheet.Data,
			FileName: sheet.Name,
			Config:   cfg,
		})
		if err != nil {
			return respondError(e, op, err)
		}
		SetToast(e, "success", fmt.Sprintf("Final PDF has %d pages", res.Pages))
		return sendFile(e, pdfContentType, services.FinalPDFName, res.PDF)
	}
}

// statusFor maps a generation error onto an HTTP status. Errors not raised
// by input checks are internal.
func statusFor(err error) int {
	var (
		cfgErr    *services.ConfigError
		sheetErr  *services.SheetNotFoundError
		schemaErr *services.SchemaError
		readErr   *services.SourceReadError
		mergeErr  *services.MergeSourceError
		typeErr   *uploadTypeError
		missing   errMissingUpload
	)
	switch {
	case errors.As(err, &mergeErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cfgErr), errors.As(err, &sheetErr), errors.As(err, &schemaErr),
		errors.As(err, &typeErr), errors.As(err, &missing):
		return http.StatusBadRequest
	case errors.As(err, &readErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(e *core.RequestEvent, op string, err error) error {
	status := statusFor(err)
	log := GetLogger(e.Request)
	if status == http.StatusInternalServerError {
		log.Error(op+": generation failed", zap.Error(err))
		return ErrorToast(e, status, "Something went wrong. Please try again.")
	}
	log.Info(op+": rejected input", zap.Int("status", status), zap.Error(err))
	return ErrorToast(e, status, err.Error())
}

// sendFile writes a download response.
func sendFile(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	r := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-", `"`, "")
	return r.Replace(s)
}
