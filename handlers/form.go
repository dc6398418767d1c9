package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"dpreport/services"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 32 << 20

// upload is one file taken from the multipart form.
type upload struct {
	Name string
	Data []byte
}

// errMissingUpload is returned for a file field the user left empty.
type errMissingUpload struct{ field string }

func (e errMissingUpload) Error() string {
	return fmt.Sprintf("please select a file for %q", e.field)
}

// readUpload reads a form file and checks its detected type against allowed.
func readUpload(r *http.Request, field string, allowed ...string) (*upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, errMissingUpload{field: field}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(allowed) > 0 {
		mt := mimetype.Detect(data)
		if !acceptsParent(mt, allowed) {
			return nil, &uploadTypeError{Field: field, Got: mt.String()}
		}
	}
	return &upload{Name: header.Filename, Data: data}, nil
}

// acceptsParent matches the detected type or any of its parents, so a CSV
// detected as text/csv still passes a text/plain rule.
func acceptsParent(mt *mimetype.MIME, allowed []string) bool {
	for p := mt; p != nil; p = p.Parent() {
		if mimetype.EqualsAny(p.String(), allowed...) {
			return true
		}
	}
	return false
}

// uploadTypeError reports a file of the wrong kind in a form field.
type uploadTypeError struct {
	Field string
	Got   string
}

func (e *uploadTypeError) Error() string {
	return fmt.Sprintf("%s: unsupported file type %s", e.Field, e.Got)
}

var (
	spreadsheetTypes = []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/zip",
		"text/csv",
		"text/plain",
	}
	pdfTypes = []string{"application/pdf"}
)

// configFromForm overlays the submitted form fields on the defaults. Empty
// fields keep the default value.
func configFromForm(e *core.RequestEvent, defaults services.DocumentConfig) (services.DocumentConfig, error) {
	cfg := defaults
	form := e.Request.FormValue

	if v := strings.TrimSpace(form("sheet")); v != "" {
		cfg.Sheet = services.ParseSheetSelector(v)
	}
	if v := strings.TrimSpace(form("font_family")); v != "" {
		cfg.FontFamily = v
	}
	if v := strings.TrimSpace(form("layout")); v != "" {
		cfg.Layout = services.LayoutVariant(v)
	}

	numbers := []struct {
		field string
		dst   *float64
	}{
		{"title_size", &cfg.TitleSize},
		{"subtitle_size", &cfg.SubtitleSize},
		{"body_size", &cfg.BodySize},
		{"margin_top", &cfg.Margins.Top},
		{"margin_bottom", &cfg.Margins.Bottom},
		{"margin_left", &cfg.Margins.Left},
		{"margin_right", &cfg.Margins.Right},
	}
	for _, n := range numbers {
		v := strings.TrimSpace(form(n.field))
		if v == "" {
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return cfg, &services.ConfigError{Err: fmt.Errorf("%s: %q is not a number", n.field, v)}
		}
		*n.dst = f
	}

	if err := cfg.Validate(); err != nil {
		return cfg, &services.ConfigError{Err: err}
	}
	return cfg, nil
}
