package services

import (
	"fmt"
	"strings"
)

// SheetNotFoundError is returned when the sheet selector does not resolve to
// a sheet in the uploaded workbook.
type SheetNotFoundError struct {
	Selector  string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("sheet %q not found in workbook", e.Selector)
	}
	return fmt.Sprintf("sheet %q not found in workbook (available: %s)",
		e.Selector, strings.Join(e.Available, ", "))
}

// SchemaError lists the required columns missing from the input table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// SourceReadError wraps any failure to read the uploaded spreadsheet.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read spreadsheet: %v", e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// MergeSourceError is returned when header/footer metadata for the final PDF
// cannot be derived from the spreadsheet.
type MergeSourceError struct {
	Reason string
	Err    error
}

func (e *MergeSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot derive header/footer data: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot derive header/footer data: %s", e.Reason)
}

func (e *MergeSourceError) Unwrap() error { return e.Err }

// AssetMissingError reports a logo that could not be loaded. It is never
// fatal: callers log it and render without the image.
type AssetMissingError struct {
	Path string
	Err  error
}

func (e *AssetMissingError) Error() string {
	return fmt.Sprintf("asset %q unavailable: %v", e.Path, e.Err)
}

func (e *AssetMissingError) Unwrap() error { return e.Err }

// ConfigError reports document settings that failed validation.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid document settings: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
