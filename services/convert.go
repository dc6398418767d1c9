package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Converter turns a DOCX document into PDF.
type Converter interface {
	ConvertToPDF(ctx context.Context, docx []byte) ([]byte, error)
}

// SofficeConverter converts with a headless LibreOffice install.
type SofficeConverter struct {
	// Binary is the soffice executable. Empty means "soffice" on PATH.
	Binary string
}

// ConvertToPDF writes the document to a scratch directory, runs soffice on
// it and returns the produced PDF. The context bounds the child process.
func (c SofficeConverter) ConvertToPDF(ctx context.Context, docx []byte) ([]byte, error) {
	bin := c.Binary
	if bin == "" {
		bin = "soffice"
	}

	dir, err := os.MkdirTemp("", "dpreport-convert-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "report.docx")
	if err := os.WriteFile(in, docx, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"--headless",
		// A private profile keeps concurrent runs from fighting over one lock.
		"-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(dir, "profile")),
		"--convert-to", "pdf",
		"--outdir", dir,
		in,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soffice cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soffice failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	out, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	if err != nil {
		return nil, fmt.Errorf("soffice produced no PDF: %w", err)
	}
	return out, nil
}
