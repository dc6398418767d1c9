package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/johnfercher/maroto/v2/pkg/merge"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

var disableConfigDir sync.Once

// MergeResult is the final stamped PDF.
type MergeResult struct {
	PDF          []byte
	Pages        int
	DroppedBlank int
}

// Merger joins a cover PDF with a rendered report and stamps a header and
// footer onto every page of the result.
type Merger struct {
	logger *zap.Logger
	logo   *Logo
	conf   *model.Configuration
}

// NewMerger builds a merger. logo may be nil.
func NewMerger(logger *zap.Logger, logo *Logo) *Merger {
	disableConfigDir.Do(api.DisableConfigDir)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		logger: logger,
		logo:   logo,
		conf:   model.NewDefaultConfiguration(),
	}
}

// Merge drops the report's blank pages, appends the rest after the cover and
// stamps every page. The final page count is the cover's page count plus the
// number of non-blank report pages.
func (m *Merger) Merge(ctx context.Context, cover, report []byte, params OverlayParams) (*MergeResult, error) {
	if err := requirePDF("cover", cover); err != nil {
		return nil, err
	}
	if err := requirePDF("report", report); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "dpreport-merge-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	coverPath := filepath.Join(dir, "cover.pdf")
	reportPath := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(coverPath, cover, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write cover: %w", err)
	}
	if err := os.WriteFile(reportPath, report, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	cleaned, dropped, err := m.dropBlankPages(reportPath, filepath.Join(dir, "report_clean.pdf"))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := [][]byte{cover}
	if cleaned != nil {
		parts = append(parts, cleaned)
	}
	joined := cover
	if len(parts) > 1 {
		joined, err = merge.Bytes(parts...)
		if err != nil {
			return nil, fmt.Errorf("failed to concatenate PDFs: %w", err)
		}
	}
	joinedPath := filepath.Join(dir, "merged.pdf")
	if err := os.WriteFile(joinedPath, joined, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write merged PDF: %w", err)
	}

	sizes, err := pageSizes(joinedPath)
	if err != nil {
		return nil, err
	}
	overlay, err := drawOverlay(sizes, params, m.logo)
	if err != nil {
		return nil, err
	}
	overlayPath := filepath.Join(dir, "overlay.pdf")
	if err := os.WriteFile(overlayPath, overlay, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write overlay: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	finalPath := filepath.Join(dir, "final.pdf")
	// Without a page suffix the overlay is applied page for page.
	if err := api.AddPDFWatermarksFile(joinedPath, finalPath, nil, true, overlayPath, "pos:c, scale:1 abs, rot:0", m.conf); err != nil {
		return nil, fmt.Errorf("failed to stamp header and footer: %w", err)
	}

	pages, err := api.PageCountFile(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to count final pages: %w", err)
	}
	out, err := os.ReadFile(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read final PDF: %w", err)
	}

	m.logger.Info("merged report",
		zap.Int("pages", pages),
		zap.Int("dropped_blank", dropped),
	)
	return &MergeResult{PDF: out, Pages: pages, DroppedBlank: dropped}, nil
}

// dropBlankPages writes the report without its blank pages to out and returns
// the cleaned bytes. A report that is blank throughout yields nil.
func (m *Merger) dropBlankPages(in, out string) ([]byte, int, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read report PDF: %w", err)
	}
	blank, total, err := blankPages(m.logger, data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to inspect report PDF: %w", err)
	}

	switch {
	case len(blank) == 0:
		return data, 0, nil
	case len(blank) == total:
		m.logger.Warn("report has no text pages", zap.Int("pages", total))
		return nil, len(blank), nil
	}

	selected := make([]string, len(blank))
	for i, n := range blank {
		selected[i] = strconv.Itoa(n)
	}
	if err := api.RemovePagesFile(in, out, selected, m.conf); err != nil {
		return nil, 0, fmt.Errorf("failed to remove blank pages: %w", err)
	}
	data, err = os.ReadFile(out)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cleaned report: %w", err)
	}
	m.logger.Debug("removed blank report pages", zap.Ints("pages", blank))
	return data, len(blank), nil
}

func pageSizes(path string) ([]PageSize, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged PDF: %w", err)
	}
	dims, err := pdfCtx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page sizes: %w", err)
	}
	sizes := make([]PageSize, len(dims))
	for i, d := range dims {
		sizes[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return sizes, nil
}

func requirePDF(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%s PDF is empty", name)
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return fmt.Errorf("%s is not a PDF (detected %s)", name, mt.String())
	}
	return nil
}
