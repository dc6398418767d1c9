package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Download names of the generated artifacts.
const (
	ReportDOCXName = "test_report.docx"
	ReportPDFName  = "test_report.pdf"
	FinalPDFName   = "Relatorio_Final_DP.pdf"
)

// Input is one spreadsheet upload plus the settings to render it with.
type Input struct {
	Data     []byte
	FileName string
	Config   DocumentConfig
}

// Output is a rendered report.
type Output struct {
	Bytes    []byte
	FileName string
	Tests    int
	Sections int
	Pages    int
}

// Generator runs the whole pipeline: read, group, lay out, write, convert
// and merge. Both the HTTP handlers and the CLI go through it.
type Generator struct {
	logger    *zap.Logger
	converter Converter
}

// NewGenerator returns a generator. A nil converter makes Build render the
// report PDF directly instead of converting the DOCX.
func NewGenerator(logger *zap.Logger, converter Converter) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger, converter: converter}
}

type prepared struct {
	log   *zap.Logger
	table *Table
	doc   *Document
}

func (g *Generator) prepare(in Input) (*prepared, error) {
	log := g.logger.With(zap.String("generation_id", uuid.NewString()))

	if err := in.Config.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	table, err := ReadTable(in.Data, in.FileName, in.Config.Sheet)
	if err != nil {
		return nil, err
	}
	set, err := GroupRows(table, RequiredColumns)
	if err != nil {
		return nil, err
	}

	logo := g.loadLogo(log, in.Config.LogoPath)
	doc := Layout(set, in.Config, logo)

	log.Info("laid out report",
		zap.String("sheet", table.Sheet),
		zap.Int("tests", set.Len()),
		zap.Int("sections", len(doc.Outline.Sections)),
		zap.String("input", humanize.Bytes(uint64(len(in.Data)))),
	)
	return &prepared{log: log, table: table, doc: doc}, nil
}

// loadLogo never fails the generation: a missing logo is logged and skipped.
func (g *Generator) loadLogo(log *zap.Logger, path string) *Logo {
	if path == "" {
		return nil
	}
	logo, err := LoadLogo(path, logoWidthPx)
	if err != nil {
		var missing *AssetMissingError
		if errors.As(err, &missing) {
			log.Warn("logo unavailable, rendering without it", zap.String("path", path), zap.Error(err))
			return nil
		}
		log.Warn("failed to load logo", zap.Error(err))
		return nil
	}
	return logo
}

// GenerateDOCX renders the uploaded table as a DOCX report.
func (g *Generator) GenerateDOCX(ctx context.Context, in Input) (*Output, error) {
	p, err := g.prepare(in)
	if err != nil {
		return nil, err
	}
	data, err := WriteDOCX(p.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to write DOCX: %w", err)
	}
	p.log.Info("generated DOCX", zap.String("bytes", humanize.Bytes(uint64(len(data)))))
	return p.output(data, ReportDOCXName), nil
}

// GeneratePDF renders the uploaded table directly as a PDF report.
func (g *Generator) GeneratePDF(ctx context.Context, in Input) (*Output, error) {
	p, err := g.prepare(in)
	if err != nil {
		return nil, err
	}
	data, err := WritePDF(p.doc)
	if err != nil {
		return nil, err
	}
	p.log.Info("generated PDF", zap.String("bytes", humanize.Bytes(uint64(len(data)))))
	return p.output(data, ReportPDFName), nil
}

// Merge joins a cover PDF with an already rendered report PDF. The header and
// footer text comes from the spreadsheet.
func (g *Generator) Merge(ctx context.Context, cover, report []byte, in Input) (*MergeResult, error) {
	log := g.logger.With(zap.String("generation_id", uuid.NewString()))
	if err := in.Config.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	table, err := ReadTable(in.Data, in.FileName, in.Config.Sheet)
	if err != nil {
		return nil, err
	}
	params, err := ReadOverlayParams(table, in.Config.FooterLeft)
	if err != nil {
		return nil, err
	}
	return g.merge(ctx, log, cover, report, params, in.Config)
}

// Build runs the full pipeline from spreadsheet to final PDF: the report is
// rendered, converted and merged behind the cover. The header and footer
// metadata is checked before any conversion runs.
func (g *Generator) Build(ctx context.Context, cover []byte, in Input) (*MergeResult, error) {
	p, err := g.prepare(in)
	if err != nil {
		return nil, err
	}
	params, err := ReadOverlayParams(p.table, in.Config.FooterLeft)
	if err != nil {
		return nil, err
	}

	var report []byte
	if g.converter != nil {
		docx, err := WriteDOCX(p.doc)
		if err != nil {
			return nil, fmt.Errorf("failed to write DOCX: %w", err)
		}
		report, err = g.converter.ConvertToPDF(ctx, docx)
		if err != nil {
			return nil, fmt.Errorf("failed to convert report: %w", err)
		}
	} else {
		report, err = WritePDF(p.doc)
		if err != nil {
			return nil, err
		}
	}
	return g.merge(ctx, p.log, cover, report, params, in.Config)
}

func (g *Generator) merge(ctx context.Context, log *zap.Logger, cover, report []byte, params OverlayParams, cfg DocumentConfig) (*MergeResult, error) {
	logo := g.loadLogo(log, cfg.LogoPath)
	res, err := NewMerger(log, logo).Merge(ctx, cover, report, params)
	if err != nil {
		return nil, err
	}
	log.Info("generated final PDF",
		zap.String("vessel", params.Vessel),
		zap.Int("pages", res.Pages),
		zap.Int("dropped_blank", res.DroppedBlank),
		zap.String("bytes", humanize.Bytes(uint64(len(res.PDF)))),
	)
	return res, nil
}

func (p *prepared) output(data []byte, name string) *Output {
	return &Output{
		Bytes:    data,
		FileName: name,
		Tests:    len(p.doc.Outline.Tests),
		Sections: len(p.doc.Outline.Sections),
		Pages:    p.doc.Pages(),
	}
}
