package services

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const (
	a4WidthMM  = 210.0
	mmPerInch  = 25.4
	mmPerPoint = 0.3528
	gridCols   = 12

	// Rough glyph width of the built-in sans fonts as a fraction of font size.
	avgGlyphWidth = 0.5
	lineSpacing   = 1.25
	cellPadding   = 1.5
	logoHeaderMM  = 18.0
)

// WritePDF renders the document directly to PDF. Pages are split at every
// PageBreak and the logo, when present, is repeated as a page header.
func WritePDF(doc *Document) ([]byte, error) {
	cfg := doc.Config
	builder := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(cfg.Margins.Left * mmPerInch).
		WithTopMargin(cfg.Margins.Top * mmPerInch).
		WithRightMargin(cfg.Margins.Right * mmPerInch).
		WithDefaultFont(&props.Font{
			Family: fontfamily.Helvetica,
			Size:   cfg.BodySize,
			Color:  hexColor(cfg.Palette.Text),
		})

	m := maroto.New(builder.Build())

	r := &pdfRenderer{
		cfg:   cfg,
		width: a4WidthMM - (cfg.Margins.Left+cfg.Margins.Right)*mmPerInch,
	}

	if doc.Logo != nil {
		if err := m.RegisterHeader(r.logoHeader(doc.Logo)...); err != nil {
			return nil, fmt.Errorf("failed to register logo header: %w", err)
		}
	}

	var pages []core.Page
	var current []core.Row
	flush := func() {
		if len(current) > 0 {
			pages = append(pages, page.New().Add(current...))
		}
		current = nil
	}
	for _, b := range doc.Blocks {
		switch v := b.(type) {
		case PageBreak:
			flush()
		case Spacer:
			current = append(current, row.New(float64(v.Lines)*r.lineHeight(cfg.BodySize)))
		case Paragraph:
			current = append(current, r.paragraphRow(v))
		case Grid:
			current = append(current, r.gridRows(v)...)
		}
	}
	flush()
	m.AddPages(pages...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return out.GetBytes(), nil
}

type pdfRenderer struct {
	cfg   DocumentConfig
	width float64 // printable width in mm
}

func (r *pdfRenderer) logoHeader(logo *Logo) []core.Row {
	return []core.Row{
		row.New(logoHeaderMM).Add(
			col.New(3).Add(image.NewFromBytes(logo.PNG, extension.Png, props.Rect{
				Percent: 100,
			})),
			col.New(9),
		),
		row.New(3),
	}
}

func (r *pdfRenderer) paragraphRow(p Paragraph) core.Row {
	h := r.paragraphHeight(p, r.width)
	return row.New(h).Add(col.New(gridCols).Add(r.paragraphText(p, 0, r.width)...))
}

func (r *pdfRenderer) gridRows(g Grid) []core.Row {
	rows := make([]core.Row, 0, len(g.Rows))
	for _, cells := range g.Rows {
		if len(cells) == 0 {
			continue
		}
		span := gridCols / len(cells)
		cellWidth := r.width * float64(span) / gridCols

		height := 0.0
		for _, c := range cells {
			height = math.Max(height, r.cellHeight(c, cellWidth))
		}

		cols := make([]core.Col, 0, len(cells))
		for _, c := range cells {
			cols = append(cols, r.cellCol(c, span, cellWidth))
		}
		rows = append(rows, row.New(height).Add(cols...))
	}
	return rows
}

func (r *pdfRenderer) cellCol(c GridCell, span int, width float64) core.Col {
	comps := make([]core.Component, 0, len(c.Paragraphs))
	top := cellPadding
	for _, p := range c.Paragraphs {
		top += p.SpaceBefore * mmPerPoint
		comps = append(comps, r.paragraphText(p, top, width)...)
		top += r.paragraphHeight(p, width) - p.SpaceBefore*mmPerPoint
	}
	return col.New(span).Add(comps...).WithStyle(applyPDFCellStyle(c.Style))
}

// applyPDFCellStyle maps a cell style onto maroto cell props. Maroto draws
// either all borders or the listed edges, so only drawn edges are kept.
func applyPDFCellStyle(s CellStyle) *props.Cell {
	cell := &props.Cell{}
	var edges border.Type
	if s.HasEdge(EdgeTop) {
		edges += border.Top
	}
	if s.HasEdge(EdgeBottom) {
		edges += border.Bottom
	}
	if s.HasEdge(EdgeLeft) {
		edges += border.Left
	}
	if s.HasEdge(EdgeRight) {
		edges += border.Right
	}
	if edges != border.None {
		cell.BorderType = edges
		cell.BorderThickness = 0.2
		for _, e := range edgeOrder {
			if s.HasEdge(e) {
				cell.BorderColor = hexColor(s.Borders[e].Color)
				break
			}
		}
	}
	if s.Shading != "" {
		cell.BackgroundColor = hexColor(s.Shading)
	}
	return cell
}

// pdfSegment is a stretch of consecutive runs sharing one text style.
type pdfSegment struct {
	text  string
	size  float64
	style fontstyle.Type
	color *props.Color
}

// paragraphText places each style segment of a paragraph as its own text
// component on one baseline, offset by the estimated width of the segments
// before it. width is the cell width in mm.
func (r *pdfRenderer) paragraphText(p Paragraph, top, width float64) []core.Component {
	segs := r.segments(p.Runs)
	if len(segs) == 0 {
		return nil
	}
	pAlign := pdfAlign(p.Align)
	if len(segs) == 1 {
		s := segs[0]
		return []core.Component{text.New(s.text, props.Text{
			Top:   top,
			Left:  cellPadding,
			Right: cellPadding,
			Size:  s.size,
			Style: s.style,
			Align: pAlign,
			Color: s.color,
		})}
	}

	total := 0.0
	for _, s := range segs {
		total += r.textWidth(s.text, s.size)
	}
	usable := width - 2*cellPadding
	left := cellPadding
	if total < usable {
		switch pAlign {
		case align.Center:
			left += (usable - total) / 2
		case align.Right:
			left += usable - total
		}
	}

	comps := make([]core.Component, 0, len(segs))
	for i, s := range segs {
		a := align.Left
		if i == len(segs)-1 && pAlign == align.Justify {
			a = align.Justify
		}
		comps = append(comps, text.New(s.text, props.Text{
			Top:   top,
			Left:  left,
			Right: cellPadding,
			Size:  s.size,
			Style: s.style,
			Align: a,
			Color: s.color,
		}))
		left += r.textWidth(s.text, s.size)
	}
	return comps
}

// segments joins consecutive non-empty runs that render identically.
func (r *pdfRenderer) segments(runs []Run) []pdfSegment {
	var segs []pdfSegment
	for _, run := range runs {
		if run.Text == "" {
			continue
		}
		size, style, color := r.runStyle(run)
		if n := len(segs); n > 0 {
			last := &segs[n-1]
			if last.size == size && last.style == style && *last.color == *color {
				last.text += run.Text
				continue
			}
		}
		segs = append(segs, pdfSegment{text: run.Text, size: size, style: style, color: color})
	}
	return segs
}

// runStyle resolves the font size, style and colour of one run against the
// document defaults.
func (r *pdfRenderer) runStyle(run Run) (float64, fontstyle.Type, *props.Color) {
	size := r.cfg.BodySize
	if run.Size > 0 {
		size = run.Size
	}
	style := fontstyle.Normal
	switch {
	case run.Bold && run.Italic:
		style = fontstyle.BoldItalic
	case run.Bold:
		style = fontstyle.Bold
	case run.Italic:
		style = fontstyle.Italic
	}
	color := run.Color
	if color == "" {
		color = r.cfg.Palette.Text
	}
	return size, style, hexColor(color)
}

// paragraphSize is the largest font size used by a paragraph.
func (r *pdfRenderer) paragraphSize(runs []Run) float64 {
	size := r.cfg.BodySize
	for _, run := range runs {
		if run.Text != "" && run.Size > size {
			size = run.Size
		}
	}
	return size
}

func (r *pdfRenderer) textWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * avgGlyphWidth * mmPerPoint
}

func (r *pdfRenderer) lineHeight(size float64) float64 {
	return size * mmPerPoint * lineSpacing
}

// paragraphHeight estimates the wrapped height of a paragraph in mm.
func (r *pdfRenderer) paragraphHeight(p Paragraph, width float64) float64 {
	size := r.paragraphSize(p.Runs)
	usable := width - 2*cellPadding
	if usable <= 0 {
		usable = width
	}
	lines := math.Max(1, math.Ceil(r.textWidth(p.Text(), size)/usable))
	return lines*r.lineHeight(size) + (p.SpaceBefore+p.SpaceAfter)*mmPerPoint
}

func (r *pdfRenderer) cellHeight(c GridCell, width float64) float64 {
	h := 2 * cellPadding
	for _, p := range c.Paragraphs {
		h += r.paragraphHeight(p, width)
	}
	if len(c.Paragraphs) == 0 {
		h += r.lineHeight(r.cfg.BodySize)
	}
	return h
}

func pdfAlign(a Align) align.Type {
	switch a {
	case AlignCenter:
		return align.Center
	case AlignRight:
		return align.Right
	case AlignJustify:
		return align.Justify
	}
	return align.Left
}

// hexColor parses "RRGGBB". Anything unparsable, including "auto", is black.
func hexColor(hex string) *props.Color {
	if len(hex) != 6 {
		return &props.Color{}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return &props.Color{}
	}
	return &props.Color{
		Red:   int(v >> 16 & 0xFF),
		Green: int(v >> 8 & 0xFF),
		Blue:  int(v & 0xFF),
	}
}
