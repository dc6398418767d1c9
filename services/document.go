package services

import "strings"

// Align is the horizontal alignment of a paragraph.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// Run is a span of text sharing one character style. A zero Size means the
// body size of the document; an empty Color means the palette text colour.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Size      float64
	Color     string
}

// Paragraph is a line of runs. Spacing is in points.
type Paragraph struct {
	Runs        []Run
	Align       Align
	SpaceBefore float64
	SpaceAfter  float64
}

// Text joins the text of all runs.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// GridCell is one cell of a Grid.
type GridCell struct {
	Paragraphs []Paragraph
	Style      CellStyle
}

// Block is one element of the document body.
type Block interface {
	block()
}

// PageBreak starts a new page.
type PageBreak struct{}

// Spacer inserts empty body-size lines.
type Spacer struct {
	Lines int
}

// Grid is a table of styled cells. Every row has the same number of cells.
type Grid struct {
	Rows [][]GridCell
}

func (PageBreak) block() {}
func (Spacer) block()    {}
func (Paragraph) block() {}
func (Grid) block()      {}

// Outline records what the layout engine emitted.
type Outline struct {
	Sections []string
	Tests    []string
}

// Document is the backend-neutral output of the layout engine. The DOCX and
// PDF writers both consume it.
type Document struct {
	Config  DocumentConfig
	Logo    *Logo
	Blocks  []Block
	Outline Outline
}

// Pages returns the number of pages the document forces, which is one more
// than the number of explicit page breaks.
func (d *Document) Pages() int {
	n := 1
	for _, b := range d.Blocks {
		if _, ok := b.(PageBreak); ok {
			n++
		}
	}
	return n
}

// PlainText returns the visible text of the document, one paragraph per line.
func (d *Document) PlainText() string {
	var lines []string
	for _, b := range d.Blocks {
		switch v := b.(type) {
		case Paragraph:
			lines = append(lines, v.Text())
		case Grid:
			for _, row := range v.Rows {
				for _, cell := range row {
					for _, p := range cell.Paragraphs {
						lines = append(lines, p.Text())
					}
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}
