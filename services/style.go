package services

// Edge names one side of a table cell.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeLeft
	EdgeBottom
	EdgeRight
)

// edgeOrder is the order cell borders are written in WordprocessingML.
var edgeOrder = []Edge{EdgeTop, EdgeLeft, EdgeBottom, EdgeRight}

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeLeft:
		return "left"
	case EdgeBottom:
		return "bottom"
	case EdgeRight:
		return "right"
	}
	return ""
}

// BorderStyle is a WordprocessingML border value.
type BorderStyle string

const (
	BorderSingle BorderStyle = "single"
	BorderNil    BorderStyle = "nil"
)

// Border describes one cell edge. Weight is in eighths of a point.
type Border struct {
	Weight int
	Style  BorderStyle
	Color  string
}

// Borders maps each styled edge to its border. Edges absent from the map are
// left unspecified.
type Borders map[Edge]Border

// CellStyle is the declarative look of a cell: its borders and background.
type CellStyle struct {
	Borders Borders
	Shading string
}

// HasEdge reports whether the edge is drawn.
func (s CellStyle) HasEdge(e Edge) bool {
	b, ok := s.Borders[e]
	return ok && b.Style != BorderNil && b.Style != ""
}

// boxStyle is the detail-box look: top and bottom rules, no side rules so
// consecutive boxes form one visual column.
func boxStyle(p Palette, omitBottom bool) CellStyle {
	rule := Border{Weight: 4, Style: BorderSingle, Color: p.Border}
	none := Border{Weight: 0, Style: BorderNil, Color: "auto"}

	b := Borders{
		EdgeTop:   rule,
		EdgeLeft:  none,
		EdgeRight: none,
	}
	if !omitBottom {
		b[EdgeBottom] = rule
	}
	return CellStyle{Borders: b}
}

// shadedBoxStyle is boxStyle with the palette box shade.
func shadedBoxStyle(p Palette, omitBottom bool) CellStyle {
	s := boxStyle(p, omitBottom)
	s.Shading = p.BoxShade
	return s
}

// bandStyle is the coloured band used for titles and signature labels.
func bandStyle(p Palette) CellStyle {
	s := boxStyle(p, false)
	s.Shading = p.Band
	return s
}
