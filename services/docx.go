package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeDoc      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeStyles   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeSettings = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relTypeHeader   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relTypeImage    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	// A4 in twentieths of a point.
	pageWidthTwips  = 11906
	pageHeightTwips = 16838

	twipsPerInch = 1440
	emuPerInch   = 914400

	logoWidthInches = 1.5
)

// WriteDOCX serialises the document as a WordprocessingML package. The output
// is byte-for-byte stable for identical input.
func WriteDOCX(doc *Document) ([]byte, error) {
	w := newDocxWriter(doc.Config)
	for _, b := range doc.Blocks {
		w.writeBlock(b)
	}

	parts := []docxPart{
		{"[Content_Types].xml", contentTypesXML(doc.Logo != nil)},
		{"_rels/.rels", packageRelsXML()},
		{"word/document.xml", w.documentXML(doc.Logo != nil)},
		{"word/_rels/document.xml.rels", documentRelsXML(doc.Logo != nil)},
		{"word/styles.xml", stylesXML(doc.Config)},
		{"word/settings.xml", settingsXML()},
	}
	if doc.Logo != nil {
		parts = append(parts,
			docxPart{"word/header1.xml", headerXML(doc.Logo)},
			docxPart{"word/_rels/header1.xml.rels", headerRelsXML()},
			docxPart{"word/media/logo.png", doc.Logo.PNG},
		)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx archive: %w", err)
	}
	return buf.Bytes(), nil
}

type docxPart struct {
	name string
	data []byte
}

type docxWriter struct {
	cfg          DocumentConfig
	body         strings.Builder
	contentWidth int
	lastWasGrid  bool
}

func newDocxWriter(cfg DocumentConfig) *docxWriter {
	width := pageWidthTwips - inchesToTwips(cfg.Margins.Left) - inchesToTwips(cfg.Margins.Right)
	return &docxWriter{cfg: cfg, contentWidth: width}
}

func (w *docxWriter) writeBlock(b Block) {
	switch v := b.(type) {
	case PageBreak:
		w.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	case Spacer:
		for i := 0; i < v.Lines; i++ {
			w.body.WriteString(`<w:p/>`)
		}
	case Paragraph:
		w.writeParagraph(&w.body, v)
	case Grid:
		// Adjacent tables are merged by Word unless a paragraph separates them.
		if w.lastWasGrid {
			w.body.WriteString(`<w:p><w:pPr><w:spacing w:before="0" w:after="0" w:line="40" w:lineRule="exact"/></w:pPr></w:p>`)
		}
		w.writeGrid(v)
		w.lastWasGrid = true
		return
	}
	w.lastWasGrid = false
}

func (w *docxWriter) writeParagraph(sb *strings.Builder, p Paragraph) {
	sb.WriteString(`<w:p><w:pPr>`)
	fmt.Fprintf(sb, `<w:spacing w:before="%d" w:after="%d" w:line="240" w:lineRule="auto"/>`,
		pointsToTwips(p.SpaceBefore), pointsToTwips(p.SpaceAfter))
	fmt.Fprintf(sb, `<w:jc w:val="%s"/>`, jcValue(p.Align))
	sb.WriteString(`</w:pPr>`)
	for _, r := range p.Runs {
		w.writeRun(sb, r)
	}
	sb.WriteString(`</w:p>`)
}

func (w *docxWriter) writeRun(sb *strings.Builder, r Run) {
	sb.WriteString(`<w:r><w:rPr>`)
	if r.Bold {
		sb.WriteString(`<w:b/>`)
	}
	if r.Italic {
		sb.WriteString(`<w:i/>`)
	}
	if r.Color != "" {
		fmt.Fprintf(sb, `<w:color w:val="%s"/>`, r.Color)
	}
	if r.Size > 0 {
		hp := halfPoints(r.Size)
		fmt.Fprintf(sb, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	}
	if r.Underline {
		sb.WriteString(`<w:u w:val="single"/>`)
	}
	sb.WriteString(`</w:rPr>`)
	fmt.Fprintf(sb, `<w:t xml:space="preserve">%s</w:t></w:r>`, escapeXML(r.Text))
}

func (w *docxWriter) writeGrid(g Grid) {
	if len(g.Rows) == 0 {
		return
	}
	cols := len(g.Rows[0])
	colWidth := w.contentWidth / cols

	sb := &w.body
	sb.WriteString(`<w:tbl><w:tblPr>`)
	fmt.Fprintf(sb, `<w:tblW w:w="%d" w:type="dxa"/>`, colWidth*cols)
	sb.WriteString(`<w:tblLayout w:type="fixed"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		fmt.Fprintf(sb, `<w:gridCol w:w="%d"/>`, colWidth)
	}
	sb.WriteString(`</w:tblGrid>`)

	for _, row := range g.Rows {
		sb.WriteString(`<w:tr>`)
		for _, cell := range row {
			sb.WriteString(`<w:tc>`)
			applyCellStyle(sb, cell.Style, colWidth)
			if len(cell.Paragraphs) == 0 {
				sb.WriteString(`<w:p/>`)
			}
			for _, p := range cell.Paragraphs {
				w.writeParagraph(sb, p)
			}
			sb.WriteString(`</w:tc>`)
		}
		sb.WriteString(`</w:tr>`)
	}
	sb.WriteString(`</w:tbl>`)
}

// applyCellStyle writes the cell properties for a style descriptor. It is the
// only place cell borders and shading are emitted.
func applyCellStyle(sb *strings.Builder, s CellStyle, width int) {
	sb.WriteString(`<w:tcPr>`)
	fmt.Fprintf(sb, `<w:tcW w:w="%d" w:type="dxa"/>`, width)
	if len(s.Borders) > 0 {
		sb.WriteString(`<w:tcBorders>`)
		for _, edge := range edgeOrder {
			b, ok := s.Borders[edge]
			if !ok {
				continue
			}
			color := b.Color
			if color == "" {
				color = "auto"
			}
			fmt.Fprintf(sb, `<w:%s w:val="%s" w:sz="%d" w:space="0" w:color="%s"/>`,
				edge, b.Style, b.Weight, color)
		}
		sb.WriteString(`</w:tcBorders>`)
	}
	if s.Shading != "" {
		fmt.Fprintf(sb, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, s.Shading)
	}
	sb.WriteString(`</w:tcPr>`)
}

func (w *docxWriter) documentXML(withHeader bool) []byte {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<w:document xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s"><w:body>`,
		nsW, nsR, nsWP, nsA, nsPic)
	sb.WriteString(w.body.String())
	if w.lastWasGrid || w.body.Len() == 0 {
		sb.WriteString(`<w:p/>`)
	}

	m := w.cfg.Margins
	sb.WriteString(`<w:sectPr>`)
	if withHeader {
		sb.WriteString(`<w:headerReference w:type="default" r:id="rId3"/>`)
	}
	fmt.Fprintf(&sb, `<w:pgSz w:w="%d" w:h="%d"/>`, pageWidthTwips, pageHeightTwips)
	fmt.Fprintf(&sb, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/>`,
		inchesToTwips(m.Top), inchesToTwips(m.Right), inchesToTwips(m.Bottom), inchesToTwips(m.Left))
	sb.WriteString(`</w:sectPr></w:body></w:document>`)
	return []byte(sb.String())
}

func contentTypesXML(withLogo bool) []byte {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	sb.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	sb.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	sb.WriteString(`<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>`)
	if withLogo {
		sb.WriteString(`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`)
	}
	sb.WriteString(`</Types>`)
	return []byte(sb.String())
}

func packageRelsXML() []byte {
	return []byte(xmlHeader + fmt.Sprintf(
		`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s" Target="word/document.xml"/></Relationships>`,
		nsRel, relTypeDoc))
}

func documentRelsXML(withHeader bool) []byte {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<Relationships xmlns="%s">`, nsRel)
	fmt.Fprintf(&sb, `<Relationship Id="rId1" Type="%s" Target="styles.xml"/>`, relTypeStyles)
	fmt.Fprintf(&sb, `<Relationship Id="rId2" Type="%s" Target="settings.xml"/>`, relTypeSettings)
	if withHeader {
		fmt.Fprintf(&sb, `<Relationship Id="rId3" Type="%s" Target="header1.xml"/>`, relTypeHeader)
	}
	sb.WriteString(`</Relationships>`)
	return []byte(sb.String())
}

func headerRelsXML() []byte {
	return []byte(xmlHeader + fmt.Sprintf(
		`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s" Target="media/logo.png"/></Relationships>`,
		nsRel, relTypeImage))
}

func stylesXML(cfg DocumentConfig) []byte {
	font := escapeXML(cfg.FontFamily)
	hp := halfPoints(cfg.BodySize)
	fonts := fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s" w:cs="%s"/>`, font, font, font, font)

	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<w:styles xmlns:w="%s">`, nsW)
	fmt.Fprintf(&sb, `<w:docDefaults><w:rPrDefault><w:rPr>%s<w:sz w:val="%d"/><w:szCs w:val="%d"/><w:lang w:val="en-US"/></w:rPr></w:rPrDefault>`, fonts, hp, hp)
	sb.WriteString(`<w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)
	fmt.Fprintf(&sb, `<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/><w:rPr>%s<w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr></w:style>`, fonts, hp, hp)
	sb.WriteString(`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/><w:uiPriority w:val="99"/><w:semiHidden/><w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/><w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>`)
	sb.WriteString(`</w:styles>`)
	return []byte(sb.String())
}

func settingsXML() []byte {
	return []byte(xmlHeader + fmt.Sprintf(
		`<w:settings xmlns:w="%s"><w:defaultTabStop w:val="720"/><w:compat><w:compatSetting w:name="compatibilityMode" w:uri="http://schemas.microsoft.com/office/word" w:val="15"/></w:compat></w:settings>`,
		nsW))
}

func headerXML(logo *Logo) []byte {
	cx := int64(logoWidthInches * emuPerInch)
	cy := int64(math.Round(float64(cx) * logo.AspectRatio()))

	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<w:hdr xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s">`,
		nsW, nsR, nsWP, nsA, nsPic)
	sb.WriteString(`<w:p><w:r><w:drawing>`)
	fmt.Fprintf(&sb, `<wp:inline distT="0" distB="0" distL="0" distR="0"><wp:extent cx="%d" cy="%d"/>`, cx, cy)
	sb.WriteString(`<wp:docPr id="1" name="Logo"/><wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	sb.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:pic>`)
	sb.WriteString(`<pic:nvPicPr><pic:cNvPr id="0" name="logo.png"/><pic:cNvPicPr/></pic:nvPicPr>`)
	sb.WriteString(`<pic:blipFill><a:blip r:embed="rId1"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`)
	fmt.Fprintf(&sb, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, cx, cy)
	sb.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p></w:hdr>`)
	return []byte(sb.String())
}

func jcValue(a Align) string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "both"
	}
	return "left"
}

func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func inchesToTwips(in float64) int {
	return int(math.Round(in * twipsPerInch))
}

func pointsToTwips(pt float64) int {
	return int(math.Round(pt * 20))
}

func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}
