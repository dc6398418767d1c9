package services

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	resultsPlaceholder  = "No results or comments provided."
	commentsPlaceholder = "No additional comments"
	escalationPhrase    = "not as expected"
	notAvailable        = "N/A"

	coverLinesBefore = 15
	coverLinesAfter  = 7
)

var numberedLine = regexp.MustCompile(`^(\d+\.)\s*(.*)$`)

// LineKind tells numbered step lines from plain ones.
type LineKind int

const (
	LinePlain LineKind = iota
	LineNumbered
)

// LineClass is the result of ClassifyLine.
type LineClass struct {
	Kind   LineKind
	Prefix string // "3." for numbered lines
	Rest   string // text after the prefix
	Text   string // the whole line
}

// ClassifyLine splits "12. Do something" into its number prefix and the rest.
// Lines without a leading "<digits>." are plain.
func ClassifyLine(text string) LineClass {
	text = strings.TrimSpace(text)
	if m := numberedLine.FindStringSubmatch(text); m != nil {
		return LineClass{Kind: LineNumbered, Prefix: m[1], Rest: m[2], Text: text}
	}
	return LineClass{Kind: LinePlain, Text: text}
}

// isEscalation reports whether a result or comment must be rendered in bold.
func isEscalation(s string) bool {
	return strings.Contains(strings.ToLower(s), escalationPhrase)
}

type layoutState int

const (
	stateInit layoutState = iota
	stateSectionBreak
	stateTestPage
	stateDone
)

type layoutEngine struct {
	cfg   DocumentConfig
	doc   *Document
	state layoutState
}

// Layout renders the grouped tests into a flowed document. A section break is
// emitted for every maximal run of tests sharing a section, and every test
// starts on a new page except the very first page of the document.
func Layout(set *TestSet, cfg DocumentConfig, logo *Logo) *Document {
	e := &layoutEngine{
		cfg: cfg,
		doc: &Document{Config: cfg, Logo: logo},
	}

	current := ""
	for i, rec := range set.Records() {
		if i == 0 || rec.Section != current {
			e.sectionBreak(rec.Section)
			current = rec.Section
		}
		e.testPage(rec)
	}
	e.state = stateDone
	return e.doc
}

func (e *layoutEngine) emit(blocks ...Block) {
	e.doc.Blocks = append(e.doc.Blocks, blocks...)
}

// newPage forces a page break unless nothing has been emitted yet.
func (e *layoutEngine) newPage() {
	if e.state != stateInit {
		e.emit(PageBreak{})
	}
}

func (e *layoutEngine) sectionBreak(title string) {
	e.newPage()
	e.doc.Outline.Sections = append(e.doc.Outline.Sections, title)

	if e.cfg.Layout == LayoutCompact {
		e.emit(Paragraph{
			Runs:       []Run{{Text: title, Bold: true, Underline: true, Size: e.cfg.SubtitleSize + 2}},
			SpaceAfter: 6,
		})
		e.state = stateSectionBreak
		return
	}

	e.emit(
		Spacer{Lines: coverLinesBefore},
		Paragraph{
			Runs:  []Run{{Text: title, Bold: true, Underline: true, Size: e.cfg.TitleSize}},
			Align: AlignCenter,
		},
		Spacer{Lines: coverLinesAfter},
	)
	e.state = stateSectionBreak
}

func (e *layoutEngine) testPage(rec *TestRecord) {
	// The compact heading shares the page with the first test of its section.
	if !(e.cfg.Layout == LayoutCompact && e.state == stateSectionBreak) {
		e.newPage()
	}
	e.state = stateTestPage
	e.doc.Outline.Tests = append(e.doc.Outline.Tests, rec.TestNumber)

	p := e.cfg.Palette

	e.emit(e.titleBand(rec), Spacer{Lines: 1}, e.metadataBand(rec), Spacer{Lines: 1})

	if rec.Objective != "" {
		e.emit(e.detailBox("Objective", textParagraphs(rec.Objective, AlignLeft), shadedBoxStyle(p, false)), Spacer{Lines: 1})
	}
	e.emit(
		e.detailBox("Method", textParagraphs(rec.Method, AlignJustify), shadedBoxStyle(p, false)),
		Spacer{Lines: 1},
		e.detailBox("Steps", e.stepParagraphs(rec.Steps), shadedBoxStyle(p, false)),
		Spacer{Lines: 1},
		e.detailBox("Expected Results", joinedParagraphs(rec.ExpectedResults), shadedBoxStyle(p, false)),
		Spacer{Lines: 1},
		e.detailBox("Results", e.resultParagraphs(rec.ResultComments), shadedBoxStyle(p, false)),
		Spacer{Lines: 1},
		e.detailBox("Comments", e.commentParagraphs(rec.StepComments), shadedBoxStyle(p, true)),
	)

	if rec.MaxPositionDeviation != "" || rec.MaxHeadingDeviation != "" {
		e.emit(e.deviationBand(rec))
	}
	e.emit(Spacer{Lines: 1}, e.signatureBand(rec))
}

func (e *layoutEngine) titleBand(rec *TestRecord) Grid {
	white := e.cfg.Palette.BandText
	size := e.cfg.SubtitleSize
	style := bandStyle(e.cfg.Palette)

	return Grid{Rows: [][]GridCell{{
		{
			Paragraphs: []Paragraph{{Runs: []Run{
				{Text: "TEST NO: ", Bold: true, Size: size, Color: white},
				{Text: rec.TestNumber, Bold: true, Size: size, Color: white},
			}}},
			Style: style,
		},
		{
			Paragraphs: []Paragraph{{Runs: []Run{
				{Text: rec.Title, Bold: true, Size: size, Color: white},
			}}},
			Style: style,
		},
	}}}
}

func (e *layoutEngine) metadataBand(rec *TestRecord) Grid {
	style := boxStyle(e.cfg.Palette, false)
	return Grid{Rows: [][]GridCell{{
		{Paragraphs: []Paragraph{labelled("FMEA Reference: ", orNA(rec.FMEAReference))}, Style: style},
		{Paragraphs: []Paragraph{labelled("Sub-System: ", orNA(rec.SubSystem))}, Style: style},
	}}}
}

// detailBox is a single-cell box with a bold label line above its content.
func (e *layoutEngine) detailBox(label string, content []Paragraph, style CellStyle) Grid {
	paras := make([]Paragraph, 0, len(content)+1)
	paras = append(paras, Paragraph{
		Runs:        []Run{{Text: label + ":", Bold: true, Size: e.cfg.SubtitleSize - 2}},
		SpaceBefore: 3,
	})
	paras = append(paras, content...)
	if len(content) > 0 {
		paras[len(paras)-1].SpaceAfter = 3
	}
	return Grid{Rows: [][]GridCell{{{Paragraphs: paras, Style: style}}}}
}

// stepParagraphs numbers each step by its position unless the step text
// already carries its own "N." prefix.
func (e *layoutEngine) stepParagraphs(steps []string) []Paragraph {
	var out []Paragraph
	for i, step := range steps {
		if isBlank(step) {
			continue
		}
		for j, line := range splitLines(step) {
			c := ClassifyLine(line)
			if j == 0 && c.Kind == LinePlain {
				c = LineClass{Kind: LineNumbered, Prefix: fmt.Sprintf("%d.", i+1), Rest: c.Text, Text: c.Text}
			}
			out = append(out, stepParagraph(c))
		}
	}
	return out
}

func stepParagraph(c LineClass) Paragraph {
	if c.Kind == LineNumbered {
		return Paragraph{Runs: []Run{
			{Text: c.Prefix, Bold: true},
			{Text: " " + c.Rest},
		}}
	}
	return Paragraph{Runs: []Run{{Text: c.Text}}}
}

func (e *layoutEngine) resultParagraphs(results []string) []Paragraph {
	var out []Paragraph
	for _, r := range results {
		if isBlank(r) {
			continue
		}
		bold := isEscalation(r)
		for _, line := range splitLines(r) {
			out = append(out, Paragraph{Runs: []Run{{Text: line, Bold: bold}}})
		}
	}
	if len(out) == 0 {
		return []Paragraph{{Runs: []Run{{Text: resultsPlaceholder, Italic: true}}}}
	}
	return out
}

func (e *layoutEngine) commentParagraphs(comments []StepComment) []Paragraph {
	if len(comments) == 0 {
		return []Paragraph{{Runs: []Run{{Text: commentsPlaceholder, Italic: true}}}}
	}
	out := make([]Paragraph, 0, len(comments))
	for _, c := range comments {
		out = append(out, Paragraph{Runs: []Run{
			{Text: fmt.Sprintf("Step %d: ", c.Step), Bold: true},
			{Text: c.Text, Bold: isEscalation(c.Text)},
		}})
	}
	return out
}

func (e *layoutEngine) deviationBand(rec *TestRecord) Grid {
	style := boxStyle(e.cfg.Palette, false)
	position := notAvailable
	if rec.MaxPositionDeviation != "" {
		position = fmt.Sprintf("< %s meters", rec.MaxPositionDeviation)
	}
	heading := notAvailable
	if rec.MaxHeadingDeviation != "" {
		heading = fmt.Sprintf("< %s degrees", rec.MaxHeadingDeviation)
	}

	cell := func(p Paragraph) GridCell {
		p.Align = AlignCenter
		return GridCell{Paragraphs: []Paragraph{p}, Style: style}
	}
	return Grid{Rows: [][]GridCell{{
		cell(Paragraph{Runs: []Run{{Text: "Max Deviation:", Bold: true}}}),
		cell(labelled("Position: ", position)),
		cell(labelled("Heading: ", heading)),
	}}}
}

func (e *layoutEngine) signatureBand(rec *TestRecord) Grid {
	band := bandStyle(e.cfg.Palette)
	box := boxStyle(e.cfg.Palette, false)
	white := e.cfg.Palette.BandText

	label := func(s string) GridCell {
		return GridCell{
			Paragraphs: []Paragraph{{Runs: []Run{{Text: s, Bold: true, Color: white}}, Align: AlignCenter}},
			Style:      band,
		}
	}
	value := func(s string) GridCell {
		return GridCell{
			Paragraphs: []Paragraph{{Runs: []Run{{Text: s}}, Align: AlignCenter}},
			Style:      box,
		}
	}
	return Grid{Rows: [][]GridCell{
		{label("Witness 1"), label("Witness 2"), label("Date")},
		{value(rec.Witness1), value(rec.Witness2), value(rec.Date)},
	}}
}

func labelled(label, value string) Paragraph {
	return Paragraph{Runs: []Run{
		{Text: label, Bold: true},
		{Text: value},
	}}
}

func textParagraphs(s string, align Align) []Paragraph {
	var out []Paragraph
	for _, line := range splitLines(s) {
		out = append(out, Paragraph{Runs: []Run{{Text: line}}, Align: align})
	}
	return out
}

func joinedParagraphs(entries []string) []Paragraph {
	var out []Paragraph
	for _, entry := range entries {
		if isBlank(entry) {
			continue
		}
		out = append(out, textParagraphs(entry, AlignLeft)...)
	}
	return out
}

// splitLines splits a cell on newlines and drops empty lines.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
