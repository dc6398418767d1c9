package services

// Column names of the input sheet.
const (
	ColTestNumber           = "test number"
	ColSection              = "Section"
	ColTest                 = "Test"
	ColMethod               = "Method"
	ColStep                 = "Step"
	ColExpectedResult       = "Expected Result"
	ColResultComment        = "Result + Comment"
	ColWitness1             = "Witness 1"
	ColWitness2             = "Witness 2"
	ColDate                 = "Date"
	ColDateLegacy           = "Date:"
	ColFMEAReference        = "FMEA Reference"
	ColSubSystem            = "Sub-System"
	ColObjective            = "Objective"
	ColAuditorComment       = "Auditor FMEA Comment"
	ColMaxPositionDeviation = "Max. Position Deviation (meters)"
	ColMaxHeadingDeviation  = "Max. Heading Deviation (degrees)"
)

// DefaultSection is used for tests whose Section cell is blank.
const DefaultSection = "General"

// RequiredColumns must all be present in the header of the input sheet.
var RequiredColumns = []string{
	ColTestNumber,
	ColSection,
	ColTest,
	ColMethod,
	ColStep,
	ColExpectedResult,
}

// StepComment is an auditor remark attached to one step of a test.
type StepComment struct {
	Step int // 1-based position within the test's step list
	Text string
}

// TestRecord aggregates every row sharing one test number.
type TestRecord struct {
	TestNumber    string
	Section       string
	Title         string
	Method        string
	Objective     string
	FMEAReference string
	SubSystem     string

	// Steps, ExpectedResults and ResultComments are index aligned.
	Steps           []string
	ExpectedResults []string
	ResultComments  []string

	StepComments []StepComment

	Witness1             string
	Witness2             string
	Date                 string
	MaxPositionDeviation string
	MaxHeadingDeviation  string
}

// TestSet is an insertion-ordered mapping from test number to record.
type TestSet struct {
	order []string
	byID  map[string]*TestRecord
}

func newTestSet() *TestSet {
	return &TestSet{byID: make(map[string]*TestRecord)}
}

// Len returns the number of distinct tests.
func (s *TestSet) Len() int { return len(s.order) }

// Get returns the record for a test number.
func (s *TestSet) Get(id string) (*TestRecord, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Records returns the tests in first-seen order.
func (s *TestSet) Records() []*TestRecord {
	out := make([]*TestRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Sections returns one entry per maximal run of consecutive records sharing a
// section label. A label may appear more than once if its tests are not
// contiguous in the sheet.
func (s *TestSet) Sections() []string {
	var out []string
	for i, id := range s.order {
		sec := s.byID[id].Section
		if i == 0 || sec != out[len(out)-1] {
			out = append(out, sec)
		}
	}
	return out
}

// GroupRows folds the flat table into test records. It fails with a
// SchemaError when any of the required columns is absent from the header.
// Rows with a blank test number are skipped.
func GroupRows(t *Table, required []string) (*TestSet, error) {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	set := newTestSet()
	for _, row := range t.Rows {
		id := row.Text(ColTestNumber)
		if id == "" {
			continue
		}

		rec, ok := set.byID[id]
		if !ok {
			rec = newTestRecord(id, row)
			set.byID[id] = rec
			set.order = append(set.order, id)
		}

		rec.Steps = append(rec.Steps, row.Text(ColStep))
		rec.ExpectedResults = append(rec.ExpectedResults, row.Text(ColExpectedResult))
		rec.ResultComments = append(rec.ResultComments, row.Text(ColResultComment))

		if c := row.Text(ColAuditorComment); c != "" {
			rec.StepComments = append(rec.StepComments, StepComment{
				Step: len(rec.Steps),
				Text: c,
			})
		}
	}
	return set, nil
}

// newTestRecord seeds the scalar fields from the first row of a group.
func newTestRecord(id string, row TableRow) *TestRecord {
	section := row.Text(ColSection)
	if section == "" {
		section = DefaultSection
	}
	return &TestRecord{
		TestNumber:           id,
		Section:              section,
		Title:                row.Text(ColTest),
		Method:               row.Text(ColMethod),
		Objective:            row.Text(ColObjective),
		FMEAReference:        row.Text(ColFMEAReference),
		SubSystem:            row.Text(ColSubSystem),
		Witness1:             row.Text(ColWitness1),
		Witness2:             row.Text(ColWitness2),
		Date:                 firstNonBlank(row.Text(ColDate), row.Text(ColDateLegacy)),
		MaxPositionDeviation: row.Text(ColMaxPositionDeviation),
		MaxHeadingDeviation:  row.Text(ColMaxHeadingDeviation),
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
