package services

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(rows ...TableRow) *Table {
	cols := append([]string{}, RequiredColumns...)
	cols = append(cols, ColResultComment, ColAuditorComment, ColObjective, ColDate)
	return &Table{Sheet: "Tests", Columns: cols, Rows: rows}
}

func TestGroupRows_SchemaError(t *testing.T) {
	tbl := &Table{Columns: []string{ColTestNumber, ColSection, ColStep}}

	_, err := GroupRows(tbl, RequiredColumns)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
	assert.Equal(t, []string{ColTest, ColMethod, ColExpectedResult}, schemaErr.Missing)
}

func TestGroupRows_PreservesFirstSeenOrder(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "3", ColSection: "B", ColStep: "a"},
		TableRow{ColTestNumber: "1", ColSection: "A", ColStep: "b"},
		TableRow{ColTestNumber: "3", ColSection: "B", ColStep: "c"},
		TableRow{ColTestNumber: "2", ColSection: "A", ColStep: "d"},
	), RequiredColumns)
	require.NoError(t, err)

	var ids []string
	for _, r := range set.Records() {
		ids = append(ids, r.TestNumber)
	}
	assert.Equal(t, []string{"3", "1", "2"}, ids)
}

func TestGroupRows_SkipsBlankTestNumbers(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "", ColSection: "A", ColStep: "orphan"},
		TableRow{ColTestNumber: "1", ColSection: "A", ColStep: "first"},
		TableRow{ColTestNumber: "nan", ColStep: "also orphan"},
		TableRow{ColTestNumber: "   ", ColStep: "whitespace"},
		TableRow{ColTestNumber: "1", ColStep: "second"},
	), RequiredColumns)
	require.NoError(t, err)

	require.Equal(t, 1, set.Len())
	rec, ok := set.Get("1")
	require.True(t, ok)
	assert.Equal(t, []string{"first", "second"}, rec.Steps)
}

func TestGroupRows_AlignedLists(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "7", ColStep: "s1", ColExpectedResult: "e1"},
		TableRow{ColTestNumber: "7", ColStep: "s2", ColResultComment: "r2"},
		TableRow{ColTestNumber: "7", ColExpectedResult: "e3"},
		TableRow{ColTestNumber: "8", ColStep: "only"},
	), RequiredColumns)
	require.NoError(t, err)

	for _, rec := range set.Records() {
		assert.Len(t, rec.ExpectedResults, len(rec.Steps), "test %s", rec.TestNumber)
		assert.Len(t, rec.ResultComments, len(rec.Steps), "test %s", rec.TestNumber)
	}

	rec, _ := set.Get("7")
	assert.Equal(t, []string{"s1", "s2", ""}, rec.Steps)
	assert.Equal(t, []string{"e1", "", "e3"}, rec.ExpectedResults)
	assert.Equal(t, []string{"", "r2", ""}, rec.ResultComments)
}

func TestGroupRows_StepCommentIndex(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "1", ColStep: "a", ColAuditorComment: "first row"},
		TableRow{ColTestNumber: "2", ColStep: "x"},
		TableRow{ColTestNumber: "1", ColStep: "b"},
		TableRow{ColTestNumber: "1", ColStep: "c", ColAuditorComment: "third row"},
	), RequiredColumns)
	require.NoError(t, err)

	rec, _ := set.Get("1")
	assert.Equal(t, []StepComment{{Step: 1, Text: "first row"}, {Step: 3, Text: "third row"}}, rec.StepComments)
	for _, rec := range set.Records() {
		for _, c := range rec.StepComments {
			assert.GreaterOrEqual(t, c.Step, 1)
			assert.LessOrEqual(t, c.Step, len(rec.Steps))
		}
	}
}

func TestGroupRows_ScalarsFromFirstRow(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "1", ColTest: "Thruster failure", ColMethod: "Trip thruster 1", ColObjective: "Prove redundancy"},
		TableRow{ColTestNumber: "1", ColTest: "ignored", ColMethod: "ignored", ColSection: "ignored"},
	), RequiredColumns)
	require.NoError(t, err)

	rec, _ := set.Get("1")
	assert.Equal(t, "Thruster failure", rec.Title)
	assert.Equal(t, "Trip thruster 1", rec.Method)
	assert.Equal(t, "Prove redundancy", rec.Objective)
	assert.Equal(t, DefaultSection, rec.Section)
}

func TestGroupRows_NumericTestNumber(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: 4, ColStep: "a"},
		TableRow{ColTestNumber: "4", ColStep: "b"},
	), RequiredColumns)
	require.NoError(t, err)

	rec, ok := set.Get("4")
	require.True(t, ok)
	assert.Len(t, rec.Steps, 2)
}

func TestGroupRows_LegacyDateColumn(t *testing.T) {
	tbl := table(TableRow{ColTestNumber: "1", ColDateLegacy: "12/03/2025"})
	tbl.Columns = append(tbl.Columns, ColDateLegacy)

	set, err := GroupRows(tbl, RequiredColumns)
	require.NoError(t, err)

	rec, _ := set.Get("1")
	assert.Equal(t, "12/03/2025", rec.Date)
}

func TestTestSet_Sections(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "1", ColSection: "A"},
		TableRow{ColTestNumber: "2", ColSection: "A"},
		TableRow{ColTestNumber: "3", ColSection: "B"},
		TableRow{ColTestNumber: "4", ColSection: "A"},
	), RequiredColumns)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "A"}, set.Sections())
}

func TestGroupRows_TwoRowsOneTest(t *testing.T) {
	set, err := GroupRows(table(
		TableRow{ColTestNumber: "2", ColSection: "A", ColTest: "T", ColMethod: "M", ColStep: "Step one", ColExpectedResult: "One holds"},
		TableRow{ColTestNumber: "2", ColSection: "A", ColTest: "T", ColMethod: "M", ColStep: "Step two", ColExpectedResult: "Two holds"},
	), RequiredColumns)
	require.NoError(t, err)

	require.Equal(t, 1, set.Len())
	rec, _ := set.Get("2")
	assert.Equal(t, []string{"Step one", "Step two"}, rec.Steps)
	assert.Equal(t, []string{"One holds", "Two holds"}, rec.ExpectedResults)
}

func TestGroupRows_FullRecord(t *testing.T) {
	tbl := table(
		TableRow{ColTestNumber: "5", ColSection: "Power", ColTest: "Blackout", ColMethod: "Trip bus", ColStep: "1. Trip", ColExpectedResult: "Recovers", ColAuditorComment: "Check logs"},
		TableRow{ColTestNumber: "5", ColStep: "2. Restore", ColResultComment: "Not as expected"},
	)
	tbl.Columns = append(tbl.Columns, ColWitness1, ColFMEAReference, ColMaxPositionDeviation)
	tbl.Rows[0][ColWitness1] = "J. Smith"
	tbl.Rows[0][ColFMEAReference] = "FMEA-3.2"
	tbl.Rows[0][ColMaxPositionDeviation] = 1.5

	set, err := GroupRows(tbl, RequiredColumns)
	require.NoError(t, err)
	got, _ := set.Get("5")

	want := &TestRecord{
		TestNumber:           "5",
		Section:              "Power",
		Title:                "Blackout",
		Method:               "Trip bus",
		FMEAReference:        "FMEA-3.2",
		Steps:                []string{"1. Trip", "2. Restore"},
		ExpectedResults:      []string{"Recovers", ""},
		ResultComments:       []string{"", "Not as expected"},
		StepComments:         []StepComment{{Step: 1, Text: "Check logs"}},
		Witness1:             "J. Smith",
		MaxPositionDeviation: "1.5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}
