package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overlayTable(rows ...TableRow) *Table {
	cols := append([]string{}, RequiredColumns...)
	cols = append(cols, OverlayColumns...)
	return &Table{Sheet: "Tests", Columns: cols, Rows: rows}
}

func TestReadOverlayParams(t *testing.T) {
	tbl := overlayTable(
		TableRow{ColVessel: "MV Explorer", ColTrialType: "Annual DP Trials", ColYear: 2025, ColAbreviation: "ADT-01"},
		TableRow{ColVessel: "ignored", ColTrialType: "ignored", ColYear: "1999", ColAbreviation: "ignored"},
	)

	params, err := ReadOverlayParams(tbl, "")
	require.NoError(t, err)
	assert.Equal(t, OverlayParams{
		Vessel:      "MV Explorer",
		TrialType:   "Annual DP Trials",
		YearMonth:   "2025",
		FooterLeft:  DefaultFooterLeft,
		FooterRight: "ADT-01",
	}, params)

	params, err = ReadOverlayParams(tbl, "Acme Assurance")
	require.NoError(t, err)
	assert.Equal(t, "Acme Assurance", params.FooterLeft)
}

func TestReadOverlayParams_MissingColumns(t *testing.T) {
	tbl := overlayTable(TableRow{ColVessel: "MV Explorer"})
	tbl.Columns = tbl.Columns[:len(tbl.Columns)-2]

	_, err := ReadOverlayParams(tbl, "")

	var mergeErr *MergeSourceError
	require.True(t, errors.As(err, &mergeErr), "expected MergeSourceError, got %v", err)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColYear, ColAbreviation}, schemaErr.Missing)
}

func TestReadOverlayParams_NoRows(t *testing.T) {
	for name, tbl := range map[string]*Table{
		"nil table": nil,
		"no rows":   overlayTable(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadOverlayParams(tbl, "")
			var mergeErr *MergeSourceError
			assert.True(t, errors.As(err, &mergeErr), "expected MergeSourceError, got %v", err)
		})
	}
}

func TestDrawOverlay_OnePagePerSize(t *testing.T) {
	sizes := []PageSize{
		{Width: 595.28, Height: 841.89},
		{Width: 612, Height: 792},
		{Width: 841.89, Height: 595.28},
	}
	params := OverlayParams{Vessel: "MV Explorer", TrialType: "DP Trials", YearMonth: "2025", FooterLeft: "Left", FooterRight: "ADT-01"}

	data, err := drawOverlay(sizes, params, nil)
	require.NoError(t, err)

	ctx := readPDF(t, data)
	require.Equal(t, len(sizes), ctx.PageCount)

	dims, err := ctx.PageDims()
	require.NoError(t, err)
	for i, d := range dims {
		assert.InDelta(t, sizes[i].Width, d.Width, 0.5, "page %d width", i+1)
		assert.InDelta(t, sizes[i].Height, d.Height, 0.5, "page %d height", i+1)
	}

	for i := 1; i <= ctx.PageCount; i++ {
		content := pageContent(t, ctx, i)
		assert.Contains(t, content, fmt.Sprintf("(%d) Tj", i), "page number on page %d", i)
		assert.Contains(t, content, "(MV Explorer) Tj")
		assert.Contains(t, content, "(ADT-01) Tj")
		assert.Contains(t, content, "(Left) Tj")
	}
}

func TestDrawOverlay_WithLogo(t *testing.T) {
	data, err := drawOverlay([]PageSize{{Width: 595.28, Height: 841.89}}, OverlayParams{Vessel: "V"}, testLogo(t))
	require.NoError(t, err)

	content := pageContent(t, readPDF(t, data), 1)
	assert.Contains(t, content, " Do")
	assert.True(t, strings.Contains(content, "(V) Tj"))
}

func TestDrawOverlay_NoPages(t *testing.T) {
	_, err := drawOverlay(nil, OverlayParams{}, nil)
	assert.Error(t, err)
}

func TestFitBox(t *testing.T) {
	wide := &Logo{Width: 300, Height: 50}
	w, h := fitBox(wide, overlayLogoW, overlayLogoH)
	assert.InDelta(t, 80, w, 0.001)
	assert.InDelta(t, 80.0/6, h, 0.001)

	tall := &Logo{Width: 100, Height: 100}
	w, h = fitBox(tall, overlayLogoW, overlayLogoH)
	assert.InDelta(t, 30, w, 0.001)
	assert.InDelta(t, 30, h, 0.001)
}
