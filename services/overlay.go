package services

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"
)

// Overlay columns read from the first data row.
const (
	ColVessel      = "Vessel"
	ColTrialType   = "Type"
	ColYear        = "Year"
	ColAbreviation = "Abreviation"
)

// OverlayColumns are the columns the header/footer stamp needs.
var OverlayColumns = []string{ColVessel, ColTrialType, ColYear, ColAbreviation}

const (
	overlayMargin     = 40.0
	overlayHeaderY    = 30.0
	overlayFooterY    = 20.0
	overlayHeaderSize = 12.0
	overlayFooterSize = 10.0
	overlayLogoW      = 80.0
	overlayLogoH      = 30.0
	overlayLogoGap    = 10.0
	overlayFont       = "Helvetica"
)

// OverlayParams is the text stamped on every page of the final PDF.
type OverlayParams struct {
	Vessel      string
	TrialType   string
	YearMonth   string
	FooterLeft  string
	FooterRight string
}

// ReadOverlayParams takes the vessel, trial type, year and document
// abbreviation from the first data row of the table.
func ReadOverlayParams(t *Table, footerLeft string) (OverlayParams, error) {
	if t == nil {
		return OverlayParams{}, &MergeSourceError{Reason: "no table"}
	}
	var missing []string
	for _, col := range OverlayColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return OverlayParams{}, &MergeSourceError{
			Reason: "missing columns",
			Err:    &SchemaError{Missing: missing},
		}
	}
	if len(t.Rows) == 0 {
		return OverlayParams{}, &MergeSourceError{Reason: "sheet has no data rows"}
	}
	if footerLeft == "" {
		footerLeft = DefaultFooterLeft
	}

	first := t.Rows[0]
	return OverlayParams{
		Vessel:      first.Text(ColVessel),
		TrialType:   first.Text(ColTrialType),
		YearMonth:   first.Text(ColYear),
		FooterLeft:  footerLeft,
		FooterRight: first.Text(ColAbreviation),
	}, nil
}

// PageSize is a page width and height in PDF points.
type PageSize struct {
	Width  float64
	Height float64
}

// drawOverlay renders one transparent overlay page per target page, each at
// the target's own size. Page numbers run from 1.
func drawOverlay(sizes []PageSize, params OverlayParams, logo *Logo) ([]byte, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no pages to overlay")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: sizes[0].Width, Ht: sizes[0].Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	logoOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	if logo != nil {
		pdf.RegisterImageOptionsReader("logo", logoOpts, bytes.NewReader(logo.PNG))
	}

	for i, size := range sizes {
		w, h := size.Width, size.Height
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})

		pdf.SetFont(overlayFont, "", overlayHeaderSize)
		vesselX := overlayMargin
		if logo != nil && !pdf.Err() {
			lw, lh := fitBox(logo, overlayLogoW, overlayLogoH)
			// The logo box bottom sits 5pt below the header baseline.
			top := overlayHeaderY + 5 - overlayLogoH + (overlayLogoH-lh)/2
			pdf.ImageOptions("logo", overlayMargin+(overlayLogoW-lw)/2, top, lw, lh, false, logoOpts, 0, "")
			vesselX = overlayMargin + overlayLogoW + overlayLogoGap
		}
		pdf.Text(vesselX, overlayHeaderY, tr(params.Vessel))
		centred(pdf, w/2, overlayHeaderY, tr(params.TrialType))
		rightAligned(pdf, w-overlayMargin, overlayHeaderY, tr(params.YearMonth))

		pdf.SetFont(overlayFont, "", overlayFooterSize)
		footerY := h - overlayFooterY
		pdf.Text(overlayMargin, footerY, tr(params.FooterLeft))
		centred(pdf, w/2, footerY, strconv.Itoa(i+1))
		rightAligned(pdf, w-overlayMargin, footerY, tr(params.FooterRight))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func centred(pdf *gofpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x-pdf.GetStringWidth(s)/2, y, s)
}

func rightAligned(pdf *gofpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x-pdf.GetStringWidth(s), y, s)
}

// fitBox scales the logo to fit inside w x h keeping its aspect ratio.
func fitBox(logo *Logo, w, h float64) (float64, float64) {
	ratio := logo.AspectRatio()
	if ratio <= 0 {
		return w, h
	}
	if w*ratio <= h {
		return w, w * ratio
	}
	return h / ratio, h
}
