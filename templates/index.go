// Package templates holds the HTML components of the upload UI. The
// components live in .templ files; run `templ generate` after editing them.
package templates

import "strconv"

// IndexData feeds the upload page.
type IndexData struct {
	Sheet        string
	FontFamily   string
	TitleSize    float64
	SubtitleSize float64
	BodySize     float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	Layout       string
	Layouts      []string
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
