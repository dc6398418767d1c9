package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// LayoutVariant selects how section breaks are rendered.
type LayoutVariant string

const (
	// LayoutCover renders every section as a full chapter-cover page.
	LayoutCover LayoutVariant = "cover"
	// LayoutCompact renders an inline section heading on the first test page.
	LayoutCompact LayoutVariant = "compact"
)

// DefaultFooterLeft is the left footer label stamped on the merged PDF.
const DefaultFooterLeft = "Bram DP Assurance"

// SheetSelector picks one sheet of a workbook, either by 0-based index or by
// exact name.
type SheetSelector struct {
	raw     string
	index   int
	byIndex bool
}

// ParseSheetSelector interprets s as an index when it parses as an integer,
// otherwise as a sheet name.
func ParseSheetSelector(s string) SheetSelector {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return SheetSelector{raw: s, index: n, byIndex: true}
	}
	return SheetSelector{raw: s}
}

// Index returns the sheet index and whether the selector is index-based.
func (s SheetSelector) Index() (int, bool) { return s.index, s.byIndex }

// Name returns the sheet name for name-based selectors.
func (s SheetSelector) Name() string { return s.raw }

// String returns the selector exactly as it was supplied.
func (s SheetSelector) String() string { return s.raw }

// Validate implements validation.Validatable.
func (s SheetSelector) Validate() error {
	if s.raw == "" {
		return errors.New("sheet selector must not be empty")
	}
	return nil
}

// UnmarshalYAML accepts both `sheet: 2` and `sheet: Tests`.
func (s *SheetSelector) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("sheet: expected a scalar, got %v", value.Tag)
	}
	*s = ParseSheetSelector(value.Value)
	return nil
}

// MarshalYAML writes the selector back as the literal string.
func (s SheetSelector) MarshalYAML() (any, error) {
	return s.raw, nil
}

// Margins are page margins in inches.
type Margins struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// Validate implements validation.Validatable.
func (m Margins) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Top, validation.Min(0.0), validation.Max(3.0)),
		validation.Field(&m.Bottom, validation.Min(0.0), validation.Max(3.0)),
		validation.Field(&m.Left, validation.Min(0.0), validation.Max(3.0)),
		validation.Field(&m.Right, validation.Min(0.0), validation.Max(3.0)),
	)
}

// Palette holds the fixed report colours as 6-digit hex strings. It is built
// once and passed by value to every rendering call.
type Palette struct {
	Band     string
	BandText string
	BoxShade string
	Border   string
	Text     string
}

// DefaultPalette returns the corporate blue palette.
func DefaultPalette() Palette {
	return Palette{
		Band:     "0054A6",
		BandText: "FFFFFF",
		BoxShade: "F2F2F2",
		Border:   "000000",
		Text:     "000000",
	}
}

// DocumentConfig is resolved once per generation and never mutated while a
// document is rendered.
type DocumentConfig struct {
	Sheet        SheetSelector `yaml:"sheet"`
	FontFamily   string        `yaml:"font_family"`
	TitleSize    float64       `yaml:"title_size"`
	SubtitleSize float64       `yaml:"subtitle_size"`
	BodySize     float64       `yaml:"body_size"`
	Margins      Margins       `yaml:"margins"`
	Layout       LayoutVariant `yaml:"layout"`
	LogoPath     string        `yaml:"logo_path"`
	FooterLeft   string        `yaml:"footer_left"`
	Palette      Palette       `yaml:"-"`
}

// DefaultDocumentConfig returns the configuration used when the caller
// supplies no overrides.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Sheet:        ParseSheetSelector("0"),
		FontFamily:   "Raleway",
		TitleSize:    20,
		SubtitleSize: 14,
		BodySize:     11,
		Margins:      Margins{Top: 1.0, Bottom: 1.0, Left: 0.5, Right: 0.5},
		Layout:       LayoutCover,
		LogoPath:     "logo.png",
		FooterLeft:   DefaultFooterLeft,
		Palette:      DefaultPalette(),
	}
}

// Validate checks every user-adjustable setting.
func (c DocumentConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Sheet),
		validation.Field(&c.FontFamily, validation.Required, validation.Length(1, 64)),
		validation.Field(&c.TitleSize, validation.Required, validation.Min(6.0), validation.Max(96.0)),
		validation.Field(&c.SubtitleSize, validation.Required, validation.Min(6.0), validation.Max(72.0)),
		validation.Field(&c.BodySize, validation.Required, validation.Min(6.0), validation.Max(48.0)),
		validation.Field(&c.Margins),
		validation.Field(&c.Layout, validation.Required, validation.In(LayoutCover, LayoutCompact)),
	)
}

// LoadDocumentConfig reads a YAML file on top of the defaults. Keys absent
// from the file keep their default values.
func LoadDocumentConfig(path string) (DocumentConfig, error) {
	cfg := DefaultDocumentConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Palette = DefaultPalette()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
