package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseSheetSelector(t *testing.T) {
	tests := []struct {
		in      string
		index   int
		byIndex bool
		name    string
	}{
		{"0", 0, true, "0"},
		{" 3 ", 3, true, "3"},
		{"Tests", 0, false, "Tests"},
		{"Sheet 2", 0, false, "Sheet 2"},
		{"1.5", 0, false, "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := ParseSheetSelector(tt.in)
			idx, byIndex := s.Index()
			assert.Equal(t, tt.byIndex, byIndex)
			if byIndex {
				assert.Equal(t, tt.index, idx)
			}
			assert.Equal(t, tt.name, s.String())
		})
	}
}

func TestSheetSelector_Validate(t *testing.T) {
	assert.NoError(t, ParseSheetSelector("0").Validate())
	assert.NoError(t, ParseSheetSelector("Tests").Validate())
	assert.Error(t, ParseSheetSelector("").Validate())
	assert.Error(t, ParseSheetSelector("-2").Validate())
}

func TestSheetSelector_YAML(t *testing.T) {
	var v struct {
		Sheet SheetSelector `yaml:"sheet"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("sheet: 2\n"), &v))
	idx, byIndex := v.Sheet.Index()
	assert.True(t, byIndex)
	assert.Equal(t, 2, idx)

	require.NoError(t, yaml.Unmarshal([]byte("sheet: Tests\n"), &v))
	assert.Equal(t, "Tests", v.Sheet.Name())

	assert.Error(t, yaml.Unmarshal([]byte("sheet: [1, 2]\n"), &v))

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "sheet: Tests\n", string(out))
}

func TestDocumentConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultDocumentConfig().Validate())

	tests := map[string]func(*DocumentConfig){
		"empty font":      func(c *DocumentConfig) { c.FontFamily = "" },
		"tiny title":      func(c *DocumentConfig) { c.TitleSize = 2 },
		"huge body":       func(c *DocumentConfig) { c.BodySize = 200 },
		"negative margin": func(c *DocumentConfig) { c.Margins.Left = -0.1 },
		"wide margin":     func(c *DocumentConfig) { c.Margins.Top = 4 },
		"unknown layout":  func(c *DocumentConfig) { c.Layout = "poster" },
		"empty sheet":     func(c *DocumentConfig) { c.Sheet = ParseSheetSelector("") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultDocumentConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDocumentConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sheet: Tests
font_family: Arial
body_size: 10
layout: compact
margins:
  left: 0.75
`), 0o600))

	cfg, err := LoadDocumentConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Tests", cfg.Sheet.Name())
	assert.Equal(t, "Arial", cfg.FontFamily)
	assert.Equal(t, 10.0, cfg.BodySize)
	assert.Equal(t, LayoutCompact, cfg.Layout)
	assert.Equal(t, 0.75, cfg.Margins.Left)

	def := DefaultDocumentConfig()
	assert.Equal(t, def.TitleSize, cfg.TitleSize, "unset keys keep defaults")
	assert.Equal(t, def.Margins.Top, cfg.Margins.Top)
	assert.Equal(t, def.Palette, cfg.Palette)
}

func TestLoadDocumentConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDocumentConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("title_size: [\n"), 0o600))
	_, err = LoadDocumentConfig(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("title_size: 500\n"), 0o600))
	_, err = LoadDocumentConfig(invalid)
	assert.ErrorContains(t, err, "invalid config")
}
