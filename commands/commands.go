// Package commands adds the report generator's CLI commands to the
// PocketBase root command.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dpreport/services"
)

// Register attaches the report, merge and build commands to root.
func Register(root *cobra.Command, logger *zap.Logger) {
	root.AddCommand(
		newReportCmd(logger),
		newMergeCmd(logger),
		newBuildCmd(logger),
	)
}

// docFlags are the document settings shared by every command.
type docFlags struct {
	configPath   string
	sheet        string
	layout       string
	logo         string
	font         string
	titleSize    float64
	subtitleSize float64
	bodySize     float64
	margins      services.Margins
}

func (f *docFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML file with document settings")
	fl.StringVar(&f.sheet, "sheet", "", "sheet index (0-based) or name")
	fl.StringVar(&f.layout, "layout", "", "section layout: cover or compact")
	fl.StringVar(&f.logo, "logo", "", "logo image path")
	fl.StringVar(&f.font, "font", "", "font family")
	fl.Float64Var(&f.titleSize, "title-size", 0, "title font size in points")
	fl.Float64Var(&f.subtitleSize, "subtitle-size", 0, "subtitle font size in points")
	fl.Float64Var(&f.bodySize, "body-size", 0, "body font size in points")
	fl.Float64Var(&f.margins.Top, "margin-top", 0, "top margin in inches")
	fl.Float64Var(&f.margins.Bottom, "margin-bottom", 0, "bottom margin in inches")
	fl.Float64Var(&f.margins.Left, "margin-left", 0, "left margin in inches")
	fl.Float64Var(&f.margins.Right, "margin-right", 0, "right margin in inches")
}

// resolve loads the YAML settings, if any, and applies flag overrides.
func (f *docFlags) resolve(cmd *cobra.Command) (services.DocumentConfig, error) {
	cfg := services.DefaultDocumentConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = services.LoadDocumentConfig(f.configPath); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("sheet") {
		cfg.Sheet = services.ParseSheetSelector(f.sheet)
	}
	if cmd.Flags().Changed("layout") {
		cfg.Layout = services.LayoutVariant(f.layout)
	}
	if cmd.Flags().Changed("logo") {
		cfg.LogoPath = f.logo
	}
	if cmd.Flags().Changed("font") {
		cfg.FontFamily = f.font
	}
	overrides := []struct {
		flag     string
		src, dst *float64
	}{
		{"title-size", &f.titleSize, &cfg.TitleSize},
		{"subtitle-size", &f.subtitleSize, &cfg.SubtitleSize},
		{"body-size", &f.bodySize, &cfg.BodySize},
		{"margin-top", &f.margins.Top, &cfg.Margins.Top},
		{"margin-bottom", &f.margins.Bottom, &cfg.Margins.Bottom},
		{"margin-left", &f.margins.Left, &cfg.Margins.Left},
		{"margin-right", &f.margins.Right, &cfg.Margins.Right},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = *o.src
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &services.ConfigError{Err: err}
	}
	return cfg, nil
}

func readInput(path string, cfg services.DocumentConfig) (services.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Input{}, fmt.Errorf("read input: %w", err)
	}
	return services.Input{Data: data, FileName: filepath.Base(path), Config: cfg}, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	return nil
}

func newReportCmd(logger *zap.Logger) *cobra.Command {
	var (
		doc    docFlags
		input  string
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the trial spreadsheet as a DOCX or PDF report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := doc.resolve(cmd)
			if err != nil {
				return err
			}
			in, err := readInput(input, cfg)
			if err != nil {
				return err
			}

			gen := services.NewGenerator(logger, nil)
			var res *services.Output
			switch strings.ToLower(format) {
			case "docx":
				res, err = gen.GenerateDOCX(cmd.Context(), in)
			case "pdf":
				res, err = gen.GeneratePDF(cmd.Context(), in)
			default:
				return fmt.Errorf("unknown format %q: use docx or pdf", format)
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = res.FileName
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tests, %d sections, %d pages\n", res.Tests, res.Sections, res.Pages)
			return writeOutput(cmd, out, res.Bytes)
		},
	}
	doc.bind(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "trial spreadsheet (.xlsx or .csv)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&format, "format", "docx", "output format: docx or pdf")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newMergeCmd(logger *zap.Logger) *cobra.Command {
	var (
		doc    docFlags
		cover  string
		report string
		input  string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join a cover PDF and a report PDF and stamp headers and footers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := doc.resolve(cmd)
			if err != nil {
				return err
			}
			in, err := readInput(input, cfg)
			if err != nil {
				return err
			}
			coverData, err := os.ReadFile(cover)
			if err != nil {
				return fmt.Errorf("read cover: %w", err)
			}
			reportData, err := os.ReadFile(report)
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}

			res, err := services.NewGenerator(logger, nil).Merge(cmd.Context(), coverData, reportData, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pages, %d blank report pages dropped\n", res.Pages, res.DroppedBlank)
			return writeOutput(cmd, out, res.PDF)
		},
	}
	doc.bind(cmd)
	cmd.Flags().StringVar(&cover, "cover", "", "cover/intro PDF")
	cmd.Flags().StringVar(&report, "report", "", "rendered report PDF")
	cmd.Flags().StringVarP(&input, "input", "i", "", "trial spreadsheet with Vessel, Type, Year and Abreviation columns")
	cmd.Flags().StringVarP(&out, "out", "o", services.FinalPDFName, "output PDF")
	_ = cmd.MarkFlagRequired("cover")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newBuildCmd(logger *zap.Logger) *cobra.Command {
	var (
		doc     docFlags
		cover   string
		input   string
		out     string
		soffice string
		direct  bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render, convert and merge in one step",
		Long: `Renders the spreadsheet as DOCX, converts it with LibreOffice and merges
it behind the cover. With --direct the report PDF is drawn without LibreOffice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := doc.resolve(cmd)
			if err != nil {
				return err
			}
			in, err := readInput(input, cfg)
			if err != nil {
				return err
			}
			coverData, err := os.ReadFile(cover)
			if err != nil {
				return fmt.Errorf("read cover: %w", err)
			}

			var conv services.Converter
			if !direct {
				conv = services.SofficeConverter{Binary: soffice}
			}
			res, err := services.NewGenerator(logger, conv).Build(cmd.Context(), coverData, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pages, %d blank report pages dropped\n", res.Pages, res.DroppedBlank)
			return writeOutput(cmd, out, res.PDF)
		},
	}
	doc.bind(cmd)
	cmd.Flags().StringVar(&cover, "cover", "", "cover/intro PDF")
	cmd.Flags().StringVarP(&input, "input", "i", "", "trial spreadsheet (.xlsx or .csv)")
	cmd.Flags().StringVarP(&out, "out", "o", services.FinalPDFName, "output PDF")
	cmd.Flags().StringVar(&soffice, "soffice", "soffice", "LibreOffice executable")
	cmd.Flags().BoolVar(&direct, "direct", false, "draw the report PDF directly instead of converting the DOCX")
	_ = cmd.MarkFlagRequired("cover")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
