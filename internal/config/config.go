// =============================================================================
// Invoice Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration. A
// single YAML file describes the working directories, the column schema of
// the source spreadsheet, the organization identity printed on invoices and
// the visual theme of the generated PDFs.
//
// LOAD ORDER:
//   1. Built-in defaults (DefaultMainConfig)
//   2. config.yaml (missing default file is not an error)
//   3. .env file in the working directory, if present
//   4. INVOICER_* environment variables
//
// ENVIRONMENT OVERRIDES:
//   INVOICER_INPUT_DIR, INVOICER_OUTPUT_DIR, INVOICER_ARCHIVE_DIR,
//   INVOICER_LOG_LEVEL, INVOICER_LOG_FORMAT, INVOICER_MAX_CONCURRENCY
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/reconstruct"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/render"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the config file used when --config is not given.
const DefaultConfigPath = "config.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INVOICER_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xlsx, .xls and .csv workbooks.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated PDFs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives workbooks after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveInputs moves processed workbooks to InputArchiveDir.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of workbooks processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other workbooks after a failure.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// CSVDelimiter is used for .csv inputs. Accepts ",", ";", "|", "tab".
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// WriteSingle writes one PDF per invoice.
	WriteSingle bool `yaml:"write_single"`

	// WriteBulk writes one combined PDF per workbook.
	WriteBulk bool `yaml:"write_bulk"`

	// SingleFileFormat names single-invoice PDFs. {number} is replaced by
	// the sanitized invoice number.
	// Default: "Invoice_{number}.pdf"
	SingleFileFormat string `yaml:"single_file_format"`

	// BulkFileName names the combined PDF. When several workbooks are
	// processed in one run, the workbook name is prefixed.
	// Default: "All_Invoices.pdf"
	BulkFileName string `yaml:"bulk_file_name"`

	// =========================================================================
	// DOCUMENT SETTINGS
	// =========================================================================

	// Schema maps spreadsheet columns to invoice fields.
	Schema reconstruct.Schema `yaml:"schema"`

	// Company is printed on every invoice.
	Company invoice.Company `yaml:"company"`

	// Theme overrides selected visual settings.
	Theme ThemeConfig `yaml:"theme"`
}

// ThemeConfig is the user-facing subset of render.Theme.
type ThemeConfig struct {
	Title          string `yaml:"title"`
	FooterText     string `yaml:"footer_text"`
	AccentColor    string `yaml:"accent_color"`
	CurrencyPrefix string `yaml:"currency_prefix"`
	POPlaceholder  string `yaml:"po_placeholder"`
	FontFamily     string `yaml:"font_family"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultMainConfig returns the configuration used when no file is present.
func DefaultMainConfig() *MainConfig {
	theme := render.DefaultTheme()

	return &MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		LogLevel:         "info",
		LogFormat:        "console",
		MaxConcurrency:   4,
		ContinueOnError:  true,
		CSVDelimiter:     ",",
		WriteSingle:      true,
		WriteBulk:        true,
		SingleFileFormat: "Invoice_{number}.pdf",
		BulkFileName:     render.BulkFileName,
		Schema:           reconstruct.DefaultSchema(),
		Company:          invoice.DefaultCompany(),
		Theme: ThemeConfig{
			Title:          theme.Title,
			FooterText:     theme.FooterText,
			AccentColor:    "#E2001A",
			CurrencyPrefix: theme.CurrencyPrefix,
			POPlaceholder:  theme.POPlaceholder,
			FontFamily:     theme.FontFamily,
		},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// The file is decoded on top of DefaultMainConfig, so any key left out keeps
// its default. When configPath is DefaultConfigPath and the file does not
// exist, the defaults are used. Environment overrides are applied last.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	config := DefaultMainConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// a configured identity replaces the placeholder as a whole
		config.Company = invoice.Company{}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && configPath == DefaultConfigPath:
		// run with defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := LoadDotEnv(""); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config, os.LookupEnv); err != nil {
		return nil, err
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads a .env file into the process environment without
// overwriting variables that are already set. A missing file is ignored.
// An empty path means ".env".
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies INVOICER_* variables using lookup.
func applyEnvOverrides(config *MainConfig, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"INPUT_DIR":   &config.InputDir,
		"OUTPUT_DIR":  &config.OutputDir,
		"ARCHIVE_DIR": &config.InputArchiveDir,
		"LOG_LEVEL":   &config.LogLevel,
		"LOG_FORMAT":  &config.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "MAX_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_CONCURRENCY: %w", EnvPrefix, err)
		}
		config.MaxConcurrency = n
	}
	return nil
}

// applyMainConfigDefaults fills values that were explicitly blanked.
func applyMainConfigDefaults(config *MainConfig) {
	def := DefaultMainConfig()

	if config.InputDir == "" {
		config.InputDir = def.InputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = def.OutputDir
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = def.InputArchiveDir
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = def.LogFormat
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = def.CSVDelimiter
	}
	if config.SingleFileFormat == "" {
		config.SingleFileFormat = def.SingleFileFormat
	}
	if config.BulkFileName == "" {
		config.BulkFileName = def.BulkFileName
	}
	if config.Schema.Address == nil {
		config.Schema.Address = def.Schema.Address
	}
	if config.Company.IsZero() {
		config.Company = def.Company
	}
	if config.Theme.AccentColor == "" {
		config.Theme.AccentColor = def.Theme.AccentColor
	}
	if config.Theme.FontFamily == "" {
		config.Theme.FontFamily = def.Theme.FontFamily
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", config.MaxConcurrency)
	}
	if !config.WriteSingle && !config.WriteBulk {
		return fmt.Errorf("at least one of write_single and write_bulk must be enabled")
	}
	if !strings.Contains(config.SingleFileFormat, "{number}") {
		return fmt.Errorf("single_file_format %q must contain {number}", config.SingleFileFormat)
	}
	if !strings.HasSuffix(strings.ToLower(config.BulkFileName), ".pdf") {
		return fmt.Errorf("bulk_file_name %q must end in .pdf", config.BulkFileName)
	}
	if err := config.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if _, err := config.RenderTheme(); err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// RenderTheme builds the renderer theme from the defaults and the overrides.
func (c *MainConfig) RenderTheme() (render.Theme, error) {
	theme := render.DefaultTheme()
	tc := c.Theme

	if tc.Title != "" {
		theme.Title = tc.Title
	}
	if tc.FooterText != "" {
		theme.FooterText = tc.FooterText
	}
	if tc.AccentColor != "" {
		accent, err := render.ParseHexColor(tc.AccentColor)
		if err != nil {
			return render.Theme{}, err
		}
		theme.Accent = accent
	}
	if tc.CurrencyPrefix != "" {
		theme.CurrencyPrefix = tc.CurrencyPrefix
	}
	if tc.POPlaceholder != "" {
		theme.POPlaceholder = tc.POPlaceholder
	}
	if tc.FontFamily != "" {
		theme.FontFamily = tc.FontFamily
	}

	if err := theme.Validate(); err != nil {
		return render.Theme{}, err
	}
	return theme, nil
}

// SingleFileName returns the PDF name for one invoice.
func (c *MainConfig) SingleFileName(number string) string {
	return strings.ReplaceAll(c.SingleFileFormat, "{number}", render.SafeName(number))
}

// Dirs returns the directories the application writes to.
func (c *MainConfig) Dirs() []string {
	dirs := []string{c.InputDir, c.OutputDir}
	if c.ArchiveInputs {
		dirs = append(dirs, c.InputArchiveDir)
	}
	return dirs
}
