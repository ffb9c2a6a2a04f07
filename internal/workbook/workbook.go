// =============================================================================
// Invoice Generator - Workbook Reader
// =============================================================================
//
// This module decodes a spreadsheet export into a raw positional grid. Only
// the FIRST sheet of the workbook is consulted; its rows are returned exactly
// as stored, including the leading header/metadata rows, because the row
// reconstructor decides which rows to skip.
//
// SUPPORTED FORMATS:
//   .xlsx / .xlsm : Office Open XML workbooks (excelize)
//   .xls          : legacy BIFF workbooks (extrame/xls)
//   .csv          : comma separated exports of the same grid (encoding/csv)
//
// Files with any other extension are sniffed: first as xlsx, then as xls.
//
// ERRORS:
//   Every decode failure is returned as a *ParseError. No partial grid is
//   returned when decoding fails.
//
// =============================================================================

package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// TYPES
// =============================================================================

// RawRow is one spreadsheet row as positional cell text. An empty cell is "".
type RawRow []string

// Cell returns the cell at index, or "" when the row is shorter than index.
func (r RawRow) Cell(index int) string {
	if index < 0 || index >= len(r) {
		return ""
	}
	return r[index]
}

// Sheet is the decoded first sheet of a workbook.
type Sheet struct {
	// Name is the sheet name ("" for csv input).
	Name string

	// Rows contains every row of the sheet, header rows included.
	Rows []RawRow

	// Format is the detected input format ("xlsx", "xls" or "csv").
	Format string
}

// Options controls decoding.
type Options struct {
	// CSVDelimiter is the field separator for csv input. Default ",".
	CSVDelimiter string

	// MaxXLSRows caps the number of rows read from legacy .xls sheets.
	// Default 100000.
	MaxXLSRows int
}

// DefaultOptions returns the default decode options.
func DefaultOptions() Options {
	return Options{
		CSVDelimiter: ",",
		MaxXLSRows:   100000,
	}
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ReadFile opens and decodes the workbook at path.
func ReadFile(path string, opts Options) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Decode(data, path, opts)
}

// Read decodes a workbook from r. name is only used to pick the format by
// extension and for error messages.
func Read(r io.Reader, name string, opts Options) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	return Decode(data, name, opts)
}

// Decode decodes workbook bytes. The format is chosen from the extension of
// name; unknown extensions are sniffed.
func Decode(data []byte, name string, opts Options) (*Sheet, error) {
	opts = withDefaults(opts)

	if len(data) == 0 {
		return nil, &ParseError{Path: name, Err: ErrEmptyFile}
	}

	var (
		sheet *Sheet
		err   error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		sheet, err = decodeXLSX(bytes.NewReader(data))
	case ".xls":
		sheet, err = decodeXLS(bytes.NewReader(data), opts)
	case ".csv":
		sheet, err = decodeCSV(bytes.NewReader(data), opts)
	default:
		sheet, err = sniff(data, opts)
	}

	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	return sheet, nil
}

// IsWorkbook reports whether path has an extension Decode understands.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls", ".csv":
		return true
	}
	return false
}

// =============================================================================
// HELPERS
// =============================================================================

// sniff tries xlsx first (a zip container) and falls back to xls.
func sniff(data []byte, opts Options) (*Sheet, error) {
	sheet, xlsxErr := decodeXLSX(bytes.NewReader(data))
	if xlsxErr == nil {
		return sheet, nil
	}
	sheet, xlsErr := decodeXLS(bytes.NewReader(data), opts)
	if xlsErr == nil {
		return sheet, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrUnknownFormat, errors.Join(xlsxErr, xlsErr))
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.CSVDelimiter == "" {
		opts.CSVDelimiter = def.CSVDelimiter
	}
	if opts.MaxXLSRows <= 0 {
		opts.MaxXLSRows = def.MaxXLSRows
	}
	return opts
}

// trimTrailingEmpty drops trailing empty cells so that a blank row has zero
// length regardless of which decoder produced it.
func trimTrailingEmpty(row []string) RawRow {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return RawRow(row[:end])
}
