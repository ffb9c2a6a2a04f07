package workbook

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrEmptyFile is returned for zero-byte input.
	ErrEmptyFile = errors.New("file is empty")

	// ErrNoSheet is returned when the workbook contains no worksheet.
	ErrNoSheet = errors.New("workbook has no sheets")

	// ErrUnknownFormat is returned when sniffing fails for every format.
	ErrUnknownFormat = errors.New("unrecognised spreadsheet format")
)

// ParseError reports that the input bytes could not be decoded as a workbook,
// or that the expected sheet is absent. It wraps the underlying cause.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse workbook: %v", e.Err)
	}
	return fmt.Sprintf("parse workbook %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UserMessage is the non-technical message shown for a parse failure.
func (e *ParseError) UserMessage() string {
	return fmt.Sprintf("Could not read %q as a spreadsheet. Please check that it is a valid Excel or CSV export.", filepath.Base(e.Path))
}
