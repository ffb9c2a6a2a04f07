package workbook

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

// decodeCSV reads a csv export into the same positional grid an xlsx sheet
// would produce.
func decodeCSV(r io.Reader, opts Options) (*Sheet, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	configureReader(reader, opts.CSVDelimiter)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	sheet := &Sheet{
		Rows:   make([]RawRow, len(records)),
		Format: "csv",
	}
	for i, rec := range records {
		sheet.Rows[i] = trimTrailingEmpty(rec)
	}
	return sheet, nil
}

// configureReader sets the delimiter and the lenient parsing flags.
//
// Exports are produced by hand and inconsistently populated, so ragged rows
// and stray quotes are accepted.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(delimiter) > 0 {
			reader.Comma = rune(delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
