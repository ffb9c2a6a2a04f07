package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads the first sheet of an Office Open XML workbook.
//
// Cells are read as the text Excel displays, except number cells with a
// non-date number format: those carry their stored value, so an amount shown
// as " $(1,234.50)" or "1,234.50 €" arrives as "-1234.5" or "1234.5". Date
// and time cells keep their displayed text.
func decodeXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	// Only the first sheet is consulted.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	sheet := &Sheet{
		Name:   sheetName,
		Rows:   make([]RawRow, len(rows)),
		Format: "xlsx",
	}
	numbers := &numberCells{f: f, sheet: sheetName, dateStyles: make(map[int]bool)}
	for i, row := range rows {
		numbers.restore(i, row)
		sheet.Rows[i] = trimTrailingEmpty(row)
	}

	return sheet, nil
}

// numberCells replaces the display text of number-formatted cells by their
// stored value.
type numberCells struct {
	f     *excelize.File
	sheet string

	// dateStyles caches, per style index, whether the number format shows
	// a date or time.
	dateStyles map[int]bool
}

func (n *numberCells) restore(rowIndex int, row []string) {
	for c, shown := range row {
		shown = strings.TrimSpace(shown)
		if shown == "" {
			continue
		}
		if _, err := strconv.ParseFloat(shown, 64); err == nil {
			continue
		}

		cell, err := excelize.CoordinatesToCellName(c+1, rowIndex+1)
		if err != nil {
			continue
		}
		typ, err := n.f.GetCellType(n.sheet, cell)
		if err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
			continue
		}
		stored, err := n.f.GetCellValue(n.sheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		if _, err := strconv.ParseFloat(stored, 64); err != nil {
			continue
		}
		if n.isDate(cell) {
			continue
		}
		row[c] = stored
	}
}

// isDate reports whether the cell's number format renders a date or time.
func (n *numberCells) isDate(cell string) bool {
	styleID, err := n.f.GetCellStyle(n.sheet, cell)
	if err != nil {
		return true
	}
	if date, ok := n.dateStyles[styleID]; ok {
		return date
	}

	date := true
	if style, err := n.f.GetStyle(styleID); err == nil {
		if style.CustomNumFmt != nil {
			date = isDateFormatCode(*style.CustomNumFmt)
		} else {
			date = isBuiltInDateFormat(style.NumFmt)
		}
	}
	n.dateStyles[styleID] = date
	return date
}

// isBuiltInDateFormat reports whether a built-in number format id is a date
// or time format (including the CJK and Thai locale ranges).
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58,
		id >= 71 && id <= 81:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or
// time tokens outside quoted literals, bracketed modifiers and escapes.
func isDateFormatCode(code string) bool {
	for i := 0; i < len(code); i++ {
		switch ch := code[i]; {
		case ch == '"':
			end := strings.IndexByte(code[i+1:], '"')
			if end < 0 {
				return false
			}
			i += end + 1
		case ch == '[':
			end := strings.IndexByte(code[i+1:], ']')
			if end < 0 {
				return false
			}
			// [h], [mm], [ss] are elapsed time; [Red], [$€-407] are not
			if inner := code[i+1 : i+1+end]; inner != "" && strings.Trim(inner, "hHmMsS") == "" {
				return true
			}
			i += end + 1
		case ch == '\\', ch == '_', ch == '*':
			i++
		case strings.IndexByte("yYmMdDhHsS", ch) >= 0:
			return true
		}
	}
	return false
}
