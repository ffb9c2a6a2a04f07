package workbook

import (
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// maxXLSCols is the column limit of the BIFF8 format.
const maxXLSCols = 256

// decodeXLS reads the first sheet of a legacy BIFF (.xls) workbook.
//
// Rows missing from the sheet are returned as empty rows so that row indices
// keep matching the sheet's own numbering, which the start-row offset relies
// on.
func decodeXLS(r io.ReadSeeker, opts Options) (sheet *Sheet, err error) {
	// The xls decoder panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			sheet = nil
			err = fmt.Errorf("failed to decode xls: %v", p)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, ErrNoSheet
	}

	maxRow := int(ws.MaxRow)
	if maxRow >= opts.MaxXLSRows {
		maxRow = opts.MaxXLSRows - 1
	}

	sheet = &Sheet{
		Name:   ws.Name,
		Rows:   make([]RawRow, 0, maxRow+1),
		Format: "xls",
	}

	for i := 0; i <= maxRow; i++ {
		row := rowAt(ws, i)
		if row == nil {
			sheet.Rows = append(sheet.Rows, RawRow{})
			continue
		}

		// Rows known only from their cell records carry no column bounds.
		last := row.LastCol()
		if last <= 0 || last > maxXLSCols {
			last = maxXLSCols
		}

		cells := make([]string, last)
		for c := 0; c < last; c++ {
			cells[c] = row.Col(c)
		}
		sheet.Rows = append(sheet.Rows, trimTrailingEmpty(cells))
	}

	return sheet, nil
}

// rowAt returns row i of ws, or nil when the sheet holds nothing for it.
// The decoder dereferences the missing row, so the lookup is guarded.
func rowAt(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}
