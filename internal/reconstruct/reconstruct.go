// =============================================================================
// Invoice Generator - Row Reconstructor
// =============================================================================
//
// This module regroups the flat rows of a spreadsheet export into invoices.
//
// RECONSTRUCTION PIPELINE:
//   1. Skip every row before Schema.StartRow (report title / metadata)
//   2. Skip zero-length rows and rows with a blank invoice number
//   3. On first sight of an invoice number, create the Invoice from the
//      header columns (date, customer, PO, address parts)
//   4. Append one LineItem per kept row, in row order
//
// ORDERING:
//   Invoices come out in first-seen order and each invoice keeps its items
//   in row encounter order. Nothing is sorted or deduplicated beyond the
//   grouping by invoice number.
//
// LENIENCY:
//   Exports are produced by hand, so blank separator rows, missing optional
//   fields and non-numeric amounts are normal. They are normalized to
//   defaults and counted in Stats, never reported as errors.
//
// =============================================================================

package reconstruct

import (
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/workbook"
	"github.com/rs/zerolog"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one reconstruction.
type Result struct {
	// Invoices in first-seen order.
	Invoices []invoice.Invoice

	// Stats describes how the rows were consumed.
	Stats Stats
}

// Stats contains counters about a reconstruction.
type Stats struct {
	// RowsScanned is the number of rows at or after the start row.
	RowsScanned int

	// RowsSkipped counts rows dropped for being empty or having no
	// invoice number.
	RowsSkipped int

	// LineItems is the number of line items created.
	LineItems int

	// CoercedNumbers counts non-blank quantity/total cells that were not
	// numeric and became zero.
	CoercedNumbers int
}

// =============================================================================
// RECONSTRUCTOR
// =============================================================================

// Reconstructor turns raw rows into invoices using a column schema.
type Reconstructor struct {
	schema  Schema
	company invoice.Company
	logger  zerolog.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithCompany attaches the organization identity to every invoice. Without
// it invoices carry invoice.DefaultCompany.
func WithCompany(c invoice.Company) Option {
	return func(r *Reconstructor) {
		r.company = c
	}
}

// WithLogger sets the logger used for row-level debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconstructor) {
		r.logger = l
	}
}

// New creates a Reconstructor for the given schema.
func New(schema Schema, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		schema:  schema,
		company: invoice.DefaultCompany(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct groups rows into invoices using the default column layout with
// the given start row.
func Reconstruct(rows []workbook.RawRow, startRow int) []invoice.Invoice {
	schema := DefaultSchema()
	schema.StartRow = startRow
	return New(schema).Run(rows).Invoices
}

// Run executes the reconstruction. It never fails: rows that cannot be used
// are skipped and malformed cells take their default value.
func (r *Reconstructor) Run(rows []workbook.RawRow) *Result {
	result := &Result{}

	// Index into result.Invoices by invoice number; the slice itself keeps
	// first-seen order.
	index := make(map[string]int)

	start := r.schema.StartRow
	if start < 0 {
		start = 0
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		result.Stats.RowsScanned++

		if len(row) == 0 {
			result.Stats.RowsSkipped++
			continue
		}

		number := String(row.Cell(r.schema.InvoiceNumber))
		if number == "" {
			result.Stats.RowsSkipped++
			r.logger.Debug().Int("row", i+1).Msg("skipping row without invoice number")
			continue
		}

		pos, seen := index[number]
		if !seen {
			pos = len(result.Invoices)
			index[number] = pos
			result.Invoices = append(result.Invoices, r.newInvoice(number, row))
		}

		item, coerced := r.newLineItem(row)
		if coerced > 0 {
			result.Stats.CoercedNumbers += coerced
			r.logger.Debug().Int("row", i+1).Str("invoice", number).Int("cells", coerced).
				Msg("non-numeric amount coerced to zero")
		}

		result.Invoices[pos].AddItem(item)
		result.Stats.LineItems++
	}

	return result
}

// newInvoice materializes the invoice header from the first row seen for
// the invoice number.
func (r *Reconstructor) newInvoice(number string, row workbook.RawRow) invoice.Invoice {
	parts := make([]string, len(r.schema.Address))
	for i, col := range r.schema.Address {
		parts[i] = row.Cell(col)
	}

	inv := invoice.Invoice{
		InvoiceNumber: number,
		Date:          row.Cell(r.schema.Date),
		CustomerName:  StringOr(row.Cell(r.schema.CustomerName), invoice.UnknownCustomer),
		PONumber:      String(row.Cell(r.schema.PONumber)),
		BillToAddress: invoice.JoinAddress(parts...),
		Items:         []invoice.LineItem{},
	}
	inv.ApplyCompany(r.company)

	return inv
}

// newLineItem builds a line item and reports how many numeric cells had to
// be coerced.
func (r *Reconstructor) newLineItem(row workbook.RawRow) (invoice.LineItem, int) {
	coerced := 0

	qty, bad := NumberOrZero(row.Cell(r.schema.Quantity))
	if bad {
		coerced++
	}
	total, bad := NumberOrZero(row.Cell(r.schema.LineTotal))
	if bad {
		coerced++
	}

	return invoice.LineItem{
		LineNumber:    String(row.Cell(r.schema.LineNumber)),
		ProductNumber: String(row.Cell(r.schema.ProductNumber)),
		Description:   String(row.Cell(r.schema.Description)),
		Quantity:      qty,
		Carrier:       String(row.Cell(r.schema.Carrier)),
		Tracking:      String(row.Cell(r.schema.Tracking)),
		LineTotal:     total,
	}, coerced
}
