// =============================================================================
// Invoice Generator - Column Schema
// =============================================================================
//
// The source export has no usable header row: every field lives at a fixed
// column position. Schema captures those positions so the reconstructor is
// driven by configuration instead of hardcoded offsets.
//
// DEFAULT LAYOUT (0-based, A=0):
//
//   | Col | Field            | Col | Field            |
//   |-----|------------------|-----|------------------|
//   | C 2 | Date             | P 15| PO Number        |
//   | D 3 | Invoice Number   | Q 16| Line Number      |
//   | I 8 | Customer Name    | R 17| Product Number   |
//   | K10 | Room / Suite     | S 18| Description      |
//   | L11 | Address Line 2   | T 19| Quantity         |
//   | M12 | City             | U 20| Carrier          |
//   | N13 | State            | V 21| Tracking         |
//   | O14 | Zip              | W 22| Line Total       |
//
//   Rows 1-5 (StartRow = 5) are report title / metadata and are skipped.
//
// CUSTOMIZATION:
//   Override any position in the `schema:` block of config.yaml.
//
// =============================================================================

package reconstruct

import (
	"fmt"
)

// Schema maps semantic fields to 0-based column indices.
type Schema struct {
	// StartRow is the 0-based index of the first data row. Rows before it
	// are header/metadata and are never inspected.
	StartRow int `yaml:"start_row"`

	// =========================================================================
	// INVOICE HEADER COLUMNS
	// =========================================================================

	InvoiceNumber int `yaml:"invoice_number"`
	Date          int `yaml:"date"`
	CustomerName  int `yaml:"customer_name"`
	PONumber      int `yaml:"po_number"`

	// Address lists the bill-to components in join order:
	// room/suite, line 2, city, state, zip.
	Address []int `yaml:"address"`

	// =========================================================================
	// LINE ITEM COLUMNS
	// =========================================================================

	LineNumber    int `yaml:"line_number"`
	ProductNumber int `yaml:"product_number"`
	Description   int `yaml:"description"`
	Quantity      int `yaml:"quantity"`
	Carrier       int `yaml:"carrier"`
	Tracking      int `yaml:"tracking"`
	LineTotal     int `yaml:"line_total"`
}

// DefaultSchema returns the column layout of the standard shipment export.
func DefaultSchema() Schema {
	return Schema{
		StartRow:      5,
		Date:          2,  // Column C
		InvoiceNumber: 3,  // Column D
		CustomerName:  8,  // Column I
		Address:       []int{10, 11, 12, 13, 14},
		PONumber:      15, // Column P
		LineNumber:    16, // Column Q
		ProductNumber: 17, // Column R
		Description:   18, // Column S
		Quantity:      19, // Column T
		Carrier:       20, // Column U
		Tracking:      21, // Column V
		LineTotal:     22, // Column W
	}
}

// Validate checks that every position is non-negative.
func (s Schema) Validate() error {
	if s.StartRow < 0 {
		return fmt.Errorf("start_row must be >= 0, got %d", s.StartRow)
	}

	fields := map[string]int{
		"invoice_number": s.InvoiceNumber,
		"date":           s.Date,
		"customer_name":  s.CustomerName,
		"po_number":      s.PONumber,
		"line_number":    s.LineNumber,
		"product_number": s.ProductNumber,
		"description":    s.Description,
		"quantity":       s.Quantity,
		"carrier":        s.Carrier,
		"tracking":       s.Tracking,
		"line_total":     s.LineTotal,
	}
	for name, col := range fields {
		if col < 0 {
			return fmt.Errorf("column %s must be >= 0, got %d", name, col)
		}
	}

	for i, col := range s.Address {
		if col < 0 {
			return fmt.Errorf("address column %d must be >= 0, got %d", i, col)
		}
	}

	return nil
}
