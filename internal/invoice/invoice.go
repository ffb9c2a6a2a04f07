// =============================================================================
// Invoice Generator - Invoice Model
// =============================================================================
//
// This package contains the normalized invoice data model shared by the row
// reconstructor, the document renderer and the CLI. Keeping it in its own
// package avoids import cycles between those modules.
//
// MODEL:
//   Invoice   : one billing document, keyed by InvoiceNumber
//   LineItem  : one billed row inside an invoice
//
// Monetary amounts and quantities are decimal.Decimal so that totals are exact
// and independent of summation order.
//
// =============================================================================

package invoice

import (
	"github.com/shopspring/decimal"
)

// UnknownCustomer is the customer name used when the source row has none.
const UnknownCustomer = "Unknown Customer"

// =============================================================================
// INVOICE
// =============================================================================

// Invoice represents one billing document reconstructed from the spreadsheet.
// All rows sharing InvoiceNumber belong to it; the first such row provides
// the header fields.
type Invoice struct {
	// InvoiceNumber is the identity key. It is never empty.
	InvoiceNumber string `json:"invoice_number" yaml:"invoice_number"`

	// Date is taken verbatim from the source cell.
	Date string `json:"date" yaml:"date"`

	// CustomerName defaults to UnknownCustomer.
	CustomerName string `json:"customer_name" yaml:"customer_name"`

	// PONumber is the customer purchase order number, possibly empty.
	PONumber string `json:"po_number" yaml:"po_number"`

	// BillToAddress is the joined address line (see JoinAddress).
	BillToAddress string `json:"bill_to_address" yaml:"bill_to_address"`

	// Organization identity, identical on every invoice of a run.
	CompanyName      string `json:"company_name" yaml:"company_name"`
	CompanyAddress   string `json:"company_address" yaml:"company_address"`
	CompanyCityState string `json:"company_city_state" yaml:"company_city_state"`

	// Items are kept in row encounter order. Append only through AddItem.
	Items []LineItem `json:"items" yaml:"items"`
}

// LineItem represents a single billed row within an invoice.
type LineItem struct {
	// LineNumber is an opaque ordinal copied from the source; may be empty.
	LineNumber    string `json:"line_number" yaml:"line_number"`
	ProductNumber string `json:"product_number" yaml:"product_number"`
	Description   string `json:"description" yaml:"description"`

	// Quantity is zero when the source cell is missing or not numeric.
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`

	Carrier  string `json:"carrier" yaml:"carrier"`
	Tracking string `json:"tracking" yaml:"tracking"`

	// LineTotal is read directly from the source, it is not quantity times
	// a unit price.
	LineTotal decimal.Decimal `json:"line_total" yaml:"line_total"`
}

// Company holds the organization identity printed on every invoice.
type Company struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"`
	CityState string `yaml:"city_state"`
}

// DefaultCompany is the placeholder identity used until one is configured.
func DefaultCompany() Company {
	return Company{
		Name:      "My Company Name",
		Address:   "123 Business Rd",
		CityState: "City, State, Zip",
	}
}

// IsZero reports whether no identity field is set.
func (c Company) IsZero() bool {
	return c.Name == "" && c.Address == "" && c.CityState == ""
}

// =============================================================================
// METHODS
// =============================================================================

// AddItem appends a line item.
func (inv *Invoice) AddItem(item LineItem) {
	inv.Items = append(inv.Items, item)
}

// GrandTotal returns the sum of all line totals.
// It is recomputed on every call so it never goes stale when Items change.
func (inv *Invoice) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// ApplyCompany copies the organization identity onto the invoice.
func (inv *Invoice) ApplyCompany(c Company) {
	inv.CompanyName = c.Name
	inv.CompanyAddress = c.Address
	inv.CompanyCityState = c.CityState
}

// ItemCount returns the number of line items.
func (inv *Invoice) ItemCount() int {
	return len(inv.Items)
}

// =============================================================================
// COLLECTION HELPERS
// =============================================================================

// Find returns the invoice with the given number, or nil.
func Find(invoices []Invoice, number string) *Invoice {
	for i := range invoices {
		if invoices[i].InvoiceNumber == number {
			return &invoices[i]
		}
	}
	return nil
}

// TotalOf returns the sum of the grand totals of all invoices.
func TotalOf(invoices []Invoice) decimal.Decimal {
	total := decimal.Zero
	for i := range invoices {
		total = total.Add(invoices[i].GrandTotal())
	}
	return total
}
