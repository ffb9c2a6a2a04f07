package render

import (
	"errors"
	"fmt"
)

// ErrNoInvoices is returned by RenderBulk for an empty collection.
var ErrNoInvoices = errors.New("no invoices to render")

// Scope identifies which render request failed.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeBulk   Scope = "bulk"
)

// RenderError reports that the document could not be serialized. Layout
// itself never fails; only the PDF backend can.
type RenderError struct {
	Scope Scope

	// InvoiceNumber is set for single-invoice renders.
	InvoiceNumber string

	Err error
}

func (e *RenderError) Error() string {
	if e.Scope == ScopeSingle {
		return fmt.Sprintf("render invoice %s: %v", e.InvoiceNumber, e.Err)
	}
	return fmt.Sprintf("render all invoices: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// UserMessage is the single message shown to the user, naming the action to
// retry.
func (e *RenderError) UserMessage() string {
	if e.Scope == ScopeSingle {
		return fmt.Sprintf("Could not create the PDF for invoice %s. Please try again.", e.InvoiceNumber)
	}
	return "Could not create the combined PDF of all invoices. Please try again."
}
