// =============================================================================
// Invoice Generator - Document Renderer
// =============================================================================
//
// This module turns invoices into PDF documents. It is split in two stages:
//
//   1. LAYOUT  (layout.go): invoices -> pages of drawing operations
//   2. OUTPUT  (this file): pages -> PDF bytes through fpdf
//
// Every render call builds its own fpdf document, so a Renderer can serve
// concurrent single and bulk renders. The invoices passed in are read only.
//
// FILE NAMES:
//   single : Invoice_<number>.pdf
//   bulk   : All_Invoices.pdf
//
// =============================================================================

package render

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
)

// BulkFileName is the name of the combined document.
const BulkFileName = "All_Invoices.pdf"

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a rendered PDF.
type Document struct {
	// Name is the deterministic file name of the document.
	Name string

	// Pages is the total page count.
	Pages int

	// Spans lists the page range of each invoice in input order.
	Spans []Span

	// Bytes is the serialized PDF.
	Bytes []byte
}

// WriteTo writes the PDF bytes to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Bytes)
	return int64(n), err
}

// unsafeFileChars matches characters not allowed in output file names.
var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName replaces characters not allowed in file names with "_".
func SafeName(s string) string {
	return unsafeFileChars.ReplaceAllString(s, "_")
}

// SingleFileName returns the file name for one invoice.
func SingleFileName(number string) string {
	return "Invoice_" + SafeName(number) + ".pdf"
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer renders invoices with a fixed theme.
type Renderer struct {
	theme        Theme
	logger       zerolog.Logger
	creationDate time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithCreationDate fixes the PDF creation date, making output byte-stable.
func WithCreationDate(t time.Time) Option {
	return func(r *Renderer) {
		r.creationDate = t
	}
}

// New creates a Renderer. The theme is copied.
func New(theme Theme, opts ...Option) *Renderer {
	cols := make([]Column, len(theme.Columns))
	copy(cols, theme.Columns)
	theme.Columns = cols

	r := &Renderer{
		theme:  theme,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Theme returns a copy of the renderer theme.
func (r *Renderer) Theme() Theme {
	t := r.theme
	t.Columns = append([]Column(nil), r.theme.Columns...)
	return t
}

// RenderSingle renders one invoice into its own document.
func (r *Renderer) RenderSingle(inv *invoice.Invoice) (*Document, error) {
	pdf, m := r.newPDF()

	pages := LayoutInvoice(inv, r.theme, m)
	spans := []Span{{InvoiceNumber: inv.InvoiceNumber, FirstPage: 1, LastPage: len(pages)}}

	data, err := r.output(pdf, m.tr, pages)
	if err != nil {
		return nil, &RenderError{Scope: ScopeSingle, InvoiceNumber: inv.InvoiceNumber, Err: err}
	}

	r.logger.Debug().Str("invoice", inv.InvoiceNumber).Int("pages", len(pages)).Msg("rendered invoice")

	return &Document{
		Name:  SingleFileName(inv.InvoiceNumber),
		Pages: len(pages),
		Spans: spans,
		Bytes: data,
	}, nil
}

// RenderBulk renders all invoices into one document, each invoice starting
// on a new page, in input order. An empty collection returns ErrNoInvoices
// as is; RenderError is reserved for backend failures.
func (r *Renderer) RenderBulk(invoices []invoice.Invoice) (*Document, error) {
	if len(invoices) == 0 {
		return nil, ErrNoInvoices
	}

	pdf, m := r.newPDF()

	pages, spans := LayoutBulk(invoices, r.theme, m)

	data, err := r.output(pdf, m.tr, pages)
	if err != nil {
		return nil, &RenderError{Scope: ScopeBulk, Err: err}
	}

	r.logger.Debug().Int("invoices", len(invoices)).Int("pages", len(pages)).Msg("rendered bulk document")

	return &Document{
		Name:  BulkFileName,
		Pages: len(pages),
		Spans: spans,
		Bytes: data,
	}, nil
}

// =============================================================================
// PDF BACKEND
// =============================================================================

// newPDF creates an fpdf document for the theme page size together with a
// measurer bound to it.
func (r *Renderer) newPDF() (*fpdf.Fpdf, *pdfMeasurer) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: r.theme.PageWidth, Ht: r.theme.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("xlsx-invoice-generator", false)
	pdf.SetTitle("Invoices", false)
	if !r.creationDate.IsZero() {
		pdf.SetCreationDate(r.creationDate)
	}

	return pdf, &pdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// output replays the pages onto pdf and serializes it.
func (r *Renderer) output(pdf *fpdf.Fpdf, tr func(string) string, pages []Page) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data = nil
			err = fmt.Errorf("pdf backend panic: %v", p)
		}
	}()

	for _, page := range pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			draw(pdf, tr, op)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func draw(pdf *fpdf.Fpdf, tr func(string) string, op Op) {
	switch op.Kind {
	case OpRect:
		style := ""
		if op.Fill {
			pdf.SetFillColor(op.FillColor.R, op.FillColor.G, op.FillColor.B)
			style += "F"
		}
		if op.Stroke {
			pdf.SetDrawColor(op.StrokeColor.R, op.StrokeColor.G, op.StrokeColor.B)
			pdf.SetLineWidth(op.LineWidth)
			style += "D"
		}
		if style == "" {
			return
		}
		pdf.Rect(op.X, op.Y, op.W, op.H, style)

	case OpText:
		pdf.SetFont(op.Font.Family, op.Font.Style, op.Font.Size)
		pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)

		txt := tr(op.Text)
		x := op.X
		switch op.Align {
		case AlignCenter:
			x -= pdf.GetStringWidth(txt) / 2
		case AlignRight:
			x -= pdf.GetStringWidth(txt)
		}
		pdf.Text(x, op.Y, txt)
	}
}

// pdfMeasurer measures text with the core font metrics of an fpdf document.
type pdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (m *pdfMeasurer) StringWidth(text string, font Font) float64 {
	if !m.pdf.Ok() {
		return 0
	}
	m.pdf.SetFont(font.Family, font.Style, font.Size)
	if !m.pdf.Ok() {
		return 0
	}
	return m.pdf.GetStringWidth(m.tr(text))
}
