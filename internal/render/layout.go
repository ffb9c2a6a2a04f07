// =============================================================================
// Invoice Generator - Page Layout
// =============================================================================
//
// Layout converts invoices into pages of drawing operations. It does not touch
// a PDF: text is measured through the Measurer interface, so the whole
// pagination algorithm is deterministic and can be inspected in tests.
//
// PER-INVOICE ALGORITHM:
//   1. Header band and title on a fresh page
//   2. Organization identity (left) and invoice metadata (right)
//   3. "Bill To" block with the address wrapped to AddressWrapWidth
//   4. Line item table. Before each row the remaining height is checked;
//      when the row does not fit above TableBottom a new page is started
//      and the column header row is repeated. The invoice header band is
//      NOT repeated.
//   5. Grand total directly below the final row. If it would pass
//      TotalLimit it moves to the top of a new page.
//   6. Footer on the invoice's final page
//
// BULK:
//   Each invoice starts on its own page; the pages are numbered
//   continuously and Spans records where each invoice begins and ends.
//
// =============================================================================

package render

import (
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
)

// =============================================================================
// LAYOUT OUTPUT
// =============================================================================

// OpKind is the type of a drawing operation.
type OpKind int

const (
	// OpRect draws a rectangle at (X, Y) with size (W, H).
	OpRect OpKind = iota
	// OpText draws Text with its baseline at Y, anchored at X per Align.
	OpText
)

// Role tags what an operation draws.
type Role string

const (
	RoleBand       Role = "band"
	RoleTitle      Role = "title"
	RoleCompany    Role = "company"
	RoleMeta       Role = "meta"
	RoleBillTo     Role = "bill-to"
	RoleCustomer   Role = "customer"
	RoleAddress    Role = "address"
	RoleTableHead  Role = "table-head"
	RoleTableRow   Role = "table-row"
	RoleGrandTotal Role = "grand-total"
	RoleFooter     Role = "footer"
)

// Op is one drawing operation.
type Op struct {
	Kind OpKind
	Role Role

	X, Y, W, H float64

	// Text operations.
	Text  string
	Align Align
	Font  Font
	Color RGB

	// Rect operations.
	Fill        bool
	FillColor   RGB
	Stroke      bool
	StrokeColor RGB
	LineWidth   float64

	// Item is the index of the line item for RoleTableRow, -1 otherwise.
	Item int
}

// Page is one output page.
type Page struct {
	// Number is the 1-based page number within the document.
	Number int

	// InvoiceNumber is the invoice drawn on this page.
	InvoiceNumber string

	Ops []Op
}

// Span records the pages an invoice occupies, 1-based and inclusive.
type Span struct {
	InvoiceNumber string
	FirstPage     int
	LastPage      int
}

// Measurer reports the rendered width of text, in millimetres, using the
// output backend's font metrics.
type Measurer interface {
	StringWidth(text string, font Font) float64
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// LayoutInvoice lays out a single invoice.
func LayoutInvoice(inv *invoice.Invoice, theme Theme, m Measurer) []Page {
	l := &layouter{theme: theme, m: m}
	l.invoice(inv)
	return l.pages
}

// LayoutBulk lays out several invoices into one page sequence.
func LayoutBulk(invoices []invoice.Invoice, theme Theme, m Measurer) ([]Page, []Span) {
	l := &layouter{theme: theme, m: m}
	spans := make([]Span, 0, len(invoices))

	for i := range invoices {
		first := len(l.pages) + 1
		l.invoice(&invoices[i])
		spans = append(spans, Span{
			InvoiceNumber: invoices[i].InvoiceNumber,
			FirstPage:     first,
			LastPage:      len(l.pages),
		})
	}

	return l.pages, spans
}

// =============================================================================
// LAYOUTER
// =============================================================================

type layouter struct {
	theme Theme
	m     Measurer
	pages []Page

	// current invoice number, stamped on new pages
	number string
}

func (l *layouter) newPage() {
	l.pages = append(l.pages, Page{
		Number:        len(l.pages) + 1,
		InvoiceNumber: l.number,
	})
}

func (l *layouter) page() *Page {
	return &l.pages[len(l.pages)-1]
}

func (l *layouter) add(op Op) {
	p := l.page()
	p.Ops = append(p.Ops, op)
}

func (l *layouter) text(role Role, x, y float64, s string, font Font, color RGB, align Align) {
	if s == "" {
		return
	}
	l.add(Op{Kind: OpText, Role: role, X: x, Y: y, Text: s, Font: font, Color: color, Align: align, Item: -1})
}

// invoice lays out one invoice starting on a fresh page.
func (l *layouter) invoice(inv *invoice.Invoice) {
	t := l.theme
	l.number = inv.InvoiceNumber
	l.newPage()

	// 1. header band
	l.add(Op{
		Kind: OpRect, Role: RoleBand,
		X: 0, Y: 0, W: t.PageWidth, H: t.HeaderBandHeight,
		Fill: true, FillColor: t.Accent, Item: -1,
	})
	l.text(RoleTitle, t.MarginLeft, t.TitleBaseline, t.Title, t.boldFont(t.TitleSize), t.OnAccent, AlignLeft)

	// 2. organization identity and invoice metadata
	body := t.bodyFont()
	bold := t.boldFont(t.BodySize)
	for i, s := range []string{inv.CompanyName, inv.CompanyAddress, inv.CompanyCityState} {
		l.text(RoleCompany, t.MarginLeft, t.CompanyY+float64(i)*t.LineHeight, s, body, t.Text, AlignLeft)
	}

	po := inv.PONumber
	if po == "" {
		po = t.POPlaceholder
	}
	l.text(RoleMeta, t.MetaX, t.CompanyY, "Invoice #: "+inv.InvoiceNumber, bold, t.Text, AlignLeft)
	l.text(RoleMeta, t.MetaX, t.CompanyY+t.LineHeight, "Date: "+inv.Date, body, t.Text, AlignLeft)
	l.text(RoleMeta, t.MetaX, t.CompanyY+2*t.LineHeight, "PO #: "+po, body, t.Text, AlignLeft)

	// 3. bill to
	l.text(RoleBillTo, t.MarginLeft, t.BillToY, t.BillToLabel, bold, t.Text, AlignLeft)
	l.text(RoleCustomer, t.MarginLeft, t.CustomerY, inv.CustomerName, bold, t.Text, AlignLeft)

	blockEnd := t.CustomerY
	for i, line := range wrapText(inv.BillToAddress, t.AddressWrapWidth, body, l.m) {
		y := t.AddressY + float64(i)*t.LineHeight
		l.text(RoleAddress, t.MarginLeft, y, line, body, t.Text, AlignLeft)
		blockEnd = y
	}

	// 4. table
	y := t.TableY
	if y < blockEnd+t.TableGap {
		y = blockEnd + t.TableGap
	}
	y = l.table(inv, y)

	// 5. grand total
	baseline := y + t.TotalGap
	if baseline > t.TotalLimit {
		l.newPage()
		baseline = t.ContinuationTop + t.TotalGap
	}
	l.text(RoleGrandTotal, t.PageWidth-t.MarginRight, baseline,
		t.TotalLabel+" "+t.Money(inv.GrandTotal()),
		t.boldFont(t.TotalSize), t.Accent, AlignRight)

	// 6. footer on the final page
	l.text(RoleFooter, t.PageWidth/2, t.FooterY, t.FooterText,
		Font{Family: t.FontFamily, Size: t.FooterSize}, t.Muted, AlignCenter)
}

// table draws the column header and every line item starting at y and
// returns the Y of the bottom edge of the last row drawn.
func (l *layouter) table(inv *invoice.Invoice, y float64) float64 {
	t := l.theme
	headH := t.LineHeight + 2*t.CellPadding

	rows := make([][][]string, len(inv.Items))
	heights := make([]float64, len(inv.Items))
	for i := range inv.Items {
		rows[i], heights[i] = l.row(&inv.Items[i])
	}

	// the header must not be orphaned at the bottom of a page
	need := headH
	if len(heights) > 0 {
		need += heights[0]
	}
	if y+need > t.TableBottom {
		l.newPage()
		y = t.ContinuationTop
	}
	y = l.head(y)

	rowsOnPage := 0
	for i := range rows {
		if y+heights[i] > t.TableBottom && rowsOnPage > 0 {
			l.newPage()
			y = l.head(t.ContinuationTop)
			rowsOnPage = 0
		}
		l.bodyRow(i, rows[i], y, heights[i])
		y += heights[i]
		rowsOnPage++
	}

	return y
}

// head draws the column header row at y and returns the Y below it.
func (l *layouter) head(y float64) float64 {
	t := l.theme
	h := t.LineHeight + 2*t.CellPadding
	font := t.tableFont("B")

	x := t.MarginLeft
	for _, col := range t.Columns {
		l.add(Op{
			Kind: OpRect, Role: RoleTableHead,
			X: x, Y: y, W: col.Width, H: h,
			Fill: true, FillColor: t.Accent, Item: -1,
		})
		l.text(RoleTableHead, anchorX(x, col, t.CellPadding), y+t.CellPadding+baselineOffset(t), col.Header, font, t.OnAccent, col.Align)
		x += col.Width
	}
	return y + h
}

// row wraps every cell of a line item and returns the wrapped lines per
// column together with the row height.
func (l *layouter) row(item *invoice.LineItem) ([][]string, float64) {
	t := l.theme
	font := t.tableFont("")

	values := l.cells(item)
	cells := make([][]string, len(t.Columns))
	maxLines := 1
	for c, col := range t.Columns {
		v := ""
		if c < len(values) {
			v = values[c]
		}
		cells[c] = wrapText(v, col.Width-2*t.CellPadding, font, l.m)
		if len(cells[c]) > maxLines {
			maxLines = len(cells[c])
		}
	}

	return cells, float64(maxLines)*t.LineHeight + 2*t.CellPadding
}

// cells returns the display text of a line item in column order.
func (l *layouter) cells(item *invoice.LineItem) []string {
	return []string{
		item.LineNumber,
		item.ProductNumber,
		item.Description,
		item.Quantity.String(),
		item.Carrier,
		item.Tracking,
		l.theme.Money(item.LineTotal),
	}
}

func (l *layouter) bodyRow(index int, cells [][]string, y, h float64) {
	t := l.theme
	font := t.tableFont("")
	shaded := index%2 == 1

	x := t.MarginLeft
	for c, col := range t.Columns {
		l.add(Op{
			Kind: OpRect, Role: RoleTableRow, Item: index,
			X: x, Y: y, W: col.Width, H: h,
			Fill: shaded, FillColor: t.AltRow,
			Stroke: true, StrokeColor: t.Grid, LineWidth: t.GridLineWidth,
		})
		for i, line := range cells[c] {
			l.add(Op{
				Kind: OpText, Role: RoleTableRow, Item: index,
				X:    anchorX(x, col, t.CellPadding),
				Y:    y + t.CellPadding + float64(i)*t.LineHeight + baselineOffset(t),
				Text: line, Font: font, Color: t.Text, Align: col.Align,
			})
		}
		x += col.Width
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// anchorX returns the text anchor inside a cell for the column alignment.
func anchorX(cellX float64, col Column, pad float64) float64 {
	switch col.Align {
	case AlignRight:
		return cellX + col.Width - pad
	case AlignCenter:
		return cellX + col.Width/2
	default:
		return cellX + pad
	}
}

// baselineOffset places a baseline inside a line box.
func baselineOffset(t Theme) float64 {
	return t.LineHeight * 0.75
}

// wrapText breaks text into lines no wider than width. Words are kept whole
// unless a single word is wider than the line, in which case it is broken
// between runes.
func wrapText(text string, width float64, font Font, m Measurer) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if m.StringWidth(candidate, font) <= width {
				line = candidate
				continue
			}

			if line != "" {
				lines = append(lines, line)
			}
			for word != "" && m.StringWidth(word, font) > width {
				cut := fitPrefix(word, width, font, m)
				lines = append(lines, word[:cut])
				word = word[cut:]
			}
			line = word
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// fitPrefix returns the byte length of the longest rune prefix of word that
// fits in width. At least one rune is always returned.
func fitPrefix(word string, width float64, font Font, m Measurer) int {
	_, first := utf8.DecodeRuneInString(word)
	cut := first
	for i := range word {
		if i == 0 {
			continue
		}
		if m.StringWidth(word[:i], font) > width {
			break
		}
		cut = i
	}
	return cut
}
