// =============================================================================
// Invoice Generator - Render Theme
// =============================================================================
//
// Theme holds every styling constant the renderer uses: page geometry, fixed
// element positions, colours, fonts and table columns. A Theme is a value;
// the renderer copies it and never mutates it, so rendering is a pure
// function of (theme, invoices).
//
// UNITS:
//   All lengths are millimetres, font sizes are points.
//
// DEFAULT PAGE (A4 portrait, 210 x 297):
//
//   y=0   +---------------------------------------------+
//         |  INVOICE             (accent band, 30mm)     |
//   y=30  +---------------------------------------------+
//   y=40  Company name                 Invoice #: 1001
//   y=45  Company address              Date: ...
//   y=50  City, State                  PO #: ...
//   y=65  Bill To:
//   y=72  Customer
//   y=78  wrapped address (70mm wide)
//   y=95  | # | Product | Description | Qty | Carrier | Tracking | Total |
//         ...                                     Grand Total: $x.xx
//   y=280                Thank you for your business!
//
// =============================================================================

package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RGB is a colour with 0-255 components.
type RGB struct {
	R, G, B int
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB".
func ParseHexColor(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// Align is a horizontal text alignment relative to an anchor X.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Font identifies a font face and size.
type Font struct {
	Family string
	Style  string // "", "B", "I" or "BI"
	Size   float64
}

// Column describes one table column.
type Column struct {
	Header string
	Width  float64
	Align  Align
}

// Theme is the immutable styling configuration of the renderer.
type Theme struct {
	// =========================================================================
	// PAGE GEOMETRY
	// =========================================================================

	PageWidth   float64
	PageHeight  float64
	MarginLeft  float64
	MarginRight float64

	// ContinuationTop is where content resumes on pages after the first
	// page of an invoice.
	ContinuationTop float64

	// TableBottom is the lowest Y a table row may reach.
	TableBottom float64

	// TotalLimit is the lowest baseline allowed for the grand total.
	TotalLimit float64

	// LineHeight is the distance between baselines of body text.
	LineHeight float64

	// =========================================================================
	// HEADER BAND
	// =========================================================================

	HeaderBandHeight float64
	Title            string
	TitleSize        float64
	TitleBaseline    float64

	// =========================================================================
	// FIXED BLOCK POSITIONS
	// =========================================================================

	CompanyY         float64
	MetaX            float64
	BillToY          float64
	CustomerY        float64
	AddressY         float64
	AddressWrapWidth float64
	BillToLabel      string
	POPlaceholder    string

	// =========================================================================
	// TABLE
	// =========================================================================

	TableY        float64
	TableGap      float64
	CellPadding   float64
	TableFontSize float64
	GridLineWidth float64
	Columns       []Column

	// =========================================================================
	// TOTAL & FOOTER
	// =========================================================================

	TotalGap       float64
	TotalSize      float64
	TotalLabel     string
	CurrencyPrefix string
	FooterY        float64
	FooterSize     float64
	FooterText     string

	// =========================================================================
	// FONTS & COLOURS
	// =========================================================================

	FontFamily string
	BodySize   float64
	Accent     RGB
	OnAccent   RGB
	Text       RGB
	Muted      RGB
	Grid       RGB
	AltRow     RGB
}

// DefaultTheme returns the standard A4 red-accent invoice theme.
func DefaultTheme() Theme {
	return Theme{
		PageWidth:       210,
		PageHeight:      297,
		MarginLeft:      14,
		MarginRight:     14,
		ContinuationTop: 15,
		TableBottom:     270,
		TotalLimit:      272,
		LineHeight:      5,

		HeaderBandHeight: 30,
		Title:            "INVOICE",
		TitleSize:        22,
		TitleBaseline:    20,

		CompanyY:         40,
		MetaX:            140,
		BillToY:          65,
		CustomerY:        72,
		AddressY:         78,
		AddressWrapWidth: 70,
		BillToLabel:      "Bill To:",
		POPlaceholder:    "N/A",

		TableY:        95,
		TableGap:      6,
		CellPadding:   2,
		TableFontSize: 9,
		GridLineWidth: 0.1,
		Columns: []Column{
			{Header: "#", Width: 10, Align: AlignLeft},
			{Header: "Product", Width: 24, Align: AlignLeft},
			{Header: "Description", Width: 56, Align: AlignLeft},
			{Header: "Qty", Width: 14, Align: AlignRight},
			{Header: "Carrier", Width: 22, Align: AlignLeft},
			{Header: "Tracking", Width: 32, Align: AlignLeft},
			{Header: "Total", Width: 24, Align: AlignRight},
		},

		TotalGap:       15,
		TotalSize:      14,
		TotalLabel:     "Grand Total:",
		CurrencyPrefix: "$",
		FooterY:        280,
		FooterSize:     9,
		FooterText:     "Thank you for your business!",

		FontFamily: "Helvetica",
		BodySize:   10,
		Accent:     RGB{226, 0, 26},
		OnAccent:   RGB{255, 255, 255},
		Text:       RGB{0, 0, 0},
		Muted:      RGB{150, 150, 150},
		Grid:       RGB{220, 220, 220},
		AltRow:     RGB{249, 249, 249},
	}
}

// Validate checks the geometry is usable.
func (t Theme) Validate() error {
	if t.PageWidth <= 0 || t.PageHeight <= 0 {
		return fmt.Errorf("page size must be positive, got %gx%g", t.PageWidth, t.PageHeight)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("theme has no table columns")
	}

	var width float64
	for _, c := range t.Columns {
		if c.Width <= 2*t.CellPadding {
			return fmt.Errorf("column %q is narrower than its padding", c.Header)
		}
		width += c.Width
	}
	if avail := t.PageWidth - t.MarginLeft - t.MarginRight; width > avail+0.001 {
		return fmt.Errorf("table columns are %gmm wide, only %gmm available", width, avail)
	}

	if t.LineHeight <= 0 {
		return fmt.Errorf("line height must be positive")
	}
	if t.TableBottom <= t.ContinuationTop {
		return fmt.Errorf("table bottom %g must be below continuation top %g", t.TableBottom, t.ContinuationTop)
	}
	if t.TableBottom > t.PageHeight {
		return fmt.Errorf("table bottom %g is off the page", t.TableBottom)
	}
	return nil
}

// Money formats an amount with the currency prefix and two decimals.
func (t Theme) Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + t.CurrencyPrefix + d.Abs().StringFixed(2)
	}
	return t.CurrencyPrefix + d.StringFixed(2)
}

func (t Theme) bodyFont() Font {
	return Font{Family: t.FontFamily, Size: t.BodySize}
}

func (t Theme) boldFont(size float64) Font {
	return Font{Family: t.FontFamily, Style: "B", Size: size}
}

func (t Theme) tableFont(style string) Font {
	return Font{Family: t.FontFamily, Style: style, Size: t.TableFontSize}
}

func (t Theme) tableWidth() float64 {
	var w float64
	for _, c := range t.Columns {
		w += c.Width
	}
	return w
}
