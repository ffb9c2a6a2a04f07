package reconstruct

import (
	"testing"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/workbook"
	"github.com/shopspring/decimal"
)

// dataRow builds a row in the default layout.
type dataRow struct {
	date, number, customer, po       string
	room, line2, city, state, zip    string
	line, product, desc, qty         string
	carrier, tracking, total         string
}

func (d dataRow) raw() workbook.RawRow {
	row := make(workbook.RawRow, 23)
	row[2] = d.date
	row[3] = d.number
	row[8] = d.customer
	row[10], row[11], row[12], row[13], row[14] = d.room, d.line2, d.city, d.state, d.zip
	row[15] = d.po
	row[16] = d.line
	row[17] = d.product
	row[18] = d.desc
	row[19] = d.qty
	row[20] = d.carrier
	row[21] = d.tracking
	row[22] = d.total
	return row
}

func headerRows(n int) []workbook.RawRow {
	rows := make([]workbook.RawRow, n)
	for i := range rows {
		rows[i] = workbook.RawRow{"Shipment Report", "", "", "Inv #"}
	}
	return rows
}

func TestReconstruct_EndToEndSevenRowSheet(t *testing.T) {
	rows := headerRows(5)
	rows = append(rows,
		dataRow{date: "01/15/2025", number: "1001", customer: "Acme", total: "120.50", qty: "2"}.raw(),
		dataRow{date: "01/15/2025", number: "1001", customer: "Acme", total: "79.25", qty: "1"}.raw(),
	)

	invoices := Reconstruct(rows, 5)

	if len(invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(invoices))
	}
	inv := invoices[0]
	if inv.InvoiceNumber != "1001" {
		t.Errorf("InvoiceNumber = %q, want 1001", inv.InvoiceNumber)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(inv.Items))
	}
	if want := decimal.RequireFromString("199.75"); !inv.GrandTotal().Equal(want) {
		t.Errorf("GrandTotal() = %s, want %s", inv.GrandTotal(), want)
	}
}

func TestReconstruct_HeaderRowsNeverInspected(t *testing.T) {
	// A header row carrying a value in the invoice column must not create
	// an invoice.
	rows := []workbook.RawRow{
		dataRow{number: "HEADER"}.raw(),
		dataRow{number: "2001", total: "1"}.raw(),
	}

	invoices := Reconstruct(rows, 1)
	if len(invoices) != 1 || invoices[0].InvoiceNumber != "2001" {
		t.Fatalf("got %+v, want only invoice 2001", invoices)
	}
}

func TestReconstruct_GroupingAndOrder(t *testing.T) {
	rows := []workbook.RawRow{
		dataRow{number: "B", desc: "b1", customer: "Beta"}.raw(),
		dataRow{number: "A", desc: "a1", customer: "Alpha"}.raw(),
		{},
		dataRow{number: "B", desc: "b2", customer: "Ignored"}.raw(),
		dataRow{number: "", desc: "orphan"}.raw(),
		dataRow{number: "   ", desc: "orphan2"}.raw(),
		dataRow{number: "C", desc: "c1"}.raw(),
		dataRow{number: "A", desc: "a2"}.raw(),
	}

	result := New(schemaAt(0)).Run(rows)

	gotOrder := []string{}
	for _, inv := range result.Invoices {
		gotOrder = append(gotOrder, inv.InvoiceNumber)
	}
	wantOrder := []string{"B", "A", "C"}
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("invoice order = %v, want %v", gotOrder, wantOrder)
	}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("invoice order = %v, want %v", gotOrder, wantOrder)
		}
	}

	wantItems := map[string][]string{
		"B": {"b1", "b2"},
		"A": {"a1", "a2"},
		"C": {"c1"},
	}
	for number, descs := range wantItems {
		inv := invoice.Find(result.Invoices, number)
		if len(inv.Items) != len(descs) {
			t.Fatalf("invoice %s has %d items, want %d", number, len(inv.Items), len(descs))
		}
		for i, d := range descs {
			if inv.Items[i].Description != d {
				t.Errorf("invoice %s item %d = %q, want %q", number, i, inv.Items[i].Description, d)
			}
		}
	}

	// first occurrence establishes the header
	if got := invoice.Find(result.Invoices, "B").CustomerName; got != "Beta" {
		t.Errorf("B customer = %q, want Beta", got)
	}

	// no invoice contains the orphan rows
	for _, inv := range result.Invoices {
		for _, it := range inv.Items {
			if it.Description == "orphan" || it.Description == "orphan2" {
				t.Errorf("row without invoice number was assigned to %s", inv.InvoiceNumber)
			}
		}
	}

	if result.Stats.RowsScanned != 8 {
		t.Errorf("RowsScanned = %d, want 8", result.Stats.RowsScanned)
	}
	if result.Stats.RowsSkipped != 3 {
		t.Errorf("RowsSkipped = %d, want 3", result.Stats.RowsSkipped)
	}
	if result.Stats.LineItems != 5 {
		t.Errorf("LineItems = %d, want 5", result.Stats.LineItems)
	}
}

func TestReconstruct_InvoiceSetAndItemCounts(t *testing.T) {
	numbers := []string{"7", "", "8", "7", "9", "", "8", "7", "10"}
	rows := headerRows(3)
	for _, n := range numbers {
		rows = append(rows, dataRow{number: n}.raw())
	}

	invoices := Reconstruct(rows, 3)

	wantCounts := map[string]int{}
	for _, n := range numbers {
		if n != "" {
			wantCounts[n]++
		}
	}

	if len(invoices) != len(wantCounts) {
		t.Fatalf("got %d invoices, want %d", len(invoices), len(wantCounts))
	}
	for _, inv := range invoices {
		if inv.InvoiceNumber == "" {
			t.Error("emitted invoice with empty number")
		}
		want, ok := wantCounts[inv.InvoiceNumber]
		if !ok {
			t.Errorf("unexpected invoice %q", inv.InvoiceNumber)
			continue
		}
		if len(inv.Items) != want {
			t.Errorf("invoice %s has %d items, want %d", inv.InvoiceNumber, len(inv.Items), want)
		}
	}
}

func TestReconstruct_Defaults(t *testing.T) {
	rows := []workbook.RawRow{
		// short row: only date and invoice number present
		{"", "", "2025-02-01", "3001"},
	}

	invoices := Reconstruct(rows, 0)
	if len(invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(invoices))
	}

	inv := invoices[0]
	if inv.CustomerName != invoice.UnknownCustomer {
		t.Errorf("CustomerName = %q, want %q", inv.CustomerName, invoice.UnknownCustomer)
	}
	if inv.PONumber != "" || inv.BillToAddress != "" {
		t.Errorf("PO/address = %q/%q, want empty", inv.PONumber, inv.BillToAddress)
	}
	if inv.Date != "2025-02-01" {
		t.Errorf("Date = %q", inv.Date)
	}

	item := inv.Items[0]
	if item.ProductNumber != "" || item.Description != "" || item.Carrier != "" || item.Tracking != "" || item.LineNumber != "" {
		t.Errorf("string fields not defaulted: %+v", item)
	}
	if !item.Quantity.IsZero() || !item.LineTotal.IsZero() {
		t.Errorf("numeric fields not zero: qty=%s total=%s", item.Quantity, item.LineTotal)
	}
}

func TestReconstruct_NonNumericCoercedToZero(t *testing.T) {
	rows := []workbook.RawRow{
		dataRow{number: "4001", qty: "N/A", total: "N/A"}.raw(),
		dataRow{number: "4001", qty: "3", total: "$1,250.40"}.raw(),
	}

	result := New(schemaAt(0)).Run(rows)
	inv := result.Invoices[0]

	if !inv.Items[0].Quantity.IsZero() || !inv.Items[0].LineTotal.IsZero() {
		t.Errorf("N/A not coerced to zero: %+v", inv.Items[0])
	}
	if want := decimal.RequireFromString("1250.40"); !inv.Items[1].LineTotal.Equal(want) {
		t.Errorf("LineTotal = %s, want %s", inv.Items[1].LineTotal, want)
	}
	if result.Stats.CoercedNumbers != 2 {
		t.Errorf("CoercedNumbers = %d, want 2", result.Stats.CoercedNumbers)
	}
}

func TestReconstruct_AddressJoin(t *testing.T) {
	rows := []workbook.RawRow{
		dataRow{number: "5001", room: "Rm 4", line2: "", city: "Newton", state: "NC", zip: "28658"}.raw(),
	}

	invoices := Reconstruct(rows, 0)
	if got, want := invoices[0].BillToAddress, "Rm 4, Newton, NC, 28658"; got != want {
		t.Errorf("BillToAddress = %q, want %q", got, want)
	}
}

func TestReconstruct_CompanyAttached(t *testing.T) {
	company := invoice.Company{Name: "Shipping Co", Address: "1 Dock St", CityState: "Hickory, NC"}
	rows := []workbook.RawRow{dataRow{number: "6001"}.raw(), dataRow{number: "6002"}.raw()}

	result := New(schemaAt(0), WithCompany(company)).Run(rows)
	for _, inv := range result.Invoices {
		if inv.CompanyName != company.Name || inv.CompanyAddress != company.Address || inv.CompanyCityState != company.CityState {
			t.Errorf("invoice %s company = %q/%q/%q", inv.InvoiceNumber, inv.CompanyName, inv.CompanyAddress, inv.CompanyCityState)
		}
	}
}

func TestReconstruct_DefaultCompany(t *testing.T) {
	invoices := Reconstruct([]workbook.RawRow{dataRow{number: "6001"}.raw()}, 0)

	want := invoice.DefaultCompany()
	inv := invoices[0]
	if inv.CompanyName != want.Name || inv.CompanyAddress != want.Address || inv.CompanyCityState != want.CityState {
		t.Errorf("company = %q/%q/%q, want %+v", inv.CompanyName, inv.CompanyAddress, inv.CompanyCityState, want)
	}
}

func TestReconstruct_StartRowBeyondInput(t *testing.T) {
	rows := []workbook.RawRow{dataRow{number: "1"}.raw()}
	if got := Reconstruct(rows, 10); len(got) != 0 {
		t.Errorf("got %d invoices, want 0", len(got))
	}
}

func TestNumberOrZero(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		malformed bool
	}{
		{in: "", want: "0"},
		{in: "  ", want: "0"},
		{in: "12", want: "12"},
		{in: "12.345", want: "12.345"},
		{in: "-4.5", want: "-4.5"},
		{in: "$1,234.50", want: "1234.5"},
		{in: "(12.00)", want: "-12"},
		{in: "-$3.10", want: "-3.1"},
		{in: "N/A", want: "0", malformed: true},
		{in: "abc", want: "0", malformed: true},
		{in: "$", want: "0", malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, malformed := NumberOrZero(tt.in)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("NumberOrZero(%q) = %s, want %s", tt.in, got, tt.want)
			}
			if malformed != tt.malformed {
				t.Errorf("NumberOrZero(%q) malformed = %v, want %v", tt.in, malformed, tt.malformed)
			}
		})
	}
}

func TestStringOr(t *testing.T) {
	if got := StringOr("  x ", "d"); got != "x" {
		t.Errorf("StringOr trimmed = %q, want x", got)
	}
	if got := StringOr("   ", "d"); got != "d" {
		t.Errorf("StringOr blank = %q, want d", got)
	}
}

func TestSchemaValidate(t *testing.T) {
	if err := DefaultSchema().Validate(); err != nil {
		t.Fatalf("DefaultSchema().Validate() = %v", err)
	}

	bad := DefaultSchema()
	bad.LineTotal = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative column accepted")
	}

	bad = DefaultSchema()
	bad.Address = []int{1, -2}
	if err := bad.Validate(); err == nil {
		t.Error("negative address column accepted")
	}

	bad = DefaultSchema()
	bad.StartRow = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative start row accepted")
	}
}

func schemaAt(startRow int) Schema {
	s := DefaultSchema()
	s.StartRow = startRow
	return s
}
