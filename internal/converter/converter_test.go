package converter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/config"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/render"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/workbook"
	"github.com/xuri/excelize/v2"
)

// sheetRow places values in the default column layout.
func sheetRow(date, number, customer, line, product, qty, total string) []interface{} {
	row := make([]interface{}, 23)
	for i := range row {
		row[i] = ""
	}
	row[2] = date
	row[3] = number
	row[8] = customer
	row[10], row[12], row[13], row[14] = "Suite 4", "Springfield", "IL", "62701"
	row[15] = "PO-" + number
	row[16] = line
	row[17] = product
	row[18] = "Widget " + product
	row[19] = qty
	row[20] = "UPS"
	row[21] = "1Z" + product
	row[22] = total
	return row
}

// writeWorkbook writes a shipment export with two invoices and one row
// without an invoice number.
func writeWorkbook(t *testing.T, dir, name string) string {
	t.Helper()

	rows := [][]interface{}{
		{"Shipment Report"},
		{"Generated", "2024-01-31"},
		{},
		{"Date", "", "", "Invoice"},
		{},
		sheetRow("2024-01-15", "1001", "Acme Corp", "1", "A-1", "2", "10.50"),
		sheetRow("2024-01-15", "", "Nobody", "9", "Z-9", "1", "99"),
		sheetRow("2024-01-16", "1002", "Globex", "1", "B-1", "1", "5"),
		sheetRow("2024-01-15", "1001", "ignored", "2", "A-2", "N/A", "20"),
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultMainConfig()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "archive")
	cfg.ArchiveInputs = true
	cfg.Company = invoice.Company{Name: "Wholesale Supply Co", Address: "200 Industrial Way", CityState: "Dayton, OH"}

	for _, d := range cfg.Dirs() {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func newConverter(t *testing.T, cfg *config.MainConfig) *Converter {
	t.Helper()
	c, err := New(cfg, WithRunID("test-run"), WithRenderOptions(render.WithCreationDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestRun_WritesSingleAndBulk(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Single: true, Bulk: true, Archive: true})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}

	want := []string{"Invoice_1001.pdf", "Invoice_1002.pdf", "All_Invoices.pdf"}
	if len(result.OutputFiles) != len(want) {
		t.Fatalf("outputs = %v, want %v", result.OutputFiles, want)
	}
	for i, name := range want {
		if filepath.Base(result.OutputFiles[i]) != name {
			t.Errorf("output %d = %s, want %s", i, result.OutputFiles[i], name)
		}
		data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
		if err != nil {
			t.Errorf("read %s: %v", name, err)
			continue
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Errorf("%s is not a PDF", name)
		}
	}

	s := result.Stats
	if s.InvoicesFound != 2 || s.LineItems != 3 || s.RowsSkipped != 1 || s.CoercedNumbers != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.DocumentsRendered != 3 || s.PagesRendered != 4 {
		t.Errorf("documents = %d, pages = %d", s.DocumentsRendered, s.PagesRendered)
	}

	inv := invoice.Find(result.Invoices, "1001")
	if inv == nil || inv.CustomerName != "Acme Corp" || inv.CompanyName != "Wholesale Supply Co" {
		t.Fatalf("invoice 1001 = %+v", inv)
	}
	if got := inv.GrandTotal().StringFixed(2); got != "30.50" {
		t.Errorf("grand total = %s", got)
	}

	if result.ArchivePath != filepath.Join(cfg.InputArchiveDir, "export.xlsx") {
		t.Errorf("archive path = %q", result.ArchivePath)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("workbook not moved to archive")
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Single: true, Bulk: true, DryRun: true, Archive: true})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}
	if len(result.OutputFiles) != 3 || result.Stats.DocumentsRendered != 3 {
		t.Errorf("outputs = %v", result.OutputFiles)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d files", len(entries))
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("dry run archived the workbook")
	}
}

func TestRun_InvoiceSubset(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Invoices: []string{"1002"}, Single: true})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}
	if len(result.OutputFiles) != 1 || filepath.Base(result.OutputFiles[0]) != "Invoice_1002.pdf" {
		t.Errorf("outputs = %v", result.OutputFiles)
	}
}

func TestRun_UnknownInvoice(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Invoices: []string{"1001", "7777"}, Single: true})
	if result.Success || !errors.Is(result.Error, ErrInvoiceNotFound) {
		t.Errorf("error = %v, want ErrInvoiceNotFound", result.Error)
	}
	if len(result.OutputFiles) != 0 {
		t.Errorf("outputs written for a failed selection: %v", result.OutputFiles)
	}
}

func TestRun_ParseError(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.InputDir, "broken.xlsx")
	if err := os.WriteFile(path, []byte("not a workbook"), 0644); err != nil {
		t.Fatal(err)
	}
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Single: true, Bulk: true, Archive: true})
	var perr *workbook.ParseError
	if result.Success || !errors.As(result.Error, &perr) {
		t.Fatalf("error = %v, want *workbook.ParseError", result.Error)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("failed workbook was archived")
	}
}

func TestRun_RenderError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Theme.FontFamily = "NoSuchFont"
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Single: true, Bulk: true, Archive: true})
	var rerr *render.RenderError
	if result.Success || !errors.As(result.Error, &rerr) {
		t.Fatalf("error = %v, want *render.RenderError", result.Error)
	}
	if len(result.OutputFiles) != 0 {
		t.Errorf("outputs = %v", result.OutputFiles)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("failed workbook was archived")
	}
}

func TestRun_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Run(ctx, Job{Path: path, Single: true, Bulk: true})
	if result.Success || !errors.Is(result.Error, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", result.Error)
	}
}

func TestRun_CSVInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schema.StartRow = 1
	path := filepath.Join(cfg.InputDir, "export.csv")
	csv := "h,h,Date,Invoice,h,h,h,h,Customer\n" +
		",,2024-02-01,3001,,,,,Initech,,,,,,,,1,C-1,Stapler,3,FedEx,TRK,12.00\n"
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Single: true})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}
	if len(result.Invoices) != 1 || result.Invoices[0].CustomerName != "Initech" {
		t.Errorf("invoices = %+v", result.Invoices)
	}
}

func TestRun_CollidingFileNames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schema.StartRow = 1
	path := filepath.Join(cfg.InputDir, "export.csv")
	csv := "h,h,Date,Invoice,h,h,h,h,Customer\n" +
		",,2024-02-01,A/B,,,,,Initech,,,,,,,,1,C-1,Stapler,3,FedEx,TRK,12.00\n" +
		",,2024-02-01,A B,,,,,Hooli,,,,,,,,1,C-2,Paper,1,FedEx,TRK,4.50\n" +
		",,2024-02-02,A_B_2,,,,,Globex,,,,,,,,1,C-3,Pens,10,UPS,1Z,8.00\n"
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, Single: true})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}

	want := []string{"Invoice_A_B.pdf", "Invoice_A_B_2.pdf", "Invoice_A_B_2_2.pdf"}
	if len(result.OutputFiles) != len(want) {
		t.Fatalf("outputs = %v, want %v", result.OutputFiles, want)
	}
	for i, name := range want {
		if filepath.Base(result.OutputFiles[i]) != name {
			t.Errorf("output %d = %s, want %s", i, result.OutputFiles[i], name)
		}
	}
	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(want) {
		t.Errorf("output dir holds %d files, want %d", len(entries), len(want))
	}
}

func TestOutputNames_Claim(t *testing.T) {
	names := make(outputNames)
	steps := []struct {
		name string
		want string
	}{
		{"Invoice_7.pdf", "Invoice_7.pdf"},
		{"Invoice_7.pdf", "Invoice_7_2.pdf"},
		{"invoice_7.PDF", "invoice_7_3.PDF"},
		{"All_Invoices.pdf", "All_Invoices.pdf"},
		{"Invoice_7_2.pdf", "Invoice_7_2_2.pdf"},
	}
	for _, s := range steps {
		if got := names.claim(s.name); got != s.want {
			t.Errorf("claim(%q) = %q, want %q", s.name, got, s.want)
		}
	}
}

func TestRun_DefaultCompany(t *testing.T) {
	cfg := testConfig(t)
	cfg.Company = config.DefaultMainConfig().Company
	path := writeWorkbook(t, cfg.InputDir, "export.xlsx")
	c := newConverter(t, cfg)

	result := c.Run(context.Background(), Job{Path: path, DryRun: true})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}
	inv := invoice.Find(result.Invoices, "1002")
	if inv == nil {
		t.Fatal("invoice 1002 missing")
	}
	if inv.CompanyName != "My Company Name" || inv.CompanyAddress != "123 Business Rd" || inv.CompanyCityState != "City, State, Zip" {
		t.Errorf("company = %q / %q / %q", inv.CompanyName, inv.CompanyAddress, inv.CompanyCityState)
	}
}

func TestRenderSingle_Concurrent(t *testing.T) {
	cfg := testConfig(t)
	c := newConverter(t, cfg)
	inv := invoice.Invoice{InvoiceNumber: "1001", CustomerName: "Acme", Items: []invoice.LineItem{}}

	var wg sync.WaitGroup
	docs := make([]*render.Document, 8)
	errs := make([]error, 8)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i], errs[i] = c.RenderSingle("export.xlsx", &inv)
		}(i)
	}
	wg.Wait()

	for i := range docs {
		if errs[i] != nil {
			t.Fatalf("render %d: %v", i, errs[i])
		}
		if docs[i].Name != "Invoice_1001.pdf" || !bytes.HasPrefix(docs[i].Bytes, []byte("%PDF")) {
			t.Errorf("render %d produced %q", i, docs[i].Name)
		}
	}
}

func TestBulkFileName(t *testing.T) {
	c := newConverter(t, testConfig(t))

	if got := c.BulkFileName("in/export.xlsx", false); got != "All_Invoices.pdf" {
		t.Errorf("unprefixed = %q", got)
	}
	if got := c.BulkFileName("in/march export.xlsx", true); got != "march_export_All_Invoices.pdf" {
		t.Errorf("prefixed = %q", got)
	}
}
