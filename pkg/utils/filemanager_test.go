package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.xls", "c.csv", "notes.txt", ".hidden.xlsx", "~$b.xlsx", "d.XLSX"} {
		touch(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0755); err != nil {
		t.Fatal(err)
	}

	fm := NewFileManager(dir, t.TempDir(), "")
	files, err := fm.DiscoverInputFiles()
	if err != nil {
		t.Fatalf("DiscoverInputFiles() error = %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	want := "a.xls,b.xlsx,c.csv,d.XLSX"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("files = %s, want %s", got, want)
	}
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "missing"), "", "")
	if _, err := fm.DiscoverInputFiles(); err == nil {
		t.Error("expected error for missing input directory")
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "in"), filepath.Join(root, "out"), filepath.Join(root, "archive"))
	fm.ArchiveOnSuccess = false

	if err := fm.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, d := range []string{"in", "out"} {
		if info, err := os.Stat(filepath.Join(root, d)); err != nil || !info.IsDir() {
			t.Errorf("%s not created", d)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "archive")); !os.IsNotExist(err) {
		t.Error("archive dir created while archiving is disabled")
	}
}

func TestArchiveInputFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "export.xlsx")
	touch(t, src)

	fm := NewFileManager(root, root, filepath.Join(root, "archive"))
	fm.UseTimestampSubdirs = true
	fm.now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }

	got, err := fm.ArchiveInputFile(src)
	if err != nil {
		t.Fatalf("ArchiveInputFile() error = %v", err)
	}
	want := filepath.Join(root, "archive", "2024", "01", "15", "export.xlsx")
	if got != want {
		t.Errorf("archive path = %s, want %s", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("original file still present")
	}
}

func TestArchiveInputFile_Disabled(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "export.xlsx")
	touch(t, src)

	fm := NewFileManager(root, root, filepath.Join(root, "archive"))
	fm.ArchiveOnSuccess = false

	got, err := fm.ArchiveInputFile(src)
	if err != nil || got != src {
		t.Errorf("ArchiveInputFile() = %s, %v", got, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("file moved while archiving is disabled")
	}
}

func TestWriteOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pdfs")
	fm := NewFileManager("", out, "")

	path, err := fm.WriteOutputFile("Invoice_1001.pdf", []byte("%PDF-first"))
	if err != nil {
		t.Fatalf("WriteOutputFile() error = %v", err)
	}
	if _, err := fm.WriteOutputFile("Invoice_1001.pdf", []byte("%PDF-second")); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-second" {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, temp files left behind", len(entries))
	}
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	path, err := WriteSummaryLog(ProcessingSummary{
		RunID:           "run-1",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalInvoices:   3,
		ProcessedFiles: []ProcessedFileInfo{{
			InputFile:   "export.xlsx",
			OutputFiles: []string{"Invoice_1.pdf", "All_Invoices.pdf"},
			Invoices:    3,
		}},
		FailedFilesList: []FailedFileInfo{{InputFile: "broken.xlsx", ErrorMessage: "not a workbook"}},
	}, dir)
	if err != nil {
		t.Fatalf("WriteSummaryLog() error = %v", err)
	}
	if filepath.Base(path) != "processing_summary_20240115_090000.txt" {
		t.Errorf("summary name = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"run-1", "Total Invoices:   3", "All_Invoices.pdf", "broken.xlsx", "not a workbook", "Duration:       2s"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
