// =============================================================================
// Invoice Generator - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch entry point. It turns
// every workbook in the input directory into PDFs.
//
// COMMAND USAGE:
//   invoicer process [flags]
//
// FLAGS:
//   --dry-run     : Render everything but write and archive nothing
//   --file        : Process only this workbook (repeatable)
//   --single-only : Write only the per-invoice PDFs
//   --bulk-only   : Write only the combined PDF
//   --summary     : Write a processing summary to the output directory
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover workbooks in the input directory
//   3. Process workbooks concurrently, at most max_concurrency at a time
//   4. Print the summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/converter"
	"github.com/ginjaninja78/xlsx-invoice-generator/pkg/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun      bool
	inputFiles  []string
	singleOnly  bool
	bulkOnly    bool
	writeReport bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Turn every workbook in the input directory into PDF invoices",
	Long: `The process command scans the input directory for .xlsx, .xls and .csv
workbooks and generates, for each one, a PDF per invoice and a combined PDF
of all its invoices.

Workbooks are processed concurrently. A failure in one workbook does not
affect the others unless continue_on_error is false.

On success:
  - The PDFs are placed in the output directory
  - The workbook is moved to the input archive (when archive_inputs is set)

On error:
  - The workbook remains in the input directory
  - The failure is reported in the summary`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render PDFs but do not write or archive anything")
	processCmd.Flags().StringSliceVar(&inputFiles, "file", nil, "Process only this workbook (repeatable)")
	processCmd.Flags().BoolVar(&singleOnly, "single-only", false, "Write only one PDF per invoice")
	processCmd.Flags().BoolVar(&bulkOnly, "bulk-only", false, "Write only the combined PDF")
	processCmd.Flags().BoolVar(&writeReport, "summary", false, "Write a processing summary file to the output directory")

	processCmd.MarkFlagsMutuallyExclusive("single-only", "bulk-only")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	cfg := app.cfg

	single, bulk := cfg.WriteSingle, cfg.WriteBulk
	if singleOnly {
		single, bulk = true, false
	}
	if bulkOnly {
		single, bulk = false, true
	}

	conv, err := converter.New(cfg, converter.WithLogger(app.log))
	if err != nil {
		return err
	}
	files := conv.Files()

	// =========================================================================
	// STEP 1: DIRECTORIES AND DISCOVERY
	// =========================================================================

	if !dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	paths := inputFiles
	if len(paths) == 0 {
		paths, err = files.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(paths) == 0 {
		fmt.Fprintln(out, "No workbooks found in the input directory.")
		return nil
	}

	app.log.Info().Int("files", len(paths)).Str("run_id", conv.RunID()).Msg("starting run")

	// =========================================================================
	// STEP 2: PROCESS WORKBOOKS CONCURRENTLY
	// =========================================================================

	results := make([]converter.Result, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	if cfg.MaxConcurrency > 0 {
		g.SetLimit(cfg.MaxConcurrency)
	}

	for i, path := range paths {
		g.Go(func() error {
			results[i] = conv.Run(ctx, converter.Job{
				Path:     path,
				Single:   single,
				Bulk:     bulk,
				BulkName: conv.BulkFileName(path, len(paths) > 1),
				DryRun:   dryRun,
				Archive:  cfg.ArchiveInputs,
			})
			if results[i].Error != nil && !cfg.ContinueOnError {
				return results[i].Error
			}
			return nil
		})
	}
	firstErr := g.Wait()

	// =========================================================================
	// STEP 3: SUMMARY
	// =========================================================================

	summary := utils.ProcessingSummary{
		RunID:      conv.RunID(),
		StartTime:  startTime,
		TotalFiles: len(paths),
	}

	for _, r := range results {
		name := filepath.Base(r.FilePath)
		if r.FilePath == "" {
			// never started: an earlier failure stopped the run
			continue
		}

		summary.TotalRows += r.Stats.RowsScanned
		summary.TotalInvoices += r.Stats.InvoicesFound
		summary.TotalLineItems += r.Stats.LineItems

		if r.Success {
			summary.SuccessfulFiles++
			summary.TotalDocuments += len(r.OutputFiles)
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   r.FilePath,
				OutputFiles: r.OutputFiles,
				ArchivePath: r.ArchivePath,
				Rows:        r.Stats.RowsScanned,
				Invoices:    r.Stats.InvoicesFound,
				LineItems:   r.Stats.LineItems,
				ProcessTime: r.Stats.ProcessingTime,
			})
			fmt.Fprintf(out, "  ✓ %s -> %d invoice(s), %d PDF(s)\n", name, r.Stats.InvoicesFound, len(r.OutputFiles))
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.FilePath,
				ErrorMessage: r.Error.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %s\n", name, userMessage(r.Error))
		}
	}
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Invoices:        %d\n", summary.TotalInvoices)
	fmt.Fprintf(out, "PDFs:            %d\n", summary.TotalDocuments)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime).Round(time.Millisecond))
	if dryRun {
		fmt.Fprintln(out, "Dry run: no files were written.")
	}

	if writeReport && !dryRun {
		path, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
		if err != nil {
			app.log.Warn().Err(err).Msg("failed to write summary")
		} else {
			fmt.Fprintf(out, "Summary:         %s\n", path)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d workbook(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}
