// =============================================================================
// Invoice Generator - Converter Module
// =============================================================================
//
// This module contains the core generation pipeline. It orchestrates the
// processing of a single workbook, from decoding to writing PDFs.
//
// PIPELINE:
//   1. Decode the workbook (xlsx, xls or csv) into raw rows
//   2. Reconstruct invoices from the rows using the column schema
//   3. Select the invoices requested by the job
//   4. Render one PDF per invoice (single mode)
//   5. Render one PDF holding every invoice (bulk mode)
//   6. Write the PDFs atomically to the output directory
//   7. Archive the processed workbook
//
// CONCURRENCY:
//   A Converter is shared by every goroutine of a run. Identical render
//   requests that overlap in time are collapsed into one render through a
//   singleflight group. The context is checked between invoices so a
//   cancelled run stops at the next document boundary.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/config"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/reconstruct"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/render"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/workbook"
	"github.com/ginjaninja78/xlsx-invoice-generator/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrInvoiceNotFound is returned when a job names an invoice number that the
// workbook does not contain.
var ErrInvoiceNotFound = errors.New("invoice not found")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single workbook.
type Result struct {
	// FilePath is the path to the workbook that was processed.
	FilePath string

	// OutputFiles lists the PDFs written, single documents first. In dry-run
	// mode it lists the PDFs that would have been written.
	OutputFiles []string

	// ArchivePath is where the workbook was moved, if it was archived.
	ArchivePath string

	// Invoices are the reconstructed invoices in first-seen order.
	Invoices []invoice.Invoice

	// Success indicates whether every requested document was produced.
	Success bool

	// Error joins every failure of the run. It is nil on success.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsScanned is the number of rows at or after the start row.
	RowsScanned int

	// RowsSkipped is the number of rows without an invoice number.
	RowsSkipped int

	// InvoicesFound is the number of distinct invoices reconstructed.
	InvoicesFound int

	// LineItems is the total number of line items.
	LineItems int

	// CoercedNumbers counts numeric cells that were not numbers.
	CoercedNumbers int

	// DocumentsRendered is the number of PDFs rendered.
	DocumentsRendered int

	// PagesRendered is the total page count over all PDFs.
	PagesRendered int

	// ProcessingTime is the time taken to process the workbook.
	ProcessingTime time.Duration
}

// =============================================================================
// JOB
// =============================================================================

// Job describes what to produce for one workbook.
type Job struct {
	// Path is the workbook to read.
	Path string

	// Invoices restricts output to these invoice numbers, in this order.
	// Empty means every invoice in the workbook.
	Invoices []string

	// Single writes one PDF per selected invoice.
	Single bool

	// Bulk writes one PDF containing every selected invoice.
	Bulk bool

	// BulkName overrides the bulk file name.
	BulkName string

	// DryRun renders but writes nothing and archives nothing.
	DryRun bool

	// Archive moves the workbook to the archive directory on success.
	Archive bool
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the generation pipeline.
type Converter struct {
	cfg           *config.MainConfig
	files         *utils.FileManager
	renderer      *render.Renderer
	renderOpts    []render.Option
	reconstructor *reconstruct.Reconstructor
	readOpts      workbook.Options

	logger zerolog.Logger
	runID  string

	renders singleflight.Group
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the converter logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithRunID fixes the run identifier attached to every log line.
func WithRunID(id string) Option {
	return func(c *Converter) {
		c.runID = id
	}
}

// WithFileManager replaces the file manager built from the configuration.
func WithFileManager(fm *utils.FileManager) Option {
	return func(c *Converter) {
		c.files = fm
	}
}

// WithRenderOptions passes options through to the renderer.
func WithRenderOptions(opts ...render.Option) Option {
	return func(c *Converter) {
		c.renderOpts = append(c.renderOpts, opts...)
	}
}

// New creates a Converter from the main configuration.
func New(cfg *config.MainConfig, opts ...Option) (*Converter, error) {
	theme, err := cfg.RenderTheme()
	if err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchiveInputs

	c := &Converter{
		cfg:      cfg,
		files:    fm,
		readOpts: workbook.Options{CSVDelimiter: cfg.CSVDelimiter},
		logger:   zerolog.Nop(),
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With().Str("run_id", c.runID).Logger()
	c.renderer = render.New(theme, append([]render.Option{render.WithLogger(c.logger)}, c.renderOpts...)...)
	c.reconstructor = reconstruct.New(cfg.Schema,
		reconstruct.WithCompany(cfg.Company),
		reconstruct.WithLogger(c.logger),
	)
	return c, nil
}

// RunID returns the identifier of this run.
func (c *Converter) RunID() string {
	return c.runID
}

// Files returns the file manager used for output and archival.
func (c *Converter) Files() *utils.FileManager {
	return c.files
}

// =============================================================================
// LOADING
// =============================================================================

// Load decodes the workbook at path and reconstructs its invoices. A decode
// failure is returned as a *workbook.ParseError.
func (c *Converter) Load(ctx context.Context, path string) (*reconstruct.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheet, err := workbook.ReadFile(path, c.readOpts)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("file", filepath.Base(path)).
		Str("format", sheet.Format).
		Str("sheet", sheet.Name).
		Int("rows", len(sheet.Rows)).
		Msg("decoded workbook")

	return c.reconstructor.Run(sheet.Rows), nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for one job. It never panics and always returns
// a Result; failures are reported in Result.Error.
func (c *Converter) Run(ctx context.Context, job Job) (result Result) {
	startTime := time.Now()
	log := c.logger.With().Str("file", filepath.Base(job.Path)).Logger()
	result = Result{FilePath: job.Path}

	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1-2: DECODE AND RECONSTRUCT
	// =========================================================================

	log.Info().Msg("processing workbook")

	rec, err := c.Load(ctx, job.Path)
	if err != nil {
		result.Error = err
		return result
	}

	result.Invoices = rec.Invoices
	result.Stats.RowsScanned = rec.Stats.RowsScanned
	result.Stats.RowsSkipped = rec.Stats.RowsSkipped
	result.Stats.InvoicesFound = len(rec.Invoices)
	result.Stats.LineItems = rec.Stats.LineItems
	result.Stats.CoercedNumbers = rec.Stats.CoercedNumbers

	log.Info().
		Int("invoices", len(rec.Invoices)).
		Int("line_items", rec.Stats.LineItems).
		Int("rows_skipped", rec.Stats.RowsSkipped).
		Msg("reconstructed invoices")
	if rec.Stats.CoercedNumbers > 0 {
		log.Warn().Int("cells", rec.Stats.CoercedNumbers).Msg("non-numeric quantity or total cells treated as zero")
	}

	// =========================================================================
	// STEP 3: SELECT INVOICES
	// =========================================================================

	selected, err := selectInvoices(rec.Invoices, job.Invoices)
	if err != nil {
		result.Error = err
		return result
	}
	if len(selected) == 0 {
		log.Warn().Msg("no invoices found, nothing to render")
	}

	var errs []error
	names := make(outputNames)

	// =========================================================================
	// STEP 4: SINGLE DOCUMENTS
	// =========================================================================

	if job.Single {
		for i := range selected {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				break
			}

			inv := &selected[i]
			doc, err := c.RenderSingle(job.Path, inv)
			if err != nil {
				log.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("render failed")
				errs = append(errs, err)
				if !c.cfg.ContinueOnError {
					break
				}
				continue
			}

			want := c.cfg.SingleFileName(inv.InvoiceNumber)
			name := names.claim(want)
			if name != want {
				log.Warn().Str("invoice", inv.InvoiceNumber).Str("output", name).Msg("file name already taken, added a suffix")
			}
			if err := c.emit(&result, name, doc, job.DryRun); err != nil {
				errs = append(errs, err)
				if !c.cfg.ContinueOnError {
					break
				}
			}
		}
	}

	// =========================================================================
	// STEP 5: BULK DOCUMENT
	// =========================================================================

	if job.Bulk && len(selected) > 0 && (len(errs) == 0 || c.cfg.ContinueOnError) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
		} else if doc, err := c.RenderBulk(job.Path, selected); err != nil {
			log.Error().Err(err).Msg("bulk render failed")
			errs = append(errs, err)
		} else {
			name := job.BulkName
			if name == "" {
				name = c.cfg.BulkFileName
			}
			if claimed := names.claim(name); claimed != name {
				log.Warn().Str("output", claimed).Msg("bulk file name already taken, added a suffix")
				name = claimed
			}
			if err := c.emit(&result, name, doc, job.DryRun); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		result.Error = errors.Join(errs...)
		return result
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	if job.Archive && !job.DryRun {
		archivePath, err := c.files.ArchiveInputFile(job.Path)
		if err != nil {
			// The PDFs are already written; report but do not fail.
			log.Warn().Err(err).Msg("failed to archive workbook")
		} else if archivePath != job.Path {
			result.ArchivePath = archivePath
			log.Debug().Str("archive", archivePath).Msg("archived workbook")
		}
	}

	result.Success = true
	log.Info().
		Int("documents", result.Stats.DocumentsRendered).
		Int("pages", result.Stats.PagesRendered).
		Bool("dry_run", job.DryRun).
		Msg("workbook done")

	return result
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderSingle renders one invoice. Concurrent calls for the same source and
// invoice number share a single render.
func (c *Converter) RenderSingle(source string, inv *invoice.Invoice) (*render.Document, error) {
	key := "single\x00" + source + "\x00" + inv.InvoiceNumber
	v, err, shared := c.renders.Do(key, func() (interface{}, error) {
		return c.renderer.RenderSingle(inv)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("invoice", inv.InvoiceNumber).Msg("shared in-flight render")
	}
	return v.(*render.Document), nil
}

// RenderBulk renders every invoice into one document. Concurrent calls for
// the same source and invoice sequence share a single render.
func (c *Converter) RenderBulk(source string, invoices []invoice.Invoice) (*render.Document, error) {
	numbers := make([]string, len(invoices))
	for i := range invoices {
		numbers[i] = invoices[i].InvoiceNumber
	}
	key := "bulk\x00" + source + "\x00" + strings.Join(numbers, "\x00")

	v, err, _ := c.renders.Do(key, func() (interface{}, error) {
		return c.renderer.RenderBulk(invoices)
	})
	if err != nil {
		return nil, err
	}
	return v.(*render.Document), nil
}

// emit records a rendered document and writes it unless dryRun is set.
func (c *Converter) emit(result *Result, name string, doc *render.Document, dryRun bool) error {
	result.Stats.DocumentsRendered++
	result.Stats.PagesRendered += doc.Pages

	path := filepath.Join(c.files.OutputDir, name)
	if !dryRun {
		var err error
		path, err = c.files.WriteOutputFile(name, doc.Bytes)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	result.OutputFiles = append(result.OutputFiles, path)
	c.logger.Debug().Str("output", path).Int("pages", doc.Pages).Bool("dry_run", dryRun).Msg("document ready")
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// BulkFileName returns the bulk PDF name for a workbook. With prefixed set,
// the workbook base name is prepended so that several workbooks processed in
// one run do not overwrite each other's combined document.
func (c *Converter) BulkFileName(path string, prefixed bool) string {
	if !prefixed {
		return c.cfg.BulkFileName
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return render.SafeName(stem) + "_" + c.cfg.BulkFileName
}

// outputNames tracks the file names written by one job. Invoice numbers that
// differ only in characters SafeName replaces ("A/B", "A B") map to the same
// name.
type outputNames map[string]bool

// claim returns name, or name with a "_2", "_3", ... suffix before the
// extension when it was already claimed.
func (n outputNames) claim(name string) string {
	if !n[strings.ToLower(name)] {
		n[strings.ToLower(name)] = true
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !n[strings.ToLower(candidate)] {
			n[strings.ToLower(candidate)] = true
			return candidate
		}
	}
}

// selectInvoices returns the invoices named by numbers, in that order. An
// empty numbers list selects all invoices.
func selectInvoices(all []invoice.Invoice, numbers []string) ([]invoice.Invoice, error) {
	if len(numbers) == 0 {
		return all, nil
	}

	selected := make([]invoice.Invoice, 0, len(numbers))
	var missing []string
	for _, n := range numbers {
		inv := invoice.Find(all, n)
		if inv == nil {
			missing = append(missing, n)
			continue
		}
		selected = append(selected, *inv)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, strings.Join(missing, ", "))
	}
	return selected, nil
}
