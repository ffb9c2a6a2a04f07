// =============================================================================
// Invoice Generator - Render Command
// =============================================================================
//
// The 'render' command generates PDFs for one workbook on demand, outside the
// input/output directory workflow. It is the command-line equivalent of the
// per-invoice and "all invoices" download actions.
//
// COMMAND USAGE:
//   invoicer render <workbook> [flags]
//
// EXAMPLES:
//   invoicer render export.xlsx                     # one PDF per invoice
//   invoicer render export.xlsx --invoice 1001      # just invoice 1001
//   invoicer render export.xlsx --all --out ./pdfs  # plus All_Invoices.pdf
//   invoicer render export.xlsx --all-only          # only All_Invoices.pdf
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/converter"
	"github.com/spf13/cobra"
)

var (
	renderInvoices []string
	renderAll      bool
	renderAllOnly  bool
	renderOutDir   string
	renderDryRun   bool
)

var renderCmd = &cobra.Command{
	Use:   "render <workbook>",
	Short: "Generate PDFs for a single workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringSliceVar(&renderInvoices, "invoice", nil, "Invoice number to render (repeatable, default all)")
	renderCmd.Flags().BoolVar(&renderAll, "all", false, "Also write the combined PDF of the selected invoices")
	renderCmd.Flags().BoolVar(&renderAllOnly, "all-only", false, "Write only the combined PDF")
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", "", "Output directory (default from config)")
	renderCmd.Flags().BoolVar(&renderDryRun, "dry-run", false, "Render but do not write")
}

func runRender(cmd *cobra.Command, path string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if renderOutDir != "" {
		app.cfg.OutputDir = renderOutDir
	}

	conv, err := converter.New(app.cfg, converter.WithLogger(app.log))
	if err != nil {
		return err
	}

	result := conv.Run(cmd.Context(), converter.Job{
		Path:     path,
		Invoices: renderInvoices,
		Single:   !renderAllOnly,
		Bulk:     renderAll || renderAllOnly,
		DryRun:   renderDryRun,
	})

	out := cmd.OutOrStdout()
	for _, f := range result.OutputFiles {
		fmt.Fprintln(out, f)
	}
	if result.Error != nil {
		return result.Error
	}
	if len(result.Invoices) == 0 {
		fmt.Fprintln(out, "No invoices found in the workbook.")
	}
	return nil
}
