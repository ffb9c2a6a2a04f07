// =============================================================================
// Invoice Generator - Inspect Command
// =============================================================================
//
// The 'inspect' command shows the invoices reconstructed from a workbook
// without rendering anything. Use it to check a column schema against a new
// export before running 'process'.
//
// COMMAND USAGE:
//   invoicer inspect <workbook> [--format table|yaml|json]
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/converter"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/invoice"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/reconstruct"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <workbook>",
	Short: "Show the invoices found in a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "table", "Output format: table, yaml or json")
}

func runInspect(cmd *cobra.Command, path string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}

	conv, err := converter.New(app.cfg, converter.WithLogger(app.log))
	if err != nil {
		return err
	}

	rec, err := conv.Load(cmd.Context(), path)
	if err != nil {
		return err
	}

	return writeInspection(cmd.OutOrStdout(), inspectFormat, rec)
}

// writeInspection prints the reconstruction in the requested format.
func writeInspection(w io.Writer, format string, rec *reconstruct.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec.Invoices)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec.Invoices); err != nil {
			return err
		}
		return enc.Close()

	case "table", "":
		return writeTable(w, rec)

	default:
		return fmt.Errorf("unknown format %q: want table, yaml or json", format)
	}
}

func writeTable(w io.Writer, rec *reconstruct.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tDATE\tCUSTOMER\tPO\tITEMS\tTOTAL")
	for i := range rec.Invoices {
		inv := &rec.Invoices[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			inv.InvoiceNumber, inv.Date, inv.CustomerName, inv.PONumber,
			inv.ItemCount(), inv.GrandTotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := rec.Stats
	_, err := fmt.Fprintf(w, "\n%d invoice(s), %d line item(s), total %s. Rows scanned %d, skipped %d, non-numeric cells %d.\n",
		len(rec.Invoices), s.LineItems, invoice.TotalOf(rec.Invoices).StringFixed(2),
		s.RowsScanned, s.RowsSkipped, s.CoercedNumbers)
	return err
}
