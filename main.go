// =============================================================================
// Invoice Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   invoicer process   - Generate PDFs for every workbook in the input directory
//   invoicer render    - Generate PDFs for one workbook
//   invoicer inspect   - Show the invoices found in a workbook
//   invoicer version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/                  : CLI command definitions (Cobra)
//   - internal/workbook     : xlsx / xls / csv decoding into raw rows
//   - internal/reconstruct  : rows -> invoices
//   - internal/render       : invoices -> PDF
//   - internal/converter    : the per-workbook pipeline
//   - pkg/utils             : file discovery, archival, atomic writes
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/xlsx-invoice-generator/cmd"
)

func main() {
	cmd.Execute()
}
