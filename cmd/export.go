package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/export"
)

var (
	expInput     inputFlags
	expOutput    string
	expNarrative bool
	expMaxRows   int
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the dashboard as an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, rep, err := buildReport(args[0], &expInput)
		if err != nil {
			return err
		}
		if expNarrative {
			narrate(cmd.Context(), rep)
		}
		out := expOutput
		if out == "" {
			out = defaultWorkbookName(args[0])
		}
		if !strings.EqualFold(filepath.Ext(out), ".xlsx") {
			return fmt.Errorf("output must be an .xlsx file: %s", out)
		}
		path := resolveOutput(out)
		if err := export.WriteWorkbook(path, ds, rep, export.Options{Narrative: rep.Narrative, MaxDataRows: expMaxRows}); err != nil {
			return fmt.Errorf("export workbook: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote workbook to %s\n", path)
		return nil
	},
}

// defaultWorkbookName turns "incidentes.csv" into "incidentes_reporte.xlsx".
func defaultWorkbookName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_reporte.xlsx"
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addInputFlags(exportCmd, &expInput)
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "workbook path (default <input>_reporte.xlsx under output_dir)")
	exportCmd.Flags().BoolVar(&expNarrative, "narrative", false, "add the local LLM narrative to the Hallazgos sheet when available")
	exportCmd.Flags().IntVar(&expMaxRows, "max-data-rows", 0, "cap rows copied to the Datos sheet (0 = all)")
}
