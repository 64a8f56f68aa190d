package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/analysis"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/utils"
)

var (
	anaInput      inputFlags
	anaOutputPath string
	anaJSON       bool
	anaNarrative  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze an incident export and print the status dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rep, err := buildReport(args[0], &anaInput)
		if err != nil {
			return err
		}
		for _, w := range rep.Warnings {
			debugf("report warning: %s", w)
		}
		if anaNarrative {
			narrate(cmd.Context(), rep)
		}
		out, err := renderReport(rep, anaJSON)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			path := resolveOutput(anaOutputPath)
			if err := utils.SafeWriteFile(path, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", path)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func renderReport(rep *analysis.Report, asJSON bool) ([]byte, error) {
	if asJSON {
		return utils.PrettyJSON(rep)
	}
	return []byte(rep.Markdown()), nil
}

func addInputFlags(c *cobra.Command, in *inputFlags) {
	c.Flags().StringVar(&in.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (auto-detect if omitted)")
	c.Flags().StringVar(&in.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	c.Flags().IntVar(&in.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addInputFlags(analyzeCmd, &anaInput)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report (relative paths go under output_dir)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit the report as JSON instead of Markdown")
	analyzeCmd.Flags().BoolVar(&anaNarrative, "narrative", false, "append an executive narrative from the local LLM when available")
}
