package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/export"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/utils"
)

var (
	abInput     inputFlags
	abOutDir    string
	abJSON      bool
	abXLSX      bool
	abNarrative bool
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze several incident exports and write one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		outDir := abOutDir
		if outDir == "" {
			outDir = settings().OutputDir
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		w := cmd.OutOrStdout()
		ext := ".reporte.md"
		if abJSON {
			ext = ".reporte.json"
		}

		total := len(files)
		failed := 0
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ds, rep, err := buildReport(path, &abInput)
			if err != nil {
				// one bad export should not sink the batch
				warnf("%s: %v", filepath.Base(path), err)
				failed++
				continue
			}
			if abNarrative {
				narrate(cmd.Context(), rep)
			}
			body, err := renderReport(rep, abJSON)
			if err != nil {
				return err
			}
			base := uniqueBase(outDir, reportBase(path), ext)
			outFile := filepath.Join(outDir, base+ext)
			if err := utils.SafeWriteFile(outFile, body); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(w, "✓ Wrote %s\n", outFile)
			}
			if abXLSX {
				xf := filepath.Join(outDir, base+".reporte.xlsx")
				if err := export.WriteWorkbook(xf, ds, rep, export.Options{Narrative: rep.Narrative}); err != nil {
					return fmt.Errorf("export workbook: %w", err)
				}
				if !abQuiet {
					fmt.Fprintf(w, "✓ Wrote %s\n", xf)
				}
			}
		}
		if failed == total {
			return fmt.Errorf("all %d files failed", total)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist and drops duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func reportBase(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if abInput.sheetName == "" {
		return stem
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(abInput.sheetName)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	sheet := strings.Trim(b.String(), "-")
	if sheet == "" {
		sheet = "sheet"
	}
	return stem + "__sheet-" + sheet
}

// uniqueBase appends __2, __3... until base+ext does not exist in dir.
func uniqueBase(dir, base, ext string) string {
	if _, err := os.Stat(filepath.Join(dir, base+ext)); os.IsNotExist(err) {
		return base
	}
	for idx := 2; ; idx++ {
		cand := fmt.Sprintf("%s__%d", base, idx)
		if _, err := os.Stat(filepath.Join(dir, cand+ext)); os.IsNotExist(err) {
			if !abQuiet {
				warnf("existing report detected, writing %s%s to avoid overwrite", cand, ext)
			}
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	addInputFlags(analyzeBatchCmd, &abInput)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for reports (default output_dir)")
	analyzeBatchCmd.Flags().BoolVar(&abJSON, "json", false, "write JSON reports instead of Markdown")
	analyzeBatchCmd.Flags().BoolVar(&abXLSX, "xlsx", false, "also write an Excel workbook per file")
	analyzeBatchCmd.Flags().BoolVar(&abNarrative, "narrative", false, "add the local LLM narrative to each report when available")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
