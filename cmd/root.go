package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/config"
)

var (
	cfgFile string
	debug   bool
	// Overrides llm_timeout_ms when set
	flagLLMTimeoutMs int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "incidentes",
	Short: "Dashboard de incidentes TI nivel 2 desde exportaciones CSV/XLSX",
	Long: `incidentes infers the layout of an incident export (status, assignee, service,
vendor, duration, date and age-range columns), aggregates it by status and writes
a Markdown, JSON or Excel dashboard. An optional local LLM (Ollama or LM Studio)
adds an executive narrative.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.incidentes/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagLLMTimeoutMs, "llm-timeout-ms", 0, "LLM narrative timeout in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("llm-timeout-ms") && flagLLMTimeoutMs > 0 {
		cfg.LLMTimeoutMs = flagLLMTimeoutMs
	}
}

// settings returns the loaded config, or defaults when initialization was skipped.
func settings() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Default()
	}
	return cfg
}

func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, "[debug] "+format+"\n", args...)
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ Warning: "+format+"\n", args...)
}
