package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	cfgpkg "github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set incidentes configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "llm_enabled: %t\n", c.LLMEnabled)
		fmt.Fprintf(w, "llm_provider: %s\n", c.LLMProvider)
		fmt.Fprintf(w, "llm_model: %s\n", c.LLMModel)
		fmt.Fprintf(w, "ollama_host: %s\n", c.OllamaHost)
		fmt.Fprintf(w, "lmstudio_url: %s\n", c.LMStudioURL)
		if c.LLMAPIKey != "" {
			fmt.Fprintf(w, "llm_api_key: %s\n", mask(c.LLMAPIKey))
		}
		fmt.Fprintf(w, "llm_timeout_ms: %d\n", c.LLMTimeoutMs)
		fmt.Fprintf(w, "temperature: %.3f\n", c.Temperature)
		fmt.Fprintf(w, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(w, "sample_size: %d\n", c.SampleSize)
		fmt.Fprintf(w, "output_dir: %s\n", c.OutputDir)
		delim := c.Delimiter
		if delim == "" {
			delim = "auto"
		}
		fmt.Fprintf(w, "delimiter: %s\n", delim)
		if len(c.Columns) > 0 {
			fmt.Fprintln(w, "columns:")
			keys := make([]string, 0, len(c.Columns))
			for k := range c.Columns {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "  %s: %s\n", k, c.Columns[k])
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk (columns.<rol> <columna> overrides a role)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
