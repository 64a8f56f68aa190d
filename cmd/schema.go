package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/utils"
)

var (
	schInput inputFlags
	schJSON  bool
)

// schemaView is the JSON shape of `incidentes schema --json`.
type schemaView struct {
	File    string                 `json:"file"`
	Rows    int                    `json:"rows"`
	Columns []columnView           `json:"columns"`
	Roles   map[schema.Role]string `json:"roles"`
	Missing []schema.Role          `json:"missing,omitempty"`
}

type columnView struct {
	Name string            `json:"name"`
	Type schema.ColumnType `json:"type"`
}

var schemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Print the inferred column types and semantic roles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, sc, err := loadDataset(args[0], &schInput)
		if err != nil {
			return err
		}
		v := schemaView{File: ds.Name, Rows: len(ds.Rows), Roles: sc.Roles}
		for _, h := range ds.Headers {
			v.Columns = append(v.Columns, columnView{Name: h, Type: sc.Types[h]})
		}
		for _, r := range schema.Roles {
			if _, ok := sc.Column(r); !ok {
				v.Missing = append(v.Missing, r)
			}
		}

		w := cmd.OutOrStdout()
		if schJSON {
			b, err := utils.PrettyJSON(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}
		fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", v.File, v.Rows, len(v.Columns))
		fmt.Fprintln(w, "Columns:")
		for _, c := range v.Columns {
			fmt.Fprintf(w, "  %-30s %s\n", c.Name, c.Type)
		}
		fmt.Fprintln(w, "\nRoles:")
		for _, r := range schema.Roles {
			if col, ok := sc.Column(r); ok {
				fmt.Fprintf(w, "  %-12s %s\n", r, col)
			} else {
				fmt.Fprintf(w, "  %-12s -\n", r)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	addInputFlags(schemaCmd, &schInput)
	schemaCmd.Flags().BoolVar(&schJSON, "json", false, "print as JSON")
}
