package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"
)

const incidentsCSV = "\ufeffIncidente;Estado Final Incidente;Ingeniero Asignado;Servicio;Proveedor a escalar;Edad Incidente;Rango edad;Categoría\n" +
	"INC1;Abierto;Ana Pérez;Red;ACME;40;31-60 días;Hardware\n" +
	"INC2;Cerrado;Ana Pérez;Correo;ACME;10;Menor a 30 días;Software\n" +
	"INC3;Abierto;Luis Gómez;Red;Beta SA;100;Más de 90 días;Hardware\n" +
	"INC4;Devuelto;Luis Gómez;Red;Beta SA;20;Menor a 30 días;Software\n" +
	"INC5;;Eva Ruiz;Correo;;5;Menor a 30 días;\n" +
	";;;;;;;\n" +
	"INC6;Resuelto;Eva Ruiz;Red;ACME;15;Menor a 30 días;Hardware\n"

// isolate points HOME at a temp dir so no user config leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(incidentsCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns what it printed.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func TestCLI_AnalyzeMarkdown(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")

	out := mustRun(t, "analyze", in)
	for _, want := range []string{
		"Rows: 6",
		"[ESTADO] Estado Final Incidente",
		"- Abiertos: 2 (33%)",
		"[RESPONSABLES]",
		"[SERVICIOS ABIERTOS] Servicio",
		"[SALUD DEL BACKLOG]",
		"[RESUMEN EJECUTIVO]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[NARRATIVA (LLM)]") {
		t.Fatalf("narrative must be opt-in")
	}
}

func TestCLI_AnalyzeJSONToOutputDir(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")
	outDir := filepath.Join(home, "reportes")
	t.Setenv("INCIDENTES_OUTPUT_DIR", outDir)

	out := mustRun(t, "analyze", in, "--json", "-o", "dashboard.json")
	path := filepath.Join(outDir, "dashboard.json")
	if !strings.Contains(out, "✓ Wrote analysis to "+path) {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep struct {
		Rows int `json:"rows"`
		KPI  struct {
			TotalIncidentes int `json:"totalIncidentes"`
			Abiertos        int `json:"abiertos"`
			Cerrados        int `json:"cerrados"`
		} `json:"kpi"`
		Schema struct {
			Roles map[string]string `json:"roles"`
		} `json:"schema"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Rows != 6 || rep.KPI.TotalIncidentes != 6 || rep.KPI.Abiertos != 2 || rep.KPI.Cerrados != 2 {
		t.Fatalf("unexpected figures: %+v", rep)
	}
	if rep.Schema.Roles["estado"] != "Estado Final Incidente" {
		t.Fatalf("unexpected roles: %+v", rep.Schema.Roles)
	}
}

func TestCLI_SchemaJSON(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")

	out := mustRun(t, "schema", in, "--json")
	var v struct {
		Rows    int               `json:"rows"`
		Roles   map[string]string `json:"roles"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	want := map[string]string{
		"estado":      "Estado Final Incidente",
		"responsable": "Ingeniero Asignado",
		"servicio":    "Servicio",
		"proveedor":   "Proveedor a escalar",
		"tiempo":      "Edad Incidente",
		"rangoEdad":   "Rango edad",
	}
	for role, col := range want {
		if v.Roles[role] != col {
			t.Fatalf("role %s: got %q want %q", role, v.Roles[role], col)
		}
	}
	if len(v.Columns) != 8 || v.Columns[5].Name != "Edad Incidente" || v.Columns[5].Type != "number" {
		t.Fatalf("unexpected columns: %+v", v.Columns)
	}
}

func TestCLI_ConfigOverridesRole(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")

	mustRun(t, "config", "set", "columns.servicio", "Categoría")
	mustRun(t, "config", "set", "llm_model", "phi3")
	show := mustRun(t, "config", "show")
	if !strings.Contains(show, "llm_model: phi3") || !strings.Contains(show, "servicio: Categoría") {
		t.Fatalf("unexpected config show:\n%s", show)
	}
	if _, err := os.Stat(filepath.Join(home, ".incidentes", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := mustRun(t, "schema", in)
	if !strings.Contains(out, "  servicio     Categoría\n") {
		t.Fatalf("override not applied:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "llm_provider", "azure"); err == nil {
		t.Fatalf("expected invalid provider error")
	}
}

func TestCLI_ExportWorkbook(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")
	out := filepath.Join(home, "reporte.xlsx")

	mustRun(t, "export", in, "-o", out)
	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	sheets := strings.Join(f.GetSheetList(), ",")
	for _, want := range []string{"Resumen", "Datos", "Estado", "Responsables", "Servicios", "Tiempo", "Proveedores", "Categorias", "Hallazgos", "KPIs"} {
		if !strings.Contains(sheets, want) {
			t.Fatalf("missing sheet %s in %s", want, sheets)
		}
	}
	if _, err := runCmd(t, "export", in, "-o", filepath.Join(home, "reporte.csv")); err == nil {
		t.Fatalf("expected error for non-xlsx output")
	}
}

func TestCLI_NarrativeFromOllama(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")
	var gotModel atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel.Store(req.Model)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "El backlog requiere atención inmediata."},
			"done":    true,
		})
	}))
	defer srv.Close()
	t.Setenv("INCIDENTES_OLLAMA_HOST", srv.URL)
	t.Setenv("INCIDENTES_LLM_MODEL", "llama3.2:1b")

	out := mustRun(t, "analyze", in, "--narrative")
	if !strings.Contains(out, "[NARRATIVA (LLM)]\nEl backlog requiere atención inmediata.") {
		t.Fatalf("narrative missing:\n%s", out)
	}
	if m, _ := gotModel.Load().(string); m != "llama3.2:1b" {
		t.Fatalf("unexpected model %q", m)
	}
}

func TestCLI_NarrativeFallsBackWhenUnreachable(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "incidentes.csv")
	t.Setenv("INCIDENTES_OLLAMA_HOST", "http://127.0.0.1:1")

	out := mustRun(t, "analyze", in, "--narrative", "--llm-timeout-ms", "500")
	if strings.Contains(out, "[NARRATIVA (LLM)]") {
		t.Fatalf("unexpected narrative section")
	}
	if !strings.Contains(out, "[RESUMEN EJECUTIVO]") {
		t.Fatalf("rule narrative missing:\n%s", out)
	}
}

func TestCLI_AnalyzeErrors(t *testing.T) {
	home := isolate(t)
	if _, err := runCmd(t, "analyze", filepath.Join(home, "nope.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	empty := filepath.Join(home, "vacio.csv")
	if err := os.WriteFile(empty, []byte("Estado,Servicio\n,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, "analyze", empty); err == nil || !strings.Contains(err.Error(), "no hay datos") {
		t.Fatalf("expected no-data error, got %v", err)
	}
	in := writeFixture(t, home, "incidentes.csv")
	if _, err := runCmd(t, "analyze", in, "--delimiter", "ab"); err == nil {
		t.Fatalf("expected invalid delimiter error")
	}
}

func TestCLI_AnalyzeBatch(t *testing.T) {
	home := isolate(t)
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	for _, d := range []string{d1, d2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFixture(t, d, "incidentes.csv")
	}
	outDir := filepath.Join(home, "out")

	out := mustRun(t, "analyze-batch", filepath.Join(home, "d*", "incidentes.csv"), "--out-dir", outDir, "--xlsx")
	if !strings.Contains(out, "[1/2] Processing incidentes.csv...") || !strings.Contains(out, "[2/2]") {
		t.Fatalf("missing progress lines:\n%s", out)
	}
	for _, name := range []string{
		"incidentes.reporte.md", "incidentes.reporte.xlsx",
		"incidentes__2.reporte.md", "incidentes__2.reporte.xlsx",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	body, err := os.ReadFile(filepath.Join(outDir, "incidentes.reporte.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "[ESTADO] Estado Final Incidente") {
		t.Fatalf("unexpected report body:\n%s", body)
	}

	if _, err := runCmd(t, "analyze-batch", filepath.Join(home, "none*.csv")); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}
