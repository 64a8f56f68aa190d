package analysis

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/aggregate"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
)

var incidentHeaders = []string{
	"Incidente", "Estado Final Incidente", "Ingeniero Asignado", "Servicio",
	"Proveedor a escalar", "Edad Incidente", "Rango edad", "Categoría",
}

var incidentRecords = [][]string{
	{"INC1", "Abierto", "Ana Pérez", "Red", "ACME", "40", "31-60 días", "Hardware"},
	{"INC2", "Cerrado", "Ana Pérez", "Correo", "ACME", "10", "Menor a 30 días", "Software"},
	{"INC3", "Abierto", "Luis Gómez", "Red", "Beta SA", "100", "Más de 90 días", "Hardware"},
	{"INC4", "Devuelto", "Luis Gómez", "Red", "Beta SA", "20", "Menor a 30 días", "Software"},
	{"INC5", "", "Eva Ruiz", "Correo", "", "5", "Menor a 30 días", ""},
	{"INC6", "Resuelto", "Eva Ruiz", "Red", "ACME", "15", "Menor a 30 días", "Hardware"},
}

func fixture() *dataset.Dataset {
	ds := &dataset.Dataset{Name: "incidentes.csv", Headers: incidentHeaders}
	for _, rec := range incidentRecords {
		row := dataset.Row{}
		for i, h := range incidentHeaders {
			row[h] = rec[i]
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func buildFixture(t *testing.T) *Report {
	t.Helper()
	ds := fixture()
	opt := DefaultOptions()
	opt.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return Build(ds, schema.Infer(ds.Headers, ds.Rows), opt)
}

func TestBuildSections(t *testing.T) {
	rep := buildFixture(t)
	if rep.ID == "" || rep.Rows != 6 {
		t.Fatalf("unexpected header: id=%q rows=%d", rep.ID, rep.Rows)
	}
	if rep.Estado == nil {
		t.Fatalf("expected estado section")
	}
	wantFour := aggregate.FourWayTotals{Abiertos: 2, Cerrados: 2, Devuelto: 1, Vacios: 1, Total: 6}
	if rep.Estado.FourWay != wantFour {
		t.Fatalf("four-way: got %+v want %+v", rep.Estado.FourWay, wantFour)
	}
	if rep.Estado.TwoWay != (aggregate.Totals{Abiertos: 2, Cerrados: 2, Total: 4}) {
		t.Fatalf("two-way: got %+v", rep.Estado.TwoWay)
	}

	if rep.Responsables == nil || rep.Responsables.Column != "Ingeniero Asignado" {
		t.Fatalf("responsables section: %+v", rep.Responsables)
	}
	if got := rep.Responsables.Rows[0]; got != (aggregate.OpenClosed{Label: "Ana Pérez", Abiertos: 1, Cerrados: 1, Total: 2}) {
		t.Fatalf("top responsable: %+v", got)
	}
	if rep.Proveedores == nil || rep.Proveedores.Rows[0].Label != "ACME" || rep.Proveedores.Rows[0].Total != 3 {
		t.Fatalf("proveedores: %+v", rep.Proveedores)
	}
	if rep.Categorias == nil || rep.Categorias.Column != "Categoría" {
		t.Fatalf("categorias: %+v", rep.Categorias)
	}
	if got := rep.Categorias.Rows[0]; got.Label != "Hardware" || got.Abiertos != 2 || got.Cerrados != 1 {
		t.Fatalf("categoria hardware: %+v", got)
	}
	if rep.Servicios == nil || !reflect.DeepEqual(rep.Servicios.Open, []aggregate.Count{{Label: "Red", Value: 2}}) {
		t.Fatalf("servicios abiertos: %+v", rep.Servicios)
	}
}

func TestBuildTiempo(t *testing.T) {
	rep := buildFixture(t)
	ts := rep.Tiempo
	if ts == nil || ts.TimeColumn != "Edad Incidente" || ts.RangeColumn != "Rango edad" {
		t.Fatalf("tiempo section: %+v", ts)
	}
	var labels []string
	for _, r := range ts.Rangos {
		labels = append(labels, r.Label)
	}
	want := []string{"Menor a 30 días", "31-60 días", "Más de 90 días"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("range order: got %v want %v", labels, want)
	}
	if len(ts.ByRange) != 3 || ts.ByRange[0].AvgClosed != 12.5 || ts.ByRange[0].CountClosed != 2 {
		t.Fatalf("by range: %+v", ts.ByRange)
	}
	if ts.Global == nil || ts.Global.AvgOpen != 70 || ts.Global.AvgClosed != 12.5 {
		t.Fatalf("global: %+v", ts.Global)
	}
	if ts.Summary == nil || ts.Summary.Count != 6 || ts.Summary.Mean != 31.67 {
		t.Fatalf("summary: %+v", ts.Summary)
	}
}

func TestKPIAndHealth(t *testing.T) {
	rep := buildFixture(t)
	k := rep.KPI
	if k.TotalIncidentes != 6 || k.Abiertos != 2 || k.Cerrados != 2 || k.TiempoPromedioDias != 32 || k.TasaResolucion != 33 {
		t.Fatalf("kpi: %+v", k)
	}
	if len(k.TopServicios) != 2 || k.TopServicios[0].Label != "Red" || k.TopServicios[0].Value != 4 {
		t.Fatalf("top servicios: %+v", k.TopServicios)
	}
	b, err := json.Marshal(k)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"tasaResolucion":33`) {
		t.Fatalf("payload json: %s", b)
	}

	h := rep.Health
	if h == nil {
		t.Fatalf("expected health")
	}
	lights := []Light{h.Indicators[0].Light, h.Indicators[1].Light, h.Indicators[2].Light, h.Indicators[3].Light}
	if !reflect.DeepEqual(lights, []Light{Red, Yellow, Green, Yellow}) {
		t.Fatalf("lights: %v", lights)
	}
	if h.Score != 60 || h.Classification != "BUENO" {
		t.Fatalf("score: %d %s", h.Score, h.Classification)
	}
}

func TestAssessHealthBands(t *testing.T) {
	h := assessHealth(aggregate.FourWayTotals{Abiertos: 1, Cerrados: 9, Total: 10}, 12)
	if h.Score != 100 || h.Classification != "EXCELENTE" {
		t.Fatalf("best case: %+v", h)
	}
	h = assessHealth(aggregate.FourWayTotals{Abiertos: 8, Cerrados: 1, Vacios: 11, Total: 20}, 90)
	if h.Score != 20 || h.Classification != "CRÍTICO" {
		t.Fatalf("worst case: %+v", h)
	}
	h = assessHealth(aggregate.FourWayTotals{}, 0)
	if h.ResolutionRate != 0 || h.Ratio != 0 {
		t.Fatalf("empty totals: %+v", h)
	}
}

func TestInsights(t *testing.T) {
	in := buildFixture(t).Insights
	want := []string{
		"Se analizaron 6 incidentes.",
		"La tasa de resolución es 33%.",
		"El tiempo promedio del ciclo es 32 días.",
		"El backlog se mantiene bajo control.",
		"El ciclo operativo muestra lentitud (promedio > 30 días).",
	}
	if !reflect.DeepEqual(in.Resumen, want) {
		t.Fatalf("resumen:\n%v\nwant\n%v", in.Resumen, want)
	}
	if len(in.Riesgos) != 3 {
		t.Fatalf("riesgos: %v", in.Riesgos)
	}
	if last := in.Acciones[len(in.Acciones)-1]; !strings.Contains(last, "SLA internos") {
		t.Fatalf("slow cycle action missing: %v", in.Acciones)
	}
}

func TestMarkdown(t *testing.T) {
	md := buildFixture(t).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: incidentes.csv", "Rows: 6",
		"[SCHEMA]", "- Estado Final Incidente: text → estado",
		"[ESTADO] Estado Final Incidente", "- Abiertos: 2 (33%)", "- Vacíos: 1 (17%)",
		"[TIEMPO]", "[RESPONSABLES] Ingeniero Asignado", "Ana Pérez: abiertos 1 (50%), cerrados 1 (50%), total 2",
		"[SERVICIOS ABIERTOS] Servicio", "- Red: 2 (100%)",
		"[SALUD DEL BACKLOG]", "Score: 60/100 BUENO",
		"[RESUMEN EJECUTIVO]", "[RIESGOS]", "[ACCIONES RECOMENDADAS]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuildWithoutStatusColumn(t *testing.T) {
	// a single numeric column resolves no status role
	ds := &dataset.Dataset{Name: "montos.csv", Headers: []string{"Monto"}, Rows: []dataset.Row{{"Monto": "1"}, {"Monto": "2"}}}
	rep := Build(ds, schema.Infer(ds.Headers, ds.Rows), DefaultOptions())
	if rep.Estado != nil || rep.Health != nil || rep.Responsables != nil {
		t.Fatalf("status-dependent sections must be skipped: %+v", rep)
	}
	if len(rep.Warnings) == 0 {
		t.Fatalf("expected a warning about the missing status column")
	}
	if md := rep.Markdown(); strings.Contains(md, "[ESTADO]") {
		t.Fatalf("unexpected estado section:\n%s", md)
	}
}

func TestBuildEmptyDataset(t *testing.T) {
	ds := &dataset.Dataset{Name: "vacio.csv", Headers: []string{"Estado"}}
	rep := Build(ds, schema.Infer(ds.Headers, nil), DefaultOptions())
	if rep.Rows != 0 || rep.KPI.TasaResolucion != 0 {
		t.Fatalf("empty dataset: %+v", rep)
	}
	if _, err := json.Marshal(rep); err != nil {
		t.Fatalf("marshal empty report: %v", err)
	}
}
