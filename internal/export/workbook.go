// Package export writes the incident dashboard as an .xlsx workbook.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/aggregate"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/analysis"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/utils"
)

// Sheet names in workbook order.
const (
	SheetResumen      = "Resumen"
	SheetDatos        = "Datos"
	SheetEstado       = "Estado"
	SheetResponsables = "Responsables"
	SheetServicios    = "Servicios"
	SheetTiempo       = "Tiempo"
	SheetProveedores  = "Proveedores"
	SheetCategorias   = "Categorias"
	SheetHallazgos    = "Hallazgos"
	SheetKPIs         = "KPIs"
)

// Options tweaks the workbook content.
type Options struct {
	// Narrative is free text from the narrative generator; empty omits it.
	Narrative string
	// MaxDataRows caps the Datos sheet; 0 writes every row.
	MaxDataRows int
}

// Build lays out the workbook for ds and rep. Sections missing from rep get no
// sheet.
func Build(ds *dataset.Dataset, rep *analysis.Report, opt Options) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetResumen); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#0C1220"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("title style: %w", err)
	}
	b := &builder{f: f, head: headStyle, title: titleStyle}

	b.resumen(rep)
	b.datos(ds, opt.MaxDataRows)
	if rep.Estado != nil {
		b.estado(rep.Estado)
	}
	if rep.Responsables != nil {
		b.dimension(SheetResponsables, "Responsable", rep.Responsables)
	}
	if rep.Servicios != nil {
		b.servicios(rep.Servicios)
	}
	if rep.Tiempo != nil {
		b.tiempo(rep.Tiempo)
	}
	if rep.Proveedores != nil {
		b.dimension(SheetProveedores, "Proveedor", rep.Proveedores)
	}
	if rep.Categorias != nil {
		b.dimension(SheetCategorias, "Categoría", rep.Categorias)
	}
	b.hallazgos(rep.Insights, opt.Narrative)
	b.kpis(rep)

	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook builds the workbook and writes it to path through a temp file.
func WriteWorkbook(path string, ds *dataset.Dataset, rep *analysis.Report, opt Options) error {
	f, err := Build(ds, rep, opt)
	if err != nil {
		return err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// builder keeps the first error so layout code can stay linear.
type builder struct {
	f     *excelize.File
	head  int
	title int
	err   error

	sheet string
	row   int
}

func (b *builder) open(name string) {
	if b.err != nil {
		return
	}
	if name != SheetResumen {
		if _, err := b.f.NewSheet(name); err != nil {
			b.err = fmt.Errorf("new sheet %s: %w", name, err)
			return
		}
	}
	b.sheet, b.row = name, 1
}

func (b *builder) line(vals ...any) {
	if b.err != nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(1, b.row)
	if err := b.f.SetSheetRow(b.sheet, cell, &vals); err != nil {
		b.err = fmt.Errorf("%s row %d: %w", b.sheet, b.row, err)
		return
	}
	b.row++
}

func (b *builder) styled(style int, vals ...any) {
	r := b.row
	b.line(vals...)
	if b.err != nil {
		return
	}
	if err := b.f.SetRowStyle(b.sheet, r, r, style); err != nil {
		b.err = fmt.Errorf("%s style: %w", b.sheet, err)
	}
}

func (b *builder) header(vals ...any) { b.styled(b.head, vals...) }
func (b *builder) titled(s string)    { b.styled(b.title, s) }
func (b *builder) blank()             { b.row++ }

func (b *builder) widths(w ...float64) {
	for i, width := range w {
		if b.err != nil {
			return
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := b.f.SetColWidth(b.sheet, col, col, width); err != nil {
			b.err = fmt.Errorf("%s width: %w", b.sheet, err)
		}
	}
}

func (b *builder) resumen(rep *analysis.Report) {
	b.open(SheetResumen)
	b.titled("Dashboard de Incidentes TI Nivel 2")
	b.blank()
	b.line("Archivo", rep.Name)
	b.line("Reporte", rep.ID)
	b.line("Generado", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))
	b.line("Total incidentes", rep.Rows)
	if e := rep.Estado; e != nil {
		t := e.FourWay
		b.blank()
		b.header("Estado", "Casos", "% del total")
		b.line("Abiertos", t.Abiertos, pct(t.Abiertos, t.Total))
		b.line("Cerrados", t.Cerrados, pct(t.Cerrados, t.Total))
		b.line("Devueltos", t.Devuelto, pct(t.Devuelto, t.Total))
		b.line("Vacíos", t.Vacios, pct(t.Vacios, t.Total))
		b.line("Total", t.Total)
	}
	b.blank()
	b.header("Columna", "Tipo", "Rol")
	roles := map[string]string{}
	for _, role := range schema.Roles {
		col, ok := rep.Schema.Column(role)
		if !ok {
			continue
		}
		if prev := roles[col]; prev != "" {
			roles[col] = prev + ", " + string(role)
		} else {
			roles[col] = string(role)
		}
	}
	for _, col := range rep.Columns() {
		b.line(col, string(rep.Schema.Types[col]), roles[col])
	}
	b.widths(30, 40, 20)
}

func (b *builder) datos(ds *dataset.Dataset, max int) {
	b.open(SheetDatos)
	head := make([]any, len(ds.Headers))
	for i, h := range ds.Headers {
		head[i] = h
	}
	b.header(head...)
	for i, r := range ds.Rows {
		if max > 0 && i >= max {
			break
		}
		vals := make([]any, len(ds.Headers))
		for j, h := range ds.Headers {
			vals[j] = textnorm.CleanDisplayText(r[h])
		}
		b.line(vals...)
	}
	if b.err == nil {
		if err := b.f.SetPanes(SheetDatos, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			b.err = fmt.Errorf("freeze header: %w", err)
		}
	}
	w := make([]float64, len(ds.Headers))
	for i := range w {
		w[i] = 18
	}
	b.widths(w...)
}

func (b *builder) estado(e *analysis.EstadoSection) {
	b.open(SheetEstado)
	b.titled("Estado: " + e.Column)
	b.header("Clasificación", "Casos", "% del total")
	t := e.FourWay
	b.line("Abiertos", t.Abiertos, pct(t.Abiertos, t.Total))
	b.line("Cerrados", t.Cerrados, pct(t.Cerrados, t.Total))
	b.line("Devueltos", t.Devuelto, pct(t.Devuelto, t.Total))
	b.line("Vacíos", t.Vacios, pct(t.Vacios, t.Total))
	b.line("Total", t.Total, pct(t.Total, t.Total))
	b.blank()
	b.header("Abiertos vs cerrados", "Casos", "%")
	tw := e.TwoWay
	b.line("Abiertos", tw.Abiertos, pct(tw.Abiertos, tw.Total))
	b.line("Cerrados", tw.Cerrados, pct(tw.Cerrados, tw.Total))
	b.line("Total", tw.Total)
	b.widths(28, 12, 14)
}

func (b *builder) dimension(sheet, label string, d *analysis.DimensionSection) {
	b.open(sheet)
	b.titled(label + ": " + d.Column)
	b.crossTab(label, d.Rows)
	b.widths(40, 12, 14, 12, 14, 12)
}

func (b *builder) crossTab(label string, recs []aggregate.OpenClosed) {
	b.header(label, "Abiertos", "% Abiertos", "Cerrados", "% Cerrados", "Total")
	for _, r := range recs {
		b.line(textnorm.CleanDisplayText(r.Label), r.Abiertos, pct(r.Abiertos, r.Total), r.Cerrados, pct(r.Cerrados, r.Total), r.Total)
	}
}

func (b *builder) servicios(s *analysis.ServiciosSection) {
	b.open(SheetServicios)
	b.titled("Servicios con casos abiertos: " + s.Column)
	b.header("Servicio", "Casos abiertos", "% de abiertos")
	for _, c := range aggregate.TopCounts(s.Open, len(s.Open)) {
		name := textnorm.CleanDisplayText(c.Label)
		if name == "" {
			name = "(vacío)"
		}
		b.line(name, c.Value, pct(c.Value, s.Total))
	}
	b.widths(40, 16, 16)
}

func (b *builder) tiempo(ts *analysis.TiempoSection) {
	b.open(SheetTiempo)
	if s := ts.Summary; s != nil {
		b.titled("Tiempo: " + ts.TimeColumn)
		b.header("Medida", "Valor")
		b.line("Registros con tiempo", s.Count)
		b.line("Promedio", s.Mean)
		b.line("Mediana", s.Median)
		b.line("Percentil 90", s.P90)
		b.line("Mínimo", s.Min)
		b.line("Máximo", s.Max)
		b.line("Desviación estándar", s.StdDev)
		b.blank()
	}
	if len(ts.Rangos) > 0 {
		b.titled("Rangos de edad: " + ts.RangeColumn)
		b.crossTab("Rango", ts.Rangos)
		b.blank()
	}
	if len(ts.ByRange) > 0 || ts.Global != nil {
		b.header("Rango", "Prom. abiertos", "% abiertos", "Prom. cerrados", "% cerrados", "Total")
		rows := ts.ByRange
		if ts.Global != nil {
			rows = append(append([]aggregate.TimeBucket(nil), rows...), *ts.Global)
		}
		for _, tb := range rows {
			tot := tb.CountOpen + tb.CountClosed
			b.line(tb.Label, tb.AvgOpen, pct(tb.CountOpen, tot), tb.AvgClosed, pct(tb.CountClosed, tot), tot)
		}
	}
	b.widths(40, 16, 12, 16, 12, 10)
}

func (b *builder) hallazgos(in analysis.Insights, narrative string) {
	b.open(SheetHallazgos)
	b.titled("Resumen Ejecutivo")
	for _, l := range in.Resumen {
		b.line(textnorm.CleanDisplayText(l))
	}
	b.blank()
	b.titled("Riesgos identificados")
	for _, l := range in.Riesgos {
		b.line("• " + textnorm.CleanDisplayText(l))
	}
	b.blank()
	b.titled("Acciones recomendadas (próximos 30 días)")
	for _, l := range in.Acciones {
		b.line("• " + textnorm.CleanDisplayText(l))
	}
	b.blank()
	b.header("Responsable", "Abiertos", "Cerrados", "Total")
	for _, r := range in.TopResponsables {
		b.line(textnorm.CleanDisplayText(r.Label), r.Abiertos, r.Cerrados, r.Total)
	}
	b.blank()
	b.header("Proveedor", "Abiertos", "Cerrados", "Total")
	for _, r := range in.TopProveedores {
		b.line(textnorm.CleanDisplayText(r.Label), r.Abiertos, r.Cerrados, r.Total)
	}
	b.blank()
	b.header("Servicio", "Casos", "% del top")
	top := 0
	for _, c := range in.TopServicios {
		top += c.Value
	}
	for _, c := range in.TopServicios {
		b.line(textnorm.CleanDisplayText(c.Label), c.Value, pct(c.Value, top))
	}
	if narrative != "" {
		b.blank()
		b.titled("Narrativa (LLM)")
		b.line(textnorm.CleanDisplayText(narrative))
	}
	b.widths(80, 15, 15, 15)
}

func (b *builder) kpis(rep *analysis.Report) {
	b.open(SheetKPIs)
	k := rep.KPI
	b.titled("Indicadores clave")
	b.header("KPI", "Valor")
	b.line("Total incidentes", k.TotalIncidentes)
	b.line("Abiertos", k.Abiertos)
	b.line("Cerrados", k.Cerrados)
	b.line("Tiempo promedio (días)", k.TiempoPromedioDias)
	b.line("Tasa de resolución (%)", k.TasaResolucion)
	if h := rep.Health; h != nil {
		b.blank()
		b.titled("Semáforo de salud del backlog")
		b.header("Indicador", "Estado", "Descripción", "Puntos", "Máximo")
		for _, in := range h.Indicators {
			b.line(in.Name, string(in.Light), in.Detail, in.Points, in.Max)
		}
		b.blank()
		b.line("Score total", fmt.Sprintf("%d / 100", h.Score))
		b.line("Clasificación", h.Classification)
		b.line("Recomendación", h.Recommendation)
	}
	b.widths(35, 20, 30, 10, 10)
}

// pct formats a share as "NN%" using the dashboard rounding rule.
func pct(part, total int) string {
	return fmt.Sprintf("%d%%", aggregate.Percent(part, total))
}
