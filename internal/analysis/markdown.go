package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/aggregate"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
)

// Markdown renders the report as a compact text document with bracketed
// section headers.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Schema.Types)))
	b.WriteString(fmt.Sprintf("Report: %s (%s)\n\n", r.ID, r.GeneratedAt.Format("2006-01-02 15:04 MST")))

	r.writeSchema(&b)

	if e := r.Estado; e != nil {
		t := e.FourWay
		b.WriteString(fmt.Sprintf("\n[ESTADO] %s\n", e.Column))
		b.WriteString(fmt.Sprintf("- Abiertos: %d (%d%%)\n", t.Abiertos, aggregate.Percent(t.Abiertos, t.Total)))
		b.WriteString(fmt.Sprintf("- Cerrados: %d (%d%%)\n", t.Cerrados, aggregate.Percent(t.Cerrados, t.Total)))
		b.WriteString(fmt.Sprintf("- Devueltos: %d (%d%%)\n", t.Devuelto, aggregate.Percent(t.Devuelto, t.Total)))
		b.WriteString(fmt.Sprintf("- Vacíos: %d (%d%%)\n", t.Vacios, aggregate.Percent(t.Vacios, t.Total)))
		b.WriteString(fmt.Sprintf("- Total: %d\n", t.Total))
	}

	if ts := r.Tiempo; ts != nil {
		b.WriteString("\n[TIEMPO]\n")
		if s := ts.Summary; s != nil {
			b.WriteString(fmt.Sprintf("- %s: n=%d, promedio %.2f, mediana %.2f, p90 %.2f, min %.4g, max %.4g\n",
				safeVal(ts.TimeColumn), s.Count, s.Mean, s.Median, s.P90, s.Min, s.Max))
		}
		if g := ts.Global; g != nil {
			b.WriteString(fmt.Sprintf("- Global: abiertos %.2f días (n=%d), cerrados %.2f días (n=%d)\n",
				g.AvgOpen, g.CountOpen, g.AvgClosed, g.CountClosed))
		}
		if len(ts.Rangos) > 0 {
			b.WriteString(fmt.Sprintf("- Rangos (%s):\n", safeVal(ts.RangeColumn)))
			writeCrossTab(&b, ts.Rangos, "  • ")
		}
		for _, tb := range ts.ByRange {
			b.WriteString(fmt.Sprintf("  • %s: abiertos %.2f (n=%d), cerrados %.2f (n=%d)\n",
				safeVal(tb.Label), tb.AvgOpen, tb.CountOpen, tb.AvgClosed, tb.CountClosed))
		}
	}

	writeDimension(&b, "RESPONSABLES", r.Responsables)
	if s := r.Servicios; s != nil {
		b.WriteString(fmt.Sprintf("\n[SERVICIOS ABIERTOS] %s\n", s.Column))
		for _, c := range aggregate.TopCounts(s.Open, 10) {
			b.WriteString(fmt.Sprintf("- %s: %d (%d%%)\n", safeVal(label(c.Label)), c.Value, aggregate.Percent(c.Value, s.Total)))
		}
		if len(s.Open) > 10 {
			b.WriteString(fmt.Sprintf("- … %d servicios más\n", len(s.Open)-10))
		}
	}
	writeDimension(&b, "PROVEEDORES", r.Proveedores)
	writeDimension(&b, "CATEGORIAS", r.Categorias)

	if h := r.Health; h != nil {
		b.WriteString("\n[SALUD DEL BACKLOG]\n")
		for _, in := range h.Indicators {
			b.WriteString(fmt.Sprintf("- %s: %s (%s) %d/%d\n", in.Name, in.Light, in.Detail, in.Points, in.Max))
		}
		b.WriteString(fmt.Sprintf("Score: %d/100 %s. %s\n", h.Score, h.Classification, h.Recommendation))
	}

	b.WriteString("\n[RESUMEN EJECUTIVO]\n")
	for _, l := range r.Insights.Resumen {
		b.WriteString(l + "\n")
	}
	if len(r.Insights.Riesgos) > 0 {
		b.WriteString("\n[RIESGOS]\n")
		for _, l := range r.Insights.Riesgos {
			b.WriteString("- " + l + "\n")
		}
	}
	b.WriteString("\n[ACCIONES RECOMENDADAS]\n")
	for _, l := range r.Insights.Acciones {
		b.WriteString("- " + l + "\n")
	}

	if r.Narrative != "" {
		b.WriteString("\n[NARRATIVA (LLM)]\n")
		b.WriteString(strings.TrimSpace(r.Narrative) + "\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func (r *Report) writeSchema(b *strings.Builder) {
	b.WriteString("[SCHEMA]\n")
	byCol := map[string][]string{}
	for _, role := range schema.Roles {
		if col, ok := r.Schema.Column(role); ok {
			byCol[col] = append(byCol[col], string(role))
		}
	}
	for _, col := range r.Columns() {
		b.WriteString(fmt.Sprintf("- %s: %s", safeName(col), r.Schema.Types[col]))
		if roles := byCol[col]; len(roles) > 0 {
			b.WriteString(" → " + strings.Join(roles, ", "))
		}
		b.WriteString("\n")
	}
}

// Columns returns the schema's columns in a stable order.
func (r *Report) Columns() []string {
	if len(r.Headers) > 0 {
		return r.Headers
	}
	cols := make([]string, 0, len(r.Schema.Types))
	for c := range r.Schema.Types {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func writeDimension(b *strings.Builder, title string, d *DimensionSection) {
	if d == nil {
		return
	}
	b.WriteString(fmt.Sprintf("\n[%s] %s\n", title, d.Column))
	rows := d.Rows
	if len(rows) > 15 {
		rows = rows[:15]
	}
	writeCrossTab(b, rows, "- ")
	if len(d.Rows) > 15 {
		b.WriteString(fmt.Sprintf("- … %d más\n", len(d.Rows)-15))
	}
}

func writeCrossTab(b *strings.Builder, recs []aggregate.OpenClosed, prefix string) {
	for _, rec := range recs {
		b.WriteString(fmt.Sprintf("%s%s: abiertos %d (%d%%), cerrados %d (%d%%), total %d\n",
			prefix, safeVal(rec.Label),
			rec.Abiertos, aggregate.Percent(rec.Abiertos, rec.Total),
			rec.Cerrados, aggregate.Percent(rec.Cerrados, rec.Total),
			rec.Total))
	}
}

func label(s string) string {
	if s = textnorm.CleanDisplayText(s); s == "" {
		return "(vacío)"
	}
	return s
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(sin nombre)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
