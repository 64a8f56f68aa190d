// Package analysis assembles the incident dashboard: it runs the aggregation
// engine over one dataset and its schema and renders the result.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/aggregate"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/status"
)

// Options controls report assembly.
type Options struct {
	// TopN bounds the top lists of the KPI payload and the insights. 0 means 5.
	TopN int
	// Now stamps the report; nil uses time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard report settings.
func DefaultOptions() Options {
	return Options{TopN: 5}
}

// Report is the full dashboard for one dataset. Sections whose roles could not
// be resolved are nil.
type Report struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	GeneratedAt time.Time     `json:"generated_at"`
	Rows        int           `json:"rows"`
	Headers     []string      `json:"headers"`
	Schema      schema.Schema `json:"schema"`

	Estado       *EstadoSection    `json:"estado,omitempty"`
	Tiempo       *TiempoSection    `json:"tiempo,omitempty"`
	Responsables *DimensionSection `json:"responsables,omitempty"`
	Servicios    *ServiciosSection `json:"servicios,omitempty"`
	Proveedores  *DimensionSection `json:"proveedores,omitempty"`
	Categorias   *DimensionSection `json:"categorias,omitempty"`

	KPI      KPIPayload `json:"kpi"`
	Health   *Health    `json:"health,omitempty"`
	Insights Insights   `json:"insights"`
	Warnings []string   `json:"warnings,omitempty"`

	// Narrative is set by the caller when an LLM summary was produced.
	Narrative string `json:"narrative,omitempty"`
}

// EstadoSection holds both status splits over the status column.
type EstadoSection struct {
	Column  string                  `json:"column"`
	FourWay aggregate.FourWayTotals `json:"four_way"`
	TwoWay  aggregate.Totals        `json:"two_way"`
}

// TiempoSection groups the age-range and duration figures. Fields are nil when
// the roles they need are missing.
type TiempoSection struct {
	RangeColumn string                 `json:"range_column,omitempty"`
	TimeColumn  string                 `json:"time_column,omitempty"`
	Rangos      []aggregate.OpenClosed `json:"rangos,omitempty"`
	ByRange     []aggregate.TimeBucket `json:"by_range,omitempty"`
	Global      *aggregate.TimeBucket  `json:"global,omitempty"`
	Summary     *aggregate.TimeSummary `json:"summary,omitempty"`
}

// DimensionSection is an open/closed cross-tab over one column.
type DimensionSection struct {
	Column string                 `json:"column"`
	Rows   []aggregate.OpenClosed `json:"rows"`
}

// ServiciosSection counts services among open incidents.
type ServiciosSection struct {
	Column string            `json:"column"`
	Open   []aggregate.Count `json:"open"`
	Total  int               `json:"total"`
}

// Build computes every section of the dashboard from ds and sc. sc must have
// been inferred from ds.
func Build(ds *dataset.Dataset, sc schema.Schema, opt Options) *Report {
	if opt.TopN <= 0 {
		opt.TopN = 5
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	rows := ds.Rows
	rep := &Report{
		ID:          uuid.NewString(),
		Name:        ds.Name,
		GeneratedAt: now().UTC(),
		Rows:        len(rows),
		Headers:     ds.Headers,
		Schema:      sc,
	}

	colEstado, hasEstado := sc.Column(schema.RoleEstado)
	colTiempo, hasTiempo := sc.Column(schema.RoleTiempo)
	colRango, hasRango := sc.Column(schema.RoleRangoEdad)

	if hasEstado {
		rep.Estado = &EstadoSection{
			Column:  colEstado,
			FourWay: aggregate.StatusTotalsFourWay(rows, colEstado),
			TwoWay:  aggregate.StatusTotals(rows, colEstado),
		}
	} else {
		rep.Warnings = append(rep.Warnings, "no se identificó la columna de estado; se omiten los cortes por estado")
	}

	if hasTiempo || (hasRango && hasEstado) {
		ts := &TiempoSection{}
		if hasRango && hasEstado {
			ts.RangeColumn = colRango
			ts.Rangos = byRangeWeight(aggregate.ByDimension(rows, colRango, colEstado))
		}
		if hasTiempo {
			ts.TimeColumn = colTiempo
			sum := aggregate.TimeStats(rows, colTiempo)
			ts.Summary = &sum
			if hasEstado {
				g := aggregate.AvgTimeByStateGlobal(rows, colTiempo, colEstado)
				ts.Global = &g
				if hasRango {
					ts.ByRange = aggregate.AvgTimeByRangeAndState(rows, colRango, colTiempo, colEstado)
				}
			}
		}
		rep.Tiempo = ts
	}

	if hasEstado {
		if col, ok := sc.Column(schema.RoleResponsable); ok {
			rep.Responsables = &DimensionSection{Column: col, Rows: aggregate.ByDimension(rows, col, colEstado)}
		}
		if col, ok := sc.Column(schema.RoleProveedor); ok {
			rep.Proveedores = &DimensionSection{Column: col, Rows: aggregate.ByDimension(rows, col, colEstado)}
		}
		if col, ok := aggregate.MatchHeader(ds.Headers, "categoria"); ok {
			rep.Categorias = &DimensionSection{Column: col, Rows: aggregate.ByDimension(rows, col, colEstado)}
		}
		if col, ok := sc.Column(schema.RoleServicio); ok {
			open := aggregate.Filter(rows, colEstado, status.Open)
			rep.Servicios = &ServiciosSection{Column: col, Open: aggregate.FrequencyCount(open, col), Total: len(open)}
		}
	}

	rep.KPI = buildKPI(rows, sc, opt.TopN)
	if rep.Estado != nil {
		avg := 0.0
		if rep.Tiempo != nil && rep.Tiempo.Summary != nil {
			avg = rep.Tiempo.Summary.Mean
		}
		h := assessHealth(rep.Estado.FourWay, avg)
		rep.Health = &h
	}
	rep.Insights = buildInsights(rows, sc, opt.TopN)
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s no tiene filas de datos", ds.Name))
	}
	return rep
}

// byRangeWeight orders range buckets by RangeWeight, keeping the incoming order
// for equal weights.
func byRangeWeight(recs []aggregate.OpenClosed) []aggregate.OpenClosed {
	sort.SliceStable(recs, func(i, j int) bool {
		return aggregate.RangeWeight(recs[i].Label) < aggregate.RangeWeight(recs[j].Label)
	})
	return recs
}
