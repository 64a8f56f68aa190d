package analysis

import (
	"fmt"
	"math"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/aggregate"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
)

// KPIPayload is the compact indicator set handed to the narrative generator.
// JSON names are part of the prompt, keep them stable.
type KPIPayload struct {
	TotalIncidentes    int                    `json:"totalIncidentes"`
	Abiertos           int                    `json:"abiertos"`
	Cerrados           int                    `json:"cerrados"`
	TiempoPromedioDias int                    `json:"tiempoPromedioDias"`
	TasaResolucion     int                    `json:"tasaResolucion"`
	TopResponsables    []aggregate.OpenClosed `json:"topResponsables"`
	TopProveedores     []aggregate.OpenClosed `json:"topProveedores"`
	TopServicios       []aggregate.Count      `json:"topServicios"`
}

func buildKPI(rows []dataset.Row, sc schema.Schema, topN int) KPIPayload {
	k := KPIPayload{
		TotalIncidentes: len(rows),
		TopResponsables: []aggregate.OpenClosed{},
		TopProveedores:  []aggregate.OpenClosed{},
		TopServicios:    []aggregate.Count{},
	}
	colEstado, hasEstado := sc.Column(schema.RoleEstado)
	if hasEstado {
		t := aggregate.StatusTotals(rows, colEstado)
		k.Abiertos, k.Cerrados = t.Abiertos, t.Cerrados
	}
	if col, ok := sc.Column(schema.RoleTiempo); ok {
		k.TiempoPromedioDias = int(roundHalfUp(aggregate.TimeStats(rows, col).Mean))
	}
	k.TasaResolucion = int(roundHalfUp(float64(k.Cerrados) / math.Max(1, float64(k.TotalIncidentes)) * 100))
	if hasEstado {
		if col, ok := sc.Column(schema.RoleResponsable); ok {
			k.TopResponsables = head(aggregate.ByDimension(rows, col, colEstado), topN)
		}
		if col, ok := sc.Column(schema.RoleProveedor); ok {
			k.TopProveedores = head(aggregate.ByDimension(rows, col, colEstado), topN)
		}
	}
	if col, ok := sc.Column(schema.RoleServicio); ok {
		k.TopServicios = aggregate.TopCounts(aggregate.FrequencyCount(rows, col), topN)
	}
	return k
}

func head(recs []aggregate.OpenClosed, n int) []aggregate.OpenClosed {
	if len(recs) > n {
		return recs[:n]
	}
	return recs
}

// roundHalfUp rounds .5 towards +Inf for percentages and day counts.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Light is a traffic-light state.
type Light string

const (
	Green  Light = "VERDE"
	Yellow Light = "AMARILLO"
	Red    Light = "ROJO"
)

// Indicator is one traffic-light row of the health check.
type Indicator struct {
	Name   string `json:"name"`
	Light  Light  `json:"light"`
	Detail string `json:"detail"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// Health grades the backlog on four indicators and a 0-100 score.
type Health struct {
	ResolutionRate float64     `json:"resolution_rate"`
	AvgTime        float64     `json:"avg_time"`
	Ratio          float64     `json:"ratio"`
	Vacios         int         `json:"vacios"`
	Indicators     []Indicator `json:"indicators"`
	Score          int         `json:"score"`
	Classification string      `json:"classification"`
	Recommendation string      `json:"recommendation"`
}

// assessHealth grades four-way totals and the average resolution time.
func assessHealth(t aggregate.FourWayTotals, avgTime float64) Health {
	h := Health{AvgTime: avgTime, Vacios: t.Vacios}
	if t.Total > 0 {
		h.ResolutionRate = math.Round(float64(t.Cerrados)/float64(t.Total)*1000) / 10
	}
	h.Ratio = math.Round(float64(t.Abiertos)/math.Max(1, float64(t.Cerrados))*100) / 100

	rate := Indicator{Name: "Tasa de Resolución", Max: 30}
	switch {
	case h.ResolutionRate >= 70:
		rate.Light, rate.Points, rate.Detail = Green, 30, fmt.Sprintf("Excelente: %.1f%%", h.ResolutionRate)
	case h.ResolutionRate >= 50:
		rate.Light, rate.Points, rate.Detail = Yellow, 20, fmt.Sprintf("Regular: %.1f%%", h.ResolutionRate)
	default:
		rate.Light, rate.Points, rate.Detail = Red, 10, fmt.Sprintf("Crítico: %.1f%%", h.ResolutionRate)
	}

	days := int(roundHalfUp(avgTime))
	tiempo := Indicator{Name: "Tiempo Promedio", Max: 25}
	switch {
	case avgTime <= 30:
		tiempo.Light, tiempo.Points, tiempo.Detail = Green, 25, fmt.Sprintf("Óptimo: %d días", days)
	case avgTime <= 60:
		tiempo.Light, tiempo.Points, tiempo.Detail = Yellow, 15, fmt.Sprintf("Aceptable: %d días", days)
	default:
		tiempo.Light, tiempo.Points, tiempo.Detail = Red, 5, fmt.Sprintf("Crítico: %d días", days)
	}

	ratio := Indicator{Name: "Ratio A/C", Max: 25}
	switch {
	case h.Ratio <= 1.0:
		ratio.Light, ratio.Points, ratio.Detail = Green, 25, fmt.Sprintf("Saludable: %.2f", h.Ratio)
	case h.Ratio <= 1.5:
		ratio.Light, ratio.Points, ratio.Detail = Yellow, 15, fmt.Sprintf("Atención: %.2f", h.Ratio)
	default:
		ratio.Light, ratio.Points, ratio.Detail = Red, 5, fmt.Sprintf("Crítico: %.2f", h.Ratio)
	}

	calidad := Indicator{Name: "Calidad de Datos", Max: 20}
	switch {
	case t.Vacios == 0:
		calidad.Light, calidad.Points, calidad.Detail = Green, 20, "100% completo"
	case t.Vacios <= 10:
		calidad.Light, calidad.Points, calidad.Detail = Yellow, 10, fmt.Sprintf("%d registros vacíos", t.Vacios)
	default:
		calidad.Light, calidad.Points, calidad.Detail = Red, 0, fmt.Sprintf("%d registros vacíos", t.Vacios)
	}

	h.Indicators = []Indicator{rate, tiempo, ratio, calidad}
	for _, in := range h.Indicators {
		h.Score += in.Points
	}
	switch {
	case h.Score >= 80:
		h.Classification, h.Recommendation = "EXCELENTE", "Backlog en estado óptimo. Mantener prácticas actuales."
	case h.Score >= 60:
		h.Classification, h.Recommendation = "BUENO", "Backlog controlado. Monitorear áreas de mejora."
	case h.Score >= 40:
		h.Classification, h.Recommendation = "REGULAR", "Requiere atención. Implementar plan de acción."
	default:
		h.Classification, h.Recommendation = "CRÍTICO", "Situación crítica. Intervención urgente necesaria."
	}
	return h
}
