package analysis

import (
	"fmt"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/aggregate"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
)

// SlowCycleDays is the average resolution time above which the cycle is flagged.
const SlowCycleDays = 30

// Insights is the rule-based executive narrative. It is always available, with
// or without a text-generation backend.
type Insights struct {
	Resumen         []string               `json:"resumen"`
	Riesgos         []string               `json:"riesgos"`
	Acciones        []string               `json:"acciones"`
	TopResponsables []aggregate.OpenClosed `json:"top_responsables"`
	TopProveedores  []aggregate.OpenClosed `json:"top_proveedores"`
	TopServicios    []aggregate.Count      `json:"top_servicios"`
}

func buildInsights(rows []dataset.Row, sc schema.Schema, topN int) Insights {
	total := len(rows)
	var oc aggregate.Totals
	colEstado, hasEstado := sc.Column(schema.RoleEstado)
	if hasEstado {
		oc = aggregate.StatusTotals(rows, colEstado)
	}
	avg := 0.0
	if col, ok := sc.Column(schema.RoleTiempo); ok {
		avg = aggregate.TimeStats(rows, col).Mean
	}

	in := Insights{
		TopResponsables: []aggregate.OpenClosed{},
		TopProveedores:  []aggregate.OpenClosed{},
		TopServicios:    []aggregate.Count{},
	}
	if hasEstado {
		if col, ok := sc.Column(schema.RoleResponsable); ok {
			in.TopResponsables = aggregate.Top(aggregate.ByDimension(rows, col, colEstado), topN)
		}
		if col, ok := sc.Column(schema.RoleProveedor); ok {
			in.TopProveedores = aggregate.Top(aggregate.ByDimension(rows, col, colEstado), topN)
		}
	}
	if col, ok := sc.Column(schema.RoleServicio); ok {
		in.TopServicios = aggregate.TopCounts(aggregate.FrequencyCount(rows, col), topN)
	}

	tasa := 0.0
	if total > 0 {
		tasa = float64(oc.Cerrados) / float64(total) * 100
	}
	slow := avg > SlowCycleDays
	backlog := oc.Abiertos > oc.Cerrados

	in.Resumen = []string{
		fmt.Sprintf("Se analizaron %d incidentes.", total),
		fmt.Sprintf("La tasa de resolución es %d%%.", int(roundHalfUp(tasa))),
		fmt.Sprintf("El tiempo promedio del ciclo es %d días.", int(roundHalfUp(avg))),
	}
	if backlog {
		in.Resumen = append(in.Resumen, "El backlog actual requiere atención (abiertos > cerrados).")
	} else {
		in.Resumen = append(in.Resumen, "El backlog se mantiene bajo control.")
	}
	if slow {
		in.Resumen = append(in.Resumen, "El ciclo operativo muestra lentitud (promedio > 30 días).")
	} else {
		in.Resumen = append(in.Resumen, "El ciclo operativo se mantiene dentro de parámetros aceptables.")
	}

	in.Riesgos = []string{}
	if backlog {
		in.Riesgos = append(in.Riesgos, "Incremento de casos abiertos frente a los cerrados.")
	}
	if slow {
		in.Riesgos = append(in.Riesgos, "Tiempo de ciclo elevado: riesgo de incumplimiento de ANS.")
	}
	if len(in.TopResponsables) > 0 && in.TopResponsables[0].Abiertos > 0 {
		in.Riesgos = append(in.Riesgos, "Concentración de backlog en ciertos responsables.")
	}
	if len(in.TopProveedores) > 0 && in.TopProveedores[0].Abiertos > 0 {
		in.Riesgos = append(in.Riesgos, "Dependencia de proveedores con cola de cierre alta.")
	}

	in.Acciones = []string{
		fmt.Sprintf("Priorizar cierre de los Top-%d responsables con más abiertos.", topN),
		fmt.Sprintf("Escalar con los Top-%d proveedores críticos.", topN),
		fmt.Sprintf("Revisar causas en los servicios con mayor volumen (Top-%d) y definir planes de mitigación.", topN),
	}
	if slow {
		in.Acciones = append(in.Acciones, "Implementar SLA internos para reducir el tiempo promedio y reforzar monitoreo diario.")
	} else {
		in.Acciones = append(in.Acciones, "Mantener el ritmo de cierre y monitoreo semanal.")
	}
	return in
}
