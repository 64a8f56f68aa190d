package schema

import (
	"fmt"
	"testing"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(headers []string, records ...[]string) []dataset.Row {
	out := make([]dataset.Row, 0, len(records))
	for _, rec := range records {
		r := dataset.Row{}
		for i, h := range headers {
			if i < len(rec) {
				r[h] = rec[i]
			}
		}
		out = append(out, r)
	}
	return out
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, TypeText, DetectType(nil))
	assert.Equal(t, TypeText, DetectType([]string{}))
	assert.Equal(t, TypeDate, DetectType([]string{"2024-01-02", "2024-01-03", "x"}))
	assert.Equal(t, TypeNumber, DetectType([]string{"1", "2,5", "3 días", "n/a"}))
	assert.Equal(t, TypeCategory, DetectType([]string{"Abierto", "Cerrado", "Abierto", "Cerrado"}))
	assert.Equal(t, TypeText, DetectType([]string{"uno", "dos", "tres"}))
}

func TestDetectTypeSampling(t *testing.T) {
	// 200 distinct words followed by 300 numbers: the sampled regime only sees words.
	values := make([]string, 0, 500)
	for i := 0; i < 200; i++ {
		values = append(values, fmt.Sprintf("nota %c%c", 'a'+i%26, 'a'+i/26))
	}
	for i := 0; i < 400; i++ {
		values = append(values, fmt.Sprint(i))
	}
	assert.Equal(t, TypeText, DetectType(values))
	assert.Equal(t, TypeNumber, detectType(values, 0), "unsampled sees the numbers")
}

func TestInferKeywordPass(t *testing.T) {
	headers := []string{"Estado Final Incidente", "Ingeniero Asignado", "Rango edad"}
	rows := rowsOf(headers,
		[]string{"Abierto", "Ana Pérez", "0-30 días"},
		[]string{"Cerrado", "Luis Gómez", "31-60 días"},
		[]string{"Abierto", "Ana Pérez", "Más de 90 días"},
	)
	s := Infer(headers, rows)
	assert.Equal(t, "Estado Final Incidente", s.Roles[RoleEstado])
	assert.Equal(t, "Ingeniero Asignado", s.Roles[RoleResponsable])
	assert.Equal(t, "Rango edad", s.Roles[RoleRangoEdad])
	// "edad" in "Rango edad" also satisfies the tiempo keyword.
	assert.Equal(t, "Rango edad", s.Roles[RoleTiempo])
	_, ok := s.Column(RoleProveedor)
	assert.False(t, ok)
}

func TestInferFirstMatchingHeaderWins(t *testing.T) {
	headers := []string{"Estado Proveedor", "Estado Incidente"}
	rows := rowsOf(headers, []string{"Activo", "Abierto"})
	s := Infer(headers, rows)
	assert.Equal(t, "Estado Proveedor", s.Roles[RoleEstado])
	assert.Equal(t, "Estado Proveedor", s.Roles[RoleProveedor], "one column may carry several roles")
}

func TestInferFallbacks(t *testing.T) {
	headers := []string{"ID", "Situación", "Quien", "Detalle", "Empresa Vendor", "Abierta el", "Horas"}
	var records [][]string
	sits := []string{"Abierto", "Cerrado", "Devuelto"}
	names := []string{"Ana Pérez", "Luis Gómez", "Eva Ruiz"}
	for i := 0; i < 12; i++ {
		records = append(records, []string{
			fmt.Sprintf("INC-%03d", i),
			sits[i%3],
			names[i%3],
			fmt.Sprintf("detalle %c", 'a'+i),
			"ACME",
			fmt.Sprintf("2024-02-%02d", i+1),
			fmt.Sprintf("%d", i*3),
		})
	}
	s := Infer(headers, rowsOf(headers, records...))

	assert.Equal(t, TypeDate, s.Types["Abierta el"])
	assert.Equal(t, TypeNumber, s.Types["Horas"])

	assert.Equal(t, "Situación", s.Roles[RoleEstado], "smallest distinct count in [2,15]")
	assert.Equal(t, "Quien", s.Roles[RoleResponsable], "name pattern score")
	assert.Equal(t, "Empresa Vendor", s.Roles[RoleProveedor])
	assert.Equal(t, "Abierta el", s.Roles[RoleFecha], "first date column")
	// ID and Horas both parse on every row: ID comes first.
	assert.Equal(t, "ID", s.Roles[RoleTiempo])
	assert.Equal(t, TypeNumber, s.Types["ID"])
	assert.Equal(t, "Detalle", s.Roles[RoleServicio], "largest distinct count")
	_, ok := s.Roles[RoleRangoEdad]
	assert.False(t, ok, "rangoEdad has no fallback")
}

func TestInferResponsableNeedsPositiveScore(t *testing.T) {
	headers := []string{"codigo", "nota"}
	rows := rowsOf(headers, []string{"a1", "sin nombre"}, []string{"b2", "otra"})
	s := Infer(headers, rows)
	_, ok := s.Roles[RoleResponsable]
	assert.False(t, ok)
}

func TestInferNameScoreSampling(t *testing.T) {
	headers := []string{"a", "b"}
	var records [][]string
	for i := 0; i < 5; i++ {
		records = append(records, []string{"Ana Pérez", "x"})
	}
	for i := 0; i < 10; i++ {
		records = append(records, []string{"x", "Luis Gómez"})
	}
	rows := rowsOf(headers, records...)

	assert.Equal(t, "b", (&Inferrer{}).Infer(headers, rows).Roles[RoleResponsable])
	assert.Equal(t, "a", (&Inferrer{SampleSize: 5}).Infer(headers, rows).Roles[RoleResponsable])
}

func TestInferNameScoreAcceptsNBSP(t *testing.T) {
	headers := []string{"a", "b"}
	rows := rowsOf(headers,
		[]string{"Ana\u00a0Pérez", "x"},
		[]string{"Luis\u00a0Gómez", "x"},
		[]string{"Ana\u00a0Pérez", "y"},
	)
	assert.Equal(t, "a", (&Inferrer{}).Infer(headers, rows).Roles[RoleResponsable])
}

func TestInferDeterministic(t *testing.T) {
	headers := []string{"Estado", "Responsable", "Servicio", "Tiempo", "Fecha"}
	rows := rowsOf(headers,
		[]string{"Abierto", "Ana Pérez", "Red", "5", "2024-01-01"},
		[]string{"Cerrado", "Luis Gómez", "Correo", "7", "2024-01-02"},
	)
	require.Equal(t, Infer(headers, rows), Infer(headers, rows))
}

func TestInferEmptyDataset(t *testing.T) {
	s := Infer([]string{"x"}, nil)
	assert.Equal(t, TypeText, s.Types["x"])
	assert.Equal(t, "x", s.Roles[RoleTiempo], "zero-hit column still wins the tiempo fallback")
	_, ok := s.Roles[RoleEstado]
	assert.False(t, ok)
}

func TestWithOverrides(t *testing.T) {
	headers := []string{"Estado", "Otro"}
	s := Infer(headers, rowsOf(headers, []string{"Abierto", "x"}))
	o := s.WithOverrides(headers, map[Role]string{RoleEstado: "Otro", RoleServicio: "Nope"})
	assert.Equal(t, "Otro", o.Roles[RoleEstado])
	assert.Equal(t, "Estado", s.Roles[RoleEstado], "original is untouched")
	assert.Equal(t, s.Roles[RoleServicio], o.Roles[RoleServicio], "unknown header is ignored")
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("rango_edad")
	require.True(t, ok)
	assert.Equal(t, RoleRangoEdad, r)
	r, ok = ParseRole("Estado")
	require.True(t, ok)
	assert.Equal(t, RoleEstado, r)
	_, ok = ParseRole("prioridad")
	assert.False(t, ok)
}
