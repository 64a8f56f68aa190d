package schema

import (
	"regexp"
	"strings"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
)

// Role is the canonical meaning a column can carry in an incident export.
type Role string

const (
	RoleEstado      Role = "estado"
	RoleResponsable Role = "responsable"
	RoleServicio    Role = "servicio"
	RoleProveedor   Role = "proveedor"
	RoleTiempo      Role = "tiempo"
	RoleFecha       Role = "fecha"
	RoleRangoEdad   Role = "rangoEdad"
)

// Roles lists every role in resolution order.
var Roles = []Role{RoleEstado, RoleResponsable, RoleServicio, RoleProveedor, RoleTiempo, RoleFecha, RoleRangoEdad}

// ParseRole maps a config key such as "rango_edad" or "Estado" onto a Role.
func ParseRole(s string) (Role, bool) {
	key := strings.ReplaceAll(textnorm.Normalize(s), "_", "")
	for _, r := range Roles {
		if strings.ToLower(string(r)) == key {
			return r, true
		}
	}
	return "", false
}

// Keywords are matched by containment against normalized headers.
var Keywords = map[Role][]string{
	RoleEstado:      {"estado", "status", "estado final", "estado incidente", "estado linea", "estado proveedor"},
	RoleResponsable: {"responsable", "asignado", "ingeniero asignado", "owner", "persona", "responsable escalamiento"},
	RoleServicio:    {"servicio", "service", "tipificacion", "categoria", "tipo", "producto", "componente"},
	RoleProveedor:   {"proveedor", "vendor", "proveedor a escalar"},
	RoleTiempo:      {"tiempo", "duracion", "duration", "dias", "edad incidente", "edad"},
	RoleFecha:       {"fecha", "date", "fch", "radicado", "cierre", "actualizacion", "produccion"},
	RoleRangoEdad:   {"rango edad", "rango_edad", "age range", "rango"},
}

// columns is the read-only view every resolver works from.
type columns struct {
	headers    []string
	rows       []dataset.Row
	types      map[string]ColumnType
	sampleSize int
}

func (c *columns) ofType(kinds ...ColumnType) []string {
	var out []string
	for _, h := range c.headers {
		for _, k := range kinds {
			if c.types[h] == k {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

func (c *columns) distinct(h string) int {
	seen := make(map[string]struct{})
	for _, r := range c.rows {
		seen[r[h]] = struct{}{}
	}
	return len(seen)
}

// A Resolver proposes a column for one role; ok is false when it has no opinion.
type Resolver func(c *columns) (column string, ok bool)

func keywordResolver(role Role) Resolver {
	kws := make([]string, 0, len(Keywords[role]))
	for _, k := range Keywords[role] {
		kws = append(kws, textnorm.Normalize(k))
	}
	return func(c *columns) (string, bool) {
		for _, h := range c.headers {
			nh := textnorm.Normalize(h)
			for _, k := range kws {
				if strings.Contains(nh, k) {
					return h, true
				}
			}
		}
		return "", false
	}
}

// mostNumeric picks the number/text column with the most parseable values.
// A column with zero hits still wins when it is the only candidate.
func mostNumeric(c *columns) (string, bool) {
	best, bestHits := "", -1
	for _, h := range c.ofType(TypeNumber, TypeText) {
		hits := 0
		for _, r := range c.rows {
			if textnorm.IsNumericLike(r[h]) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = h, hits
		}
	}
	return best, best != ""
}

// compactEnumeration favors the category/text column with the fewest distinct
// values in [2, 15].
func compactEnumeration(c *columns) (string, bool) {
	best, bestUniq := "", 9999
	for _, h := range c.ofType(TypeCategory, TypeText) {
		u := c.distinct(h)
		if u >= 2 && u <= 15 && u < bestUniq {
			best, bestUniq = h, u
		}
	}
	return best, best != ""
}

var personName = regexp.MustCompile(`[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+[\s\x{00A0}]+[A-Za-zÁÉÍÓÚÑáéíóúñ]`)

// personNames scores non-numeric columns by how many sampled values look like
// "Nombre Apellido".
func personNames(c *columns) (string, bool) {
	best, score := "", 0
	for _, h := range c.headers {
		if c.types[h] == TypeNumber {
			continue
		}
		hits := 0
		for i, r := range c.rows {
			if c.sampleSize > 0 && i >= c.sampleSize {
				break
			}
			if personName.MatchString(r[h]) {
				hits++
			}
		}
		if hits > score {
			best, score = h, hits
		}
	}
	return best, best != ""
}

// widestTaxonomy picks the category/text column with the most distinct values.
func widestTaxonomy(c *columns) (string, bool) {
	best, bestUniq := "", 0
	for _, h := range c.ofType(TypeCategory, TypeText) {
		if u := c.distinct(h); u > bestUniq {
			best, bestUniq = h, u
		}
	}
	return best, best != ""
}

var vendorHeader = regexp.MustCompile(`(?i)proveedor|vendor`)

func vendorByName(c *columns) (string, bool) {
	for _, h := range c.headers {
		if vendorHeader.MatchString(h) {
			return h, true
		}
	}
	return "", false
}

func firstDate(c *columns) (string, bool) {
	if d := c.ofType(TypeDate); len(d) > 0 {
		return d[0], true
	}
	return "", false
}

// chains returns the ordered resolvers for each role.
func chains() map[Role][]Resolver {
	return map[Role][]Resolver{
		RoleEstado:      {keywordResolver(RoleEstado), compactEnumeration},
		RoleResponsable: {keywordResolver(RoleResponsable), personNames},
		RoleServicio:    {keywordResolver(RoleServicio), widestTaxonomy},
		RoleProveedor:   {keywordResolver(RoleProveedor), vendorByName},
		RoleTiempo:      {keywordResolver(RoleTiempo), mostNumeric},
		RoleFecha:       {keywordResolver(RoleFecha), firstDate},
		RoleRangoEdad:   {keywordResolver(RoleRangoEdad)},
	}
}
