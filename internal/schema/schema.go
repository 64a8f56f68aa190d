// Package schema infers what each column of an incident export means without a
// fixed layout: a coarse value type per column plus the semantic roles (status,
// assignee, service, vendor, duration, date, age range) the report needs.
package schema

import (
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
)

// Schema is derived from exactly one (headers, rows) snapshot and never mutated.
// An unresolved role has no entry in Roles.
type Schema struct {
	Types map[string]ColumnType `json:"types"`
	Roles map[Role]string       `json:"roles"`
}

// Column returns the header bound to r.
func (s Schema) Column(r Role) (string, bool) {
	c, ok := s.Roles[r]
	return c, ok && c != ""
}

// WithOverrides returns a copy of s where every override naming an existing
// header replaces the inferred column for that role. Unknown headers are ignored.
func (s Schema) WithOverrides(headers []string, overrides map[Role]string) Schema {
	out := Schema{
		Types: make(map[string]ColumnType, len(s.Types)),
		Roles: make(map[Role]string, len(s.Roles)),
	}
	for k, v := range s.Types {
		out.Types[k] = v
	}
	for k, v := range s.Roles {
		out.Roles[k] = v
	}
	known := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		known[h] = struct{}{}
	}
	for r, col := range overrides {
		if _, ok := known[col]; ok {
			out.Roles[r] = col
		}
	}
	return out
}

// Inferrer holds the tunables of schema inference. The zero value uses no
// sampling cap; use NewInferrer for the standard one.
type Inferrer struct {
	SampleSize int
}

// NewInferrer returns an Inferrer sampling DefaultSampleSize values per column.
func NewInferrer() *Inferrer {
	return &Inferrer{SampleSize: DefaultSampleSize}
}

// Infer computes column types and roles for headers/rows using the default
// sampling cap.
func Infer(headers []string, rows []dataset.Row) Schema {
	return NewInferrer().Infer(headers, rows)
}

// Infer computes column types and then resolves each role independently from
// the same headers and types. Identical inputs give identical schemas.
func (in *Inferrer) Infer(headers []string, rows []dataset.Row) Schema {
	types := make(map[string]ColumnType, len(headers))
	for _, h := range headers {
		values := make([]string, 0, len(rows))
		for _, r := range rows {
			if v, ok := r[h]; ok {
				values = append(values, v)
			}
		}
		types[h] = detectType(values, in.SampleSize)
	}

	c := &columns{headers: headers, rows: rows, types: types, sampleSize: in.SampleSize}
	roles := make(map[Role]string)
	chain := chains()
	for _, role := range Roles {
		for _, resolve := range chain[role] {
			if col, ok := resolve(c); ok {
				roles[role] = col
				break
			}
		}
	}
	return Schema{Types: types, Roles: roles}
}
