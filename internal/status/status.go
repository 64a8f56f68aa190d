// Package status buckets free-text incident states into open, closed, returned,
// empty or unrecognized using substring membership against curated term sets.
package status

import (
	"strings"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
)

// Class is the outcome of classifying one status cell.
type Class int

const (
	Unrecognized Class = iota
	Empty
	Open
	Closed
	Returned
)

func (c Class) String() string {
	switch c {
	case Empty:
		return "vacio"
	case Open:
		return "abierto"
	case Closed:
		return "cerrado"
	case Returned:
		return "devuelto"
	default:
		return "no reconocido"
	}
}

// TermSet is a tagged vocabulary; a value belongs to Class when its normalized
// form contains any of Terms.
type TermSet struct {
	Class Class
	Terms []string
}

func (ts TermSet) contains(normalized string) bool {
	for _, t := range ts.Terms {
		if strings.Contains(normalized, t) {
			return true
		}
	}
	return false
}

var (
	OpenTerms     = TermSet{Class: Open, Terms: []string{"abierto", "open", "pendiente", "en progreso", "en curso", "asignado", "reabierto"}}
	ClosedTerms   = TermSet{Class: Closed, Terms: []string{"cerrado", "closed", "resuelto", "finalizado", "completado"}}
	ReturnedTerms = TermSet{Class: Returned, Terms: []string{"devuelto", "returned"}}
)

// Classifier applies term sets in order; the first set that matches wins.
type Classifier struct {
	sets []TermSet
}

var (
	twoWay  = Classifier{sets: []TermSet{OpenTerms, ClosedTerms}}
	fourWay = Classifier{sets: []TermSet{OpenTerms, ClosedTerms, ReturnedTerms}}
)

// Classify normalizes v and returns its class.
func (c Classifier) Classify(v string) Class {
	n := textnorm.Normalize(v)
	if n == "" {
		return Empty
	}
	for _, ts := range c.sets {
		if ts.contains(n) {
			return ts.Class
		}
	}
	return Unrecognized
}

// Classify is the two-way variant: open, closed, empty or unrecognized.
func Classify(v string) Class { return twoWay.Classify(v) }

// ClassifyFourWay additionally recognizes returned states.
func ClassifyFourWay(v string) Class { return fourWay.Classify(v) }
