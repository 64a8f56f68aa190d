package aggregate

import (
	"regexp"
	"strconv"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
)

// UnknownRangeWeight sorts labels without any number last.
const UnknownRangeWeight = 9999

var (
	moreThan = regexp.MustCompile(`>\s*\+\s*(\d+)`)
	between  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	lessThan = regexp.MustCompile(`<\s*(\d+)`)
	anyNum   = regexp.MustCompile(`(\d+)`)
)

// RangeWeight turns a free-form bucket label into a sort key:
//
//	"> +90 días"      -> 90.1
//	"31-60 días"      -> 60
//	"< 30"            -> 29.9
//	"Menor a 30 días" -> 30
//	"Sin rango"       -> 9999
func RangeWeight(label string) float64 {
	l := textnorm.Fold(label)
	if m := moreThan.FindStringSubmatch(l); m != nil {
		return atof(m[1]) + 0.1
	}
	if m := between.FindStringSubmatch(l); m != nil {
		return atof(m[2])
	}
	if m := lessThan.FindStringSubmatch(l); m != nil {
		return atof(m[1]) - 0.1
	}
	if m := anyNum.FindStringSubmatch(l); m != nil {
		return atof(m[1])
	}
	return UnknownRangeWeight
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
