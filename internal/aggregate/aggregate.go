// Package aggregate computes the status-aware incident aggregates. Every function
// is pure: it reads rows, never mutates them, and returns freshly allocated
// records. Absent or empty columns yield zero-valued results.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/status"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns a Spanish collator. Collators keep scratch buffers, so
// each call gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Spanish)
}

// FrequencyCount groups rows by the raw value of column and sorts the buckets
// by label in Spanish collation order.
func FrequencyCount(rows []dataset.Row, column string) []Count {
	counts := map[string]int{}
	var order []string
	for _, r := range rows {
		v := r[column]
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	out := make([]Count, 0, len(order))
	for _, v := range order {
		out = append(out, Count{Label: v, Value: counts[v]})
	}
	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Label, out[j].Label) < 0
	})
	return out
}

// StatusTotals counts open and closed rows. Empty and unrecognized statuses are
// dropped from every figure.
func StatusTotals(rows []dataset.Row, statusCol string) Totals {
	var t Totals
	for _, r := range rows {
		switch status.Classify(r[statusCol]) {
		case status.Open:
			t.Abiertos++
		case status.Closed:
			t.Cerrados++
		}
	}
	t.Total = t.Abiertos + t.Cerrados
	return t
}

// StatusTotalsFourWay counts open, closed, returned and empty rows.
func StatusTotalsFourWay(rows []dataset.Row, statusCol string) FourWayTotals {
	var t FourWayTotals
	for _, r := range rows {
		switch status.ClassifyFourWay(r[statusCol]) {
		case status.Open:
			t.Abiertos++
		case status.Closed:
			t.Cerrados++
		case status.Returned:
			t.Devuelto++
		case status.Empty:
			t.Vacios++
		}
	}
	t.Total = t.Abiertos + t.Cerrados + t.Devuelto + t.Vacios
	return t
}

// ByDimension cross-tabulates open/closed counts per display-cleaned value of
// dimCol. Rows with an empty dimension or an empty/unrecognized status are
// skipped. Output is sorted by Total descending; ties keep first-seen order.
func ByDimension(rows []dataset.Row, dimCol, statusCol string) []OpenClosed {
	idx := map[string]int{}
	var out []OpenClosed
	for _, r := range rows {
		label := textnorm.CleanDisplayText(r[dimCol])
		if label == "" {
			continue
		}
		cls := status.Classify(r[statusCol])
		if cls != status.Open && cls != status.Closed {
			continue
		}
		i, ok := idx[label]
		if !ok {
			i = len(out)
			idx[label] = i
			out = append(out, OpenClosed{Label: label})
		}
		if cls == status.Open {
			out[i].Abiertos++
		} else {
			out[i].Cerrados++
		}
		out[i].Total = out[i].Abiertos + out[i].Cerrados
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if out == nil {
		out = []OpenClosed{}
	}
	return out
}

type timeAcc struct {
	sumOpen, sumClosed     float64
	countOpen, countClosed int
}

func (a *timeAcc) add(cls status.Class, v float64) {
	if cls == status.Open {
		a.sumOpen += v
		a.countOpen++
	} else {
		a.sumClosed += v
		a.countClosed++
	}
}

func (a *timeAcc) bucket(label string) TimeBucket {
	b := TimeBucket{Label: label, CountOpen: a.countOpen, CountClosed: a.countClosed}
	if a.countOpen > 0 {
		b.AvgOpen = round2(a.sumOpen / float64(a.countOpen))
	}
	if a.countClosed > 0 {
		b.AvgClosed = round2(a.sumClosed / float64(a.countClosed))
	}
	return b
}

// timeSample classifies one row for the time averages. ok is false when the row
// has no open/closed status or no parseable time.
func timeSample(r dataset.Row, timeCol, statusCol string) (status.Class, float64, bool) {
	cls := status.Classify(r[statusCol])
	if cls != status.Open && cls != status.Closed {
		return cls, 0, false
	}
	v, ok := textnorm.ParseNumber(r[timeCol])
	if !ok {
		return cls, 0, false
	}
	return cls, v, true
}

// AvgTimeByRangeAndState averages timeCol separately for open and closed rows in
// every rangeCol bucket. Buckets are ordered by RangeWeight, then by label.
func AvgTimeByRangeAndState(rows []dataset.Row, rangeCol, timeCol, statusCol string) []TimeBucket {
	accs := map[string]*timeAcc{}
	var order []string
	for _, r := range rows {
		label := textnorm.CleanDisplayText(r[rangeCol])
		if label == "" {
			continue
		}
		cls, v, ok := timeSample(r, timeCol, statusCol)
		if !ok {
			continue
		}
		a, seen := accs[label]
		if !seen {
			a = &timeAcc{}
			accs[label] = a
			order = append(order, label)
		}
		a.add(cls, v)
	}
	out := make([]TimeBucket, 0, len(order))
	for _, label := range order {
		b := accs[label].bucket(label)
		b.Weight = RangeWeight(label)
		out = append(out, b)
	}
	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return col.CompareString(out[i].Label, out[j].Label) < 0
	})
	return out
}

// AvgTimeByStateGlobal is AvgTimeByRangeAndState without bucketing. The record is
// labeled "Global".
func AvgTimeByStateGlobal(rows []dataset.Row, timeCol, statusCol string) TimeBucket {
	var a timeAcc
	for _, r := range rows {
		if cls, v, ok := timeSample(r, timeCol, statusCol); ok {
			a.add(cls, v)
		}
	}
	return a.bucket("Global")
}

// Percent returns round(100*part/total), or 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(part)/float64(total) + 0.5))
}

// Top returns at most n records ordered by Abiertos descending, keeping the
// incoming order on ties.
func Top(recs []OpenClosed, n int) []OpenClosed {
	out := append([]OpenClosed(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Abiertos > out[j].Abiertos })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopCounts returns at most n counts ordered by Value descending.
func TopCounts(counts []Count, n int) []Count {
	out := append([]Count(nil), counts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Filter returns the rows whose statusCol classifies as cls.
func Filter(rows []dataset.Row, statusCol string, cls status.Class) []dataset.Row {
	var out []dataset.Row
	for _, r := range rows {
		if status.Classify(r[statusCol]) == cls {
			out = append(out, r)
		}
	}
	return out
}

// MatchHeader returns the first header whose folded form contains any of subs.
func MatchHeader(headers []string, subs ...string) (string, bool) {
	for _, h := range headers {
		f := textnorm.Fold(h)
		for _, s := range subs {
			if strings.Contains(f, s) {
				return h, true
			}
		}
	}
	return "", false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
