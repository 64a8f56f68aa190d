package aggregate

import (
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"
	"github.com/montanaflynn/stats"
)

// TimeStats summarizes every parseable value of timeCol. Rows without a number
// are ignored; no values gives the zero summary.
func TimeStats(rows []dataset.Row, timeCol string) TimeSummary {
	var data stats.Float64Data
	for _, r := range rows {
		if v, ok := textnorm.ParseNumber(r[timeCol]); ok {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return TimeSummary{}
	}
	s := TimeSummary{Count: len(data)}
	// errors only signal empty input, ruled out above
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)
	sd, _ := stats.StandardDeviation(data)
	// Percentile rejects samples too small to hold a 90th rank.
	p90, err := stats.Percentile(data, 90)
	if err != nil {
		p90 = hi
	}
	s.Mean = round2(mean)
	s.Median = round2(median)
	s.P90 = round2(p90)
	s.Min = lo
	s.Max = hi
	s.StdDev = round2(sd)
	return s
}
