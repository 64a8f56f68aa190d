package aggregate

// Count is one frequency bucket.
type Count struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// OpenClosed is one row of a status cross-tab. Abiertos + Cerrados == Total.
type OpenClosed struct {
	Label    string `json:"label"`
	Abiertos int    `json:"abiertos"`
	Cerrados int    `json:"cerrados"`
	Total    int    `json:"total"`
}

// Totals is the two-way status split.
type Totals struct {
	Abiertos int `json:"abiertos"`
	Cerrados int `json:"cerrados"`
	Total    int `json:"total"`
}

// FourWayTotals is the four-way status split. Total is the sum of the four
// buckets, so non-empty unrecognized statuses are not part of it.
type FourWayTotals struct {
	Abiertos int `json:"abiertos"`
	Cerrados int `json:"cerrados"`
	Devuelto int `json:"devuelto"`
	Vacios   int `json:"vacios"`
	Total    int `json:"total"`
}

// TimeBucket holds average times for one range label. Averages are rounded to
// two decimals.
type TimeBucket struct {
	Label       string  `json:"label"`
	AvgOpen     float64 `json:"avg_open"`
	AvgClosed   float64 `json:"avg_closed"`
	CountOpen   int     `json:"count_open"`
	CountClosed int     `json:"count_closed"`
	Weight      float64 `json:"weight,omitempty"`
}

// TimeSummary describes the distribution of a duration column.
type TimeSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}
