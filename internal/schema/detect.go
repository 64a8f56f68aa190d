package schema

import "github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/textnorm"

// ColumnType is the coarse value class of a column.
type ColumnType string

const (
	TypeDate     ColumnType = "date"
	TypeNumber   ColumnType = "number"
	TypeCategory ColumnType = "category"
	TypeText     ColumnType = "text"
)

// DefaultSampleSize caps how many values type detection and name scoring look at.
const DefaultSampleSize = 200

// DetectType classifies values using DefaultSampleSize.
func DetectType(values []string) ColumnType {
	return detectType(values, DefaultSampleSize)
}

func detectType(values []string, sampleSize int) ColumnType {
	sample := values
	if sampleSize > 0 && len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	n := float64(len(sample))
	if n == 0 {
		return TypeText
	}
	var dates, nums int
	distinct := make(map[string]struct{}, len(sample))
	for _, v := range sample {
		if textnorm.LooksLikeDate(v) {
			dates++
		}
		if textnorm.IsNumericLike(v) {
			nums++
		}
		distinct[v] = struct{}{}
	}
	switch {
	case float64(dates) > 0.5*n:
		return TypeDate
	case float64(nums) > 0.6*n:
		return TypeNumber
	case float64(len(distinct)) <= 0.7*n:
		return TypeCategory
	default:
		return TypeText
	}
}
