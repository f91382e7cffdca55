package stats

import (
	"math"

	"datalens/domain/analysis"

	mstats "github.com/montanaflynn/stats"
)

// stabilityBand is the relative mean delta below which a trend counts as
// stable.
const stabilityBand = 0.05

// Descriptive computes descriptive statistics for a numeric series. This
// path never fails: empty or all-non-numeric input yields a zeroed,
// "stable" result, because partial insight beats a hard failure for
// exploratory analysis.
//
// StdDev here is the sample standard deviation (divide by N-1), matching
// the inferential path; the ingestion-time FieldStats summary uses the
// population divisor instead.
func Descriptive(fieldName string, values []float64) *analysis.DescriptiveResult {
	clean := dropNonFinite(values)

	result := &analysis.DescriptiveResult{
		FieldName: fieldName,
		Count:     len(clean),
		Trend:     analysis.TrendStable,
	}
	if len(clean) == 0 {
		return result
	}

	result.Mean, _ = mstats.Mean(clean)
	result.Median, _ = mstats.Median(clean)
	result.Min, _ = mstats.Min(clean)
	result.Max, _ = mstats.Max(clean)
	if len(clean) > 1 {
		sampleVar, _ := mstats.SampleVariance(clean)
		result.StdDev = math.Sqrt(sampleVar)
	}
	result.Trend = classifyTrend(clean)
	return result
}

// classifyTrend splits the series into first/second half (an odd midpoint
// goes to the second half) and compares means. The trend is stable when
// the delta stays within 5% of the first half's mean.
func classifyTrend(values []float64) analysis.Trend {
	if len(values) < 2 {
		return analysis.TrendStable
	}

	mid := len(values) / 2
	firstMean, _ := mstats.Mean(values[:mid])
	secondMean, _ := mstats.Mean(values[mid:])

	delta := secondMean - firstMean
	if math.Abs(delta) <= stabilityBand*math.Abs(firstMean) {
		return analysis.TrendStable
	}
	if delta > 0 {
		return analysis.TrendUp
	}
	return analysis.TrendDown
}

func dropNonFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
