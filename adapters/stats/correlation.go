package stats

import (
	"math"

	"datalens/domain/analysis"
)

// Correlation computes the Pearson correlation between two index-aligned
// series via the sum-of-products formula. By explicit convention it
// returns a coefficient of 0 (never NaN) when either series has zero
// variance or fewer than 2 overlapping points.
func Correlation(xField, yField string, x, y []float64) *analysis.CorrelationResult {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	result := &analysis.CorrelationResult{
		XField:     xField,
		YField:     yField,
		PValue:     1,
		SampleSize: n,
	}
	if n < 2 {
		return result
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
	}

	fn := float64(n)
	numerator := fn*sumXY - sumX*sumY
	denominator := math.Sqrt(fn*sumXX-sumX*sumX) * math.Sqrt(fn*sumYY-sumY*sumY)
	if denominator == 0 || math.IsNaN(denominator) {
		return result
	}

	r := numerator / denominator
	// Guard rounding drift outside [-1, 1].
	r = math.Min(math.Max(r, -1), 1)
	result.Coefficient = r

	if n > 2 && math.Abs(r) < 1 {
		df := n - 2
		t := r * math.Sqrt(float64(df)/(1-r*r))
		result.PValue = NewDistributions().TTestPValue(t, df)
	} else if math.Abs(r) == 1 {
		result.PValue = 0
	}
	return result
}
