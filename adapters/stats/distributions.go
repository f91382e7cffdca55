package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions centralizes every distribution function the engine needs.
// The same distribution object backs both the p-value CDF and the
// critical-value inverse for a given test, so a decision made by comparing
// p to alpha can never disagree with one made by comparing the statistic
// to the critical value at the boundary.
type Distributions struct{}

// NewDistributions creates a distributions utility.
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-tailed p-value for a t statistic.
func (d *Distributions) TTestPValue(t float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)}
	return clampP(2 * (1 - dist.CDF(math.Abs(t))))
}

// TCritical returns the two-tailed critical value at alpha for a t test.
func (d *Distributions) TCritical(alpha float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return math.Inf(1)
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)}
	return dist.Quantile(1 - alpha/2)
}

// ChiSquarePValue computes the two-tailed p-value for a chi-square
// statistic by doubling the smaller tail.
func (d *Distributions) ChiSquarePValue(x float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	dist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	lower := dist.CDF(x)
	upper := 1 - lower
	return clampP(2 * math.Min(lower, upper))
}

// ChiSquareCritical returns the upper-tail critical value at alpha. The
// chi-square p-value side is two-tailed, so a statistic deep in the lower
// tail can be significant while sitting below this bound; lower-tail
// decisions must compare the p-value against alpha, not the statistic
// against this value.
func (d *Distributions) ChiSquareCritical(alpha float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return math.Inf(1)
	}
	dist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return dist.Quantile(1 - alpha/2)
}

// NormalCDF computes the standard normal CDF.
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// ZTestPValue computes the two-tailed p-value for a z statistic.
func (d *Distributions) ZTestPValue(z float64) float64 {
	return clampP(2 * (1 - distuv.UnitNormal.CDF(math.Abs(z))))
}

// ZCritical returns the two-tailed critical value at alpha for a z test.
func (d *Distributions) ZCritical(alpha float64) float64 {
	return distuv.UnitNormal.Quantile(1 - alpha/2)
}

// FTestPValue computes the upper-tail p-value for an F statistic.
func (d *Distributions) FTestPValue(f float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(f) || f < 0 {
		return 1.0
	}
	dist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return clampP(1 - dist.CDF(f))
}

// Power estimates the statistical power of a two-tailed test: the
// probability of detecting the observed effect against the critical value
// under the normal approximation of the alternative.
func (d *Distributions) Power(effectSize float64, sampleSize int, alpha float64) float64 {
	if sampleSize < 2 {
		return 0
	}
	shift := math.Abs(effectSize) * math.Sqrt(float64(sampleSize))
	crit := d.ZCritical(alpha)
	power := 1 - distuv.UnitNormal.CDF(crit-shift) + distuv.UnitNormal.CDF(-crit-shift)
	return math.Min(math.Max(power, 0), 1)
}

func clampP(p float64) float64 {
	if math.IsNaN(p) {
		return 1
	}
	return math.Min(math.Max(p, 0), 1)
}
