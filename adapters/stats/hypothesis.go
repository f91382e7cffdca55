package stats

import (
	"math"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/internal/errors"
)

// referenceVariance is the null variance for the variance test.
const referenceVariance = 1.0

// referenceProportion is the null proportion for the proportion test.
const referenceProportion = 0.5

// HypothesisTest runs one of the four test kinds against a numeric series
// at significance level alpha. The p-value and the critical value come
// from the same distribution object, so the significance flag and a
// critical-value comparison cannot disagree at the boundary.
func HypothesisTest(kind analysis.TestKind, fieldName string, values []float64, alpha float64) (*analysis.HypothesisTestResult, error) {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	clean := dropNonFinite(values)
	if len(clean) < 2 {
		return nil, errors.WithCode(errors.CodeInsufficientData, core.NewInsufficientDataError(len(clean), 2))
	}

	var result *analysis.HypothesisTestResult
	switch kind {
	case analysis.TestMean:
		result = meanTest(clean, alpha)
	case analysis.TestVariance:
		result = varianceTest(clean, alpha)
	case analysis.TestProportion:
		result = proportionTest(clean, alpha)
	case analysis.TestAutocorrelation:
		result = autocorrelationTest(clean, alpha)
	default:
		return nil, errors.InvalidInput("unknown hypothesis test kind: " + string(kind))
	}

	result.Kind = kind
	result.FieldName = fieldName
	result.Alpha = alpha
	result.SampleSize = len(clean)
	result.Significant = result.PValue < alpha
	if result.Significant {
		result.Conclusion = "Reject H0"
	} else {
		result.Conclusion = "Fail to reject H0"
	}
	return result, nil
}

// meanTest is a one-sample t-test of the mean against 0. Variance uses
// the N-1 divisor (inferential convention). A zero-variance series still
// yields a defined, non-NaN statistic.
func meanTest(values []float64, alpha float64) *analysis.HypothesisTestResult {
	d := NewDistributions()
	n := len(values)
	m := mean(values)
	sd := sampleStdDev(values)

	var t float64
	switch {
	case sd > 0:
		t = m / (sd / math.Sqrt(float64(n)))
	case m != 0:
		// Constant nonzero series: the statistic diverges; report a
		// signed extreme rather than NaN from the zero division.
		t = math.Copysign(math.MaxFloat64, m)
	default:
		t = 0
	}

	p := d.TTestPValue(t, n-1)
	if sd == 0 {
		if m != 0 {
			p = 0
		} else {
			p = 1
		}
	}

	effect := 0.0
	if sd > 0 {
		effect = m / sd // Cohen's d against mu=0
	}

	return &analysis.HypothesisTestResult{
		Statistic:     t,
		PValue:        p,
		CriticalValue: d.TCritical(alpha, n-1),
		EffectSize:    effect,
		Power:         d.Power(effect, n, alpha),
	}
}

// varianceTest is a chi-square test of the variance against a reference
// variance of 1. The p-value doubles the smaller tail; CriticalValue is
// the upper-tail bound only, so a lower-tail rejection shows a
// significant statistic below the critical value.
func varianceTest(values []float64, alpha float64) *analysis.HypothesisTestResult {
	d := NewDistributions()
	n := len(values)
	sd := sampleStdDev(values)
	variance := sd * sd

	chi := float64(n-1) * variance / referenceVariance
	effect := variance - referenceVariance

	return &analysis.HypothesisTestResult{
		Statistic:     chi,
		PValue:        d.ChiSquarePValue(chi, n-1),
		CriticalValue: d.ChiSquareCritical(alpha, n-1),
		EffectSize:    effect,
		Power:         d.Power(effect, n, alpha),
	}
}

// proportionTest is a z-test of the proportion of positive values against
// 0.5.
func proportionTest(values []float64, alpha float64) *analysis.HypothesisTestResult {
	d := NewDistributions()
	n := len(values)

	positives := 0
	for _, v := range values {
		if v > 0 {
			positives++
		}
	}
	phat := float64(positives) / float64(n)

	se := math.Sqrt(referenceProportion * (1 - referenceProportion) / float64(n))
	z := (phat - referenceProportion) / se
	effect := phat - referenceProportion

	return &analysis.HypothesisTestResult{
		Statistic:     z,
		PValue:        d.ZTestPValue(z),
		CriticalValue: d.ZCritical(alpha),
		EffectSize:    effect,
		Power:         d.Power(effect, n, alpha),
	}
}

// autocorrelationTest is a t-test on the lag-1 autocorrelation of the
// series.
func autocorrelationTest(values []float64, alpha float64) *analysis.HypothesisTestResult {
	d := NewDistributions()
	n := len(values)
	m := mean(values)

	var num, den float64
	for i := 0; i < n-1; i++ {
		num += (values[i] - m) * (values[i+1] - m)
	}
	for i := 0; i < n; i++ {
		den += (values[i] - m) * (values[i] - m)
	}

	// Zero-variance convention mirrors Pearson: r of constant input is 0.
	r := 0.0
	if den > 0 {
		r = num / den
	}
	r = math.Min(math.Max(r, -1), 1)

	df := n - 2
	var t float64
	switch {
	case df > 0 && math.Abs(r) < 1:
		t = r * math.Sqrt(float64(df)/(1-r*r))
	case math.Abs(r) == 1:
		t = math.Copysign(math.MaxFloat64, r)
	default:
		t = 0
	}

	p := d.TTestPValue(t, df)
	if math.Abs(r) == 1 {
		p = 0
	}

	return &analysis.HypothesisTestResult{
		Statistic:     t,
		PValue:        p,
		CriticalValue: d.TCritical(alpha, df),
		EffectSize:    r,
		Power:         d.Power(r, n, alpha),
	}
}
