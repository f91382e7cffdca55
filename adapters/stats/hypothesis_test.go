package stats

import (
	"encoding/json"
	"math"
	"testing"

	"datalens/domain/analysis"
	"datalens/internal/errors"
	"datalens/internal/testkit"
)

func TestHypothesisTest_MeanClearlyNonzero(t *testing.T) {
	kit := testkit.NewTestKit()
	values := kit.NoisySeries(3, 100, 50, 2)

	r, err := HypothesisTest(analysis.TestMean, "v", values, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if !r.Significant {
		t.Error("mean 50 vs H0 mu=0 should be significant")
	}
	if r.Conclusion != "Reject H0" {
		t.Errorf("conclusion = %q, want Reject H0", r.Conclusion)
	}
	if r.PValue < 0 || r.PValue > 1 {
		t.Errorf("p-value %g out of range", r.PValue)
	}
	if r.Statistic <= 0 {
		t.Errorf("t = %g, want positive for a positive mean", r.Statistic)
	}
	if r.EffectSize <= 0 {
		t.Errorf("effect size %g, want positive", r.EffectSize)
	}
}

func TestHypothesisTest_MeanZeroVarianceNonNaN(t *testing.T) {
	values := []float64{10, 10, 10, 10, 10}

	r, err := HypothesisTest(analysis.TestMean, "v", values, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if math.IsNaN(r.Statistic) {
		t.Fatal("constant series must yield a defined statistic")
	}
	if r.Statistic <= 0 {
		t.Errorf("t = %g, want a signed extreme matching the mean", r.Statistic)
	}
	if r.PValue != 0 {
		t.Errorf("p = %g, want 0 for a constant nonzero series", r.PValue)
	}
	if !r.Significant {
		t.Error("constant nonzero series should reject H0")
	}
}

func TestHypothesisTest_MeanConstantZero(t *testing.T) {
	r, err := HypothesisTest(analysis.TestMean, "v", []float64{0, 0, 0, 0}, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if r.Statistic != 0 || r.PValue != 1 {
		t.Errorf("all-zero series: t=%g p=%g, want 0 and 1", r.Statistic, r.PValue)
	}
	if r.Conclusion != "Fail to reject H0" {
		t.Errorf("conclusion = %q", r.Conclusion)
	}
}

func TestHypothesisTest_VarianceAgainstUnit(t *testing.T) {
	kit := testkit.NewTestKit()

	// Spread 10 gives variance around 100, far above the reference 1.
	wide, err := HypothesisTest(analysis.TestVariance, "v", kit.NoisySeries(5, 80, 0, 10), 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if !wide.Significant {
		t.Error("variance ~100 vs H0 sigma²=1 should be significant")
	}
	if wide.EffectSize <= 0 {
		t.Errorf("effect size %g, want positive excess variance", wide.EffectSize)
	}

	// Spread 1 gives variance near the reference.
	unit, err := HypothesisTest(analysis.TestVariance, "v", kit.NoisySeries(5, 80, 0, 1), 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if math.Abs(unit.EffectSize) > 0.5 {
		t.Errorf("excess variance %g, want near 0 for unit-spread noise", unit.EffectSize)
	}
}

func TestHypothesisTest_ProportionAgainstHalf(t *testing.T) {
	// 90 of 100 values positive.
	values := make([]float64, 100)
	for i := range values {
		if i < 90 {
			values[i] = 1
		} else {
			values[i] = -1
		}
	}

	r, err := HypothesisTest(analysis.TestProportion, "v", values, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if !r.Significant {
		t.Error("90% positive vs H0 p=0.5 should be significant")
	}
	if math.Abs(r.EffectSize-0.4) > 1e-12 {
		t.Errorf("effect size %g, want 0.4", r.EffectSize)
	}
	if r.Statistic <= 0 {
		t.Errorf("z = %g, want positive", r.Statistic)
	}
}

func TestHypothesisTest_AutocorrelationTrending(t *testing.T) {
	kit := testkit.NewTestKit()

	// A strong trend carries strong lag-1 autocorrelation.
	trending, err := HypothesisTest(analysis.TestAutocorrelation, "v", kit.TrendingSeries(9, 100, 0, 1, 0.1), 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if !trending.Significant {
		t.Error("trending series should show significant autocorrelation")
	}
	if trending.EffectSize < 0.9 {
		t.Errorf("lag-1 r = %g, want near 1", trending.EffectSize)
	}
}

func TestHypothesisTest_AutocorrelationConstant(t *testing.T) {
	kit := testkit.NewTestKit()
	r, err := HypothesisTest(analysis.TestAutocorrelation, "v", kit.ConstantSeries(20, 7), 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if r.EffectSize != 0 {
		t.Errorf("constant series r = %g, want 0 by convention", r.EffectSize)
	}
	if math.IsNaN(r.Statistic) {
		t.Error("constant series must not produce NaN")
	}
}

func TestHypothesisTest_InsufficientData(t *testing.T) {
	_, err := HypothesisTest(analysis.TestMean, "v", []float64{1}, 0.05)
	if err == nil {
		t.Fatal("single value must fail")
	}
	if errors.GetCode(err) != errors.CodeInsufficientData {
		t.Errorf("error code %s, want %s", errors.GetCode(err), errors.CodeInsufficientData)
	}
}

func TestHypothesisTest_UnknownKind(t *testing.T) {
	_, err := HypothesisTest(analysis.TestKind("anova"), "v", []float64{1, 2, 3}, 0.05)
	if err == nil {
		t.Fatal("unknown kind must fail")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestHypothesisTest_DefaultAlpha(t *testing.T) {
	r, err := HypothesisTest(analysis.TestMean, "v", []float64{1, 2, 3, 4}, 0)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if r.Alpha != 0.05 {
		t.Errorf("alpha = %g, want default 0.05", r.Alpha)
	}
}

func TestHypothesisTest_BoundaryConsistency(t *testing.T) {
	kit := testkit.NewTestKit()
	values := kit.NoisySeries(13, 30, 0.5, 1.5)

	r, err := HypothesisTest(analysis.TestMean, "v", values, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	// The p-value decision and the critical-value decision come from the
	// same distribution, so they must agree.
	byCritical := math.Abs(r.Statistic) > r.CriticalValue
	if byCritical != r.Significant {
		t.Errorf("critical-value decision %v disagrees with p-value decision %v (t=%g crit=%g p=%g)",
			byCritical, r.Significant, r.Statistic, r.CriticalValue, r.PValue)
	}
}

func TestHypothesisTest_VarianceLowerTailRejection(t *testing.T) {
	// Alternating +-0.05 has a sample variance far below the reference
	// variance of 1: the doubled lower tail rejects even though the
	// statistic sits well under the upper-tail critical value.
	values := make([]float64, 30)
	for i := range values {
		values[i] = 0.05
		if i%2 == 1 {
			values[i] = -0.05
		}
	}

	result, err := HypothesisTest(analysis.TestVariance, "v", values, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}
	if !result.Significant {
		t.Fatalf("p = %g, want lower-tail rejection", result.PValue)
	}
	if result.Statistic >= result.CriticalValue {
		t.Errorf("statistic %g should sit below the upper-tail critical value %g",
			result.Statistic, result.CriticalValue)
	}
	if result.EffectSize >= 0 {
		t.Errorf("effect size %g, want negative (variance below reference)", result.EffectSize)
	}
}

func TestHypothesisTest_TwoValueAutocorrelationSerializes(t *testing.T) {
	// Two values leave zero degrees of freedom for the lag-1 test; the
	// infinite critical value must still encode cleanly.
	result, err := HypothesisTest(analysis.TestAutocorrelation, "v", []float64{1, 2}, 0.05)
	if err != nil {
		t.Fatalf("HypothesisTest: %v", err)
	}

	data, merr := json.Marshal(result)
	if merr != nil {
		t.Fatalf("Marshal: %v", merr)
	}
	if !json.Valid(data) {
		t.Fatal("result is not valid JSON")
	}
}
