package stats

import (
	"math"
	"testing"

	"datalens/internal/testkit"
)

func TestCorrelation_SelfIsOne(t *testing.T) {
	kit := testkit.NewTestKit()
	v := kit.NoisySeries(19, 100, 0, 5)

	r := Correlation("v", "v", v, v)
	if math.Abs(r.Coefficient-1) > 1e-12 {
		t.Errorf("self-correlation = %g, want 1", r.Coefficient)
	}
	if r.PValue > 1e-6 {
		t.Errorf("self-correlation p = %g, want ~0", r.PValue)
	}
}

func TestCorrelation_PerfectNegative(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{10, 8, 6, 4, 2}

	r := Correlation("x", "y", x, y)
	if math.Abs(r.Coefficient+1) > 1e-12 {
		t.Errorf("coefficient = %g, want -1", r.Coefficient)
	}
}

func TestCorrelation_ConstantInputZeroByConvention(t *testing.T) {
	kit := testkit.NewTestKit()
	constant := kit.ConstantSeries(50, 3)
	varying := kit.NoisySeries(21, 50, 0, 1)

	r := Correlation("c", "v", constant, varying)
	if math.IsNaN(r.Coefficient) {
		t.Fatal("degenerate input must not produce NaN")
	}
	if r.Coefficient != 0 {
		t.Errorf("coefficient = %g, want 0 by convention", r.Coefficient)
	}
}

func TestCorrelation_TooShort(t *testing.T) {
	r := Correlation("x", "y", []float64{1}, []float64{2})
	if r.Coefficient != 0 {
		t.Errorf("single pair coefficient = %g, want 0", r.Coefficient)
	}
}

func TestCorrelation_Uncorrelated(t *testing.T) {
	kit := testkit.NewTestKit()
	x := kit.NoisySeries(31, 500, 0, 1)
	y := kit.NoisySeries(37, 500, 0, 1)

	r := Correlation("x", "y", x, y)
	if math.Abs(r.Coefficient) > 0.15 {
		t.Errorf("independent series correlation = %g, want near 0", r.Coefficient)
	}
	if r.SampleSize != 500 {
		t.Errorf("sample size %d, want 500", r.SampleSize)
	}
}

func TestCorrelation_ClampedRange(t *testing.T) {
	kit := testkit.NewTestKit()
	x := kit.TrendingSeries(41, 100, 0, 1, 0.01)
	y := kit.TrendingSeries(43, 100, 5, 2, 0.01)

	r := Correlation("x", "y", x, y)
	if r.Coefficient < -1 || r.Coefficient > 1 {
		t.Errorf("coefficient %g escaped [-1, 1]", r.Coefficient)
	}
	if r.Coefficient < 0.99 {
		t.Errorf("two rising lines should correlate near 1, got %g", r.Coefficient)
	}
}
