package analysis

import (
	"encoding/json"
	"math"

	"datalens/domain/core"
)

// Kind discriminates the Result union.
type Kind string

const (
	KindDescriptive Kind = "descriptive"
	KindRegression  Kind = "regression"
	KindHypothesis  Kind = "hypothesis"
	KindCorrelation Kind = "correlation"
)

// Trend classifies the direction of a numeric series.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// RegressionKind selects the regression variant.
type RegressionKind string

const (
	RegressionLinear     RegressionKind = "linear"
	RegressionPolynomial RegressionKind = "polynomial"
	RegressionRidge      RegressionKind = "ridge"
	RegressionLasso      RegressionKind = "lasso"
	RegressionLogLog     RegressionKind = "loglog"
)

// TestKind selects the hypothesis test variant.
type TestKind string

const (
	TestMean            TestKind = "mean"
	TestVariance        TestKind = "variance"
	TestProportion      TestKind = "proportion"
	TestAutocorrelation TestKind = "correlation"
)

// DescriptiveResult holds descriptive statistics for one field.
// StdDev here uses sample variance (N-1), matching the inferential path.
type DescriptiveResult struct {
	FieldName string  `json:"field_name"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	StdDev    float64 `json:"standard_deviation"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Trend     Trend   `json:"trend"`
}

// RegressionResult holds a fitted model and its diagnostics.
type RegressionResult struct {
	Kind         RegressionKind `json:"kind"`
	XField       string         `json:"x_field"`
	YField       string         `json:"y_field"`
	Coefficients []float64      `json:"coefficients"` // index = power term, [intercept, slope, ...]
	Predictions  []float64      `json:"predictions"`
	Residuals    []float64      `json:"residuals"`
	RSquared     float64        `json:"r_squared"`
	AdjRSquared  float64        `json:"adjusted_r_squared"` // NaN when n <= p+1
	StdError     float64        `json:"standard_error"`
	FStatistic   float64        `json:"f_statistic"`
	FPValue      float64        `json:"f_p_value"`
	AIC          float64        `json:"aic"`
	BIC          float64        `json:"bic"`
	LowerBand    []float64      `json:"lower_band"`
	UpperBand    []float64      `json:"upper_band"`
	SampleSize   int            `json:"sample_size"`
}

// Slope returns the first-order coefficient, 0 for an intercept-only fit.
func (r *RegressionResult) Slope() float64 {
	if len(r.Coefficients) > 1 {
		return r.Coefficients[1]
	}
	return 0
}

// Intercept returns the constant term.
func (r *RegressionResult) Intercept() float64 {
	if len(r.Coefficients) > 0 {
		return r.Coefficients[0]
	}
	return 0
}

// jsonFloat renders non-finite values as null. encoding/json rejects NaN
// and the infinities outright, and diagnostics legitimately produce both
// (adjusted R² without residual degrees of freedom, critical values at
// zero df), so raw IEEE specials must never reach a serialization
// boundary.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

func toJSONFloats(values []float64) []jsonFloat {
	if values == nil {
		return nil
	}
	out := make([]jsonFloat, len(values))
	for i, v := range values {
		out[i] = jsonFloat(v)
	}
	return out
}

func fromJSONFloats(values []jsonFloat) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// regressionJSON is the wire shape of RegressionResult: identical layout,
// null-safe floats. Null decodes back to NaN.
type regressionJSON struct {
	Kind         RegressionKind `json:"kind"`
	XField       string         `json:"x_field"`
	YField       string         `json:"y_field"`
	Coefficients []jsonFloat    `json:"coefficients"`
	Predictions  []jsonFloat    `json:"predictions"`
	Residuals    []jsonFloat    `json:"residuals"`
	RSquared     jsonFloat      `json:"r_squared"`
	AdjRSquared  jsonFloat      `json:"adjusted_r_squared"`
	StdError     jsonFloat      `json:"standard_error"`
	FStatistic   jsonFloat      `json:"f_statistic"`
	FPValue      jsonFloat      `json:"f_p_value"`
	AIC          jsonFloat      `json:"aic"`
	BIC          jsonFloat      `json:"bic"`
	LowerBand    []jsonFloat    `json:"lower_band"`
	UpperBand    []jsonFloat    `json:"upper_band"`
	SampleSize   int            `json:"sample_size"`
}

// MarshalJSON keeps a perfect fit serializable: NaN diagnostics become
// null instead of failing the whole encode.
func (r *RegressionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(regressionJSON{
		Kind:         r.Kind,
		XField:       r.XField,
		YField:       r.YField,
		Coefficients: toJSONFloats(r.Coefficients),
		Predictions:  toJSONFloats(r.Predictions),
		Residuals:    toJSONFloats(r.Residuals),
		RSquared:     jsonFloat(r.RSquared),
		AdjRSquared:  jsonFloat(r.AdjRSquared),
		StdError:     jsonFloat(r.StdError),
		FStatistic:   jsonFloat(r.FStatistic),
		FPValue:      jsonFloat(r.FPValue),
		AIC:          jsonFloat(r.AIC),
		BIC:          jsonFloat(r.BIC),
		LowerBand:    toJSONFloats(r.LowerBand),
		UpperBand:    toJSONFloats(r.UpperBand),
		SampleSize:   r.SampleSize,
	})
}

func (r *RegressionResult) UnmarshalJSON(data []byte) error {
	var s regressionJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = RegressionResult{
		Kind:         s.Kind,
		XField:       s.XField,
		YField:       s.YField,
		Coefficients: fromJSONFloats(s.Coefficients),
		Predictions:  fromJSONFloats(s.Predictions),
		Residuals:    fromJSONFloats(s.Residuals),
		RSquared:     float64(s.RSquared),
		AdjRSquared:  float64(s.AdjRSquared),
		StdError:     float64(s.StdError),
		FStatistic:   float64(s.FStatistic),
		FPValue:      float64(s.FPValue),
		AIC:          float64(s.AIC),
		BIC:          float64(s.BIC),
		LowerBand:    fromJSONFloats(s.LowerBand),
		UpperBand:    fromJSONFloats(s.UpperBand),
		SampleSize:   s.SampleSize,
	}
	return nil
}

// HypothesisTestResult holds one hypothesis test outcome.
type HypothesisTestResult struct {
	Kind          TestKind `json:"kind"`
	FieldName     string   `json:"field_name"`
	Statistic     float64  `json:"statistic"`
	PValue        float64  `json:"p_value"` // two-tailed
	CriticalValue float64  `json:"critical_value"`
	Alpha         float64  `json:"alpha"`
	Significant   bool     `json:"significant"` // p < alpha
	EffectSize    float64  `json:"effect_size"`
	Power         float64  `json:"power"`
	Conclusion    string   `json:"conclusion"` // "Reject H0" / "Fail to reject H0"
	SampleSize    int      `json:"sample_size"`
}

// hypothesisJSON is the wire shape of HypothesisTestResult. The critical
// value is infinite at zero degrees of freedom and must not break the
// encode.
type hypothesisJSON struct {
	Kind          TestKind  `json:"kind"`
	FieldName     string    `json:"field_name"`
	Statistic     jsonFloat `json:"statistic"`
	PValue        jsonFloat `json:"p_value"`
	CriticalValue jsonFloat `json:"critical_value"`
	Alpha         jsonFloat `json:"alpha"`
	Significant   bool      `json:"significant"`
	EffectSize    jsonFloat `json:"effect_size"`
	Power         jsonFloat `json:"power"`
	Conclusion    string    `json:"conclusion"`
	SampleSize    int       `json:"sample_size"`
}

func (h *HypothesisTestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(hypothesisJSON{
		Kind:          h.Kind,
		FieldName:     h.FieldName,
		Statistic:     jsonFloat(h.Statistic),
		PValue:        jsonFloat(h.PValue),
		CriticalValue: jsonFloat(h.CriticalValue),
		Alpha:         jsonFloat(h.Alpha),
		Significant:   h.Significant,
		EffectSize:    jsonFloat(h.EffectSize),
		Power:         jsonFloat(h.Power),
		Conclusion:    h.Conclusion,
		SampleSize:    h.SampleSize,
	})
}

func (h *HypothesisTestResult) UnmarshalJSON(data []byte) error {
	var s hypothesisJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = HypothesisTestResult{
		Kind:          s.Kind,
		FieldName:     s.FieldName,
		Statistic:     float64(s.Statistic),
		PValue:        float64(s.PValue),
		CriticalValue: float64(s.CriticalValue),
		Alpha:         float64(s.Alpha),
		Significant:   s.Significant,
		EffectSize:    float64(s.EffectSize),
		Power:         float64(s.Power),
		Conclusion:    s.Conclusion,
		SampleSize:    s.SampleSize,
	}
	return nil
}

// CorrelationResult holds a Pearson correlation between two fields.
// Coefficient is 0 by convention for degenerate input, never NaN.
type CorrelationResult struct {
	XField      string  `json:"x_field"`
	YField      string  `json:"y_field"`
	Coefficient float64 `json:"coefficient"`
	PValue      float64 `json:"p_value"`
	SampleSize  int     `json:"sample_size"`
}

// Result is the tagged union over all analysis outcomes. Exactly one
// payload matching Kind is set. The engine holds no reference to a Result
// once returned; the caller owns it.
type Result struct {
	ID          core.ResultID         `json:"id"`
	Kind        Kind                  `json:"kind"`
	Descriptive *DescriptiveResult    `json:"descriptive,omitempty"`
	Regression  *RegressionResult     `json:"regression,omitempty"`
	Hypothesis  *HypothesisTestResult `json:"hypothesis,omitempty"`
	Correlation *CorrelationResult    `json:"correlation,omitempty"`
	ComputedAt  core.Timestamp        `json:"computed_at"`
}

// NewDescriptive wraps a descriptive payload into a Result.
func NewDescriptive(d *DescriptiveResult) *Result {
	return &Result{ID: core.ResultID(core.NewID()), Kind: KindDescriptive, Descriptive: d, ComputedAt: core.Now()}
}

// NewRegression wraps a regression payload into a Result.
func NewRegression(r *RegressionResult) *Result {
	return &Result{ID: core.ResultID(core.NewID()), Kind: KindRegression, Regression: r, ComputedAt: core.Now()}
}

// NewHypothesis wraps a hypothesis test payload into a Result.
func NewHypothesis(h *HypothesisTestResult) *Result {
	return &Result{ID: core.ResultID(core.NewID()), Kind: KindHypothesis, Hypothesis: h, ComputedAt: core.Now()}
}

// NewCorrelation wraps a correlation payload into a Result.
func NewCorrelation(c *CorrelationResult) *Result {
	return &Result{ID: core.ResultID(core.NewID()), Kind: KindCorrelation, Correlation: c, ComputedAt: core.Now()}
}
