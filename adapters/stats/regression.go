package stats

import (
	"math"
	"math/rand"
	"sort"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/internal/errors"
)

// RegressionOptions carries kind-specific parameters.
type RegressionOptions struct {
	Degree int     // polynomial degree; linear and loglog force 1
	Lambda float64 // ridge / lasso regularization strength
}

const (
	bootstrapResamples = 1000
	normalBand95       = 1.96
)

// Regression fits the requested model over index-aligned x/y pairs.
// Unlike the descriptive path, regression fails rather than degrade: a
// wrong numeric answer is worse than no answer.
func Regression(kind analysis.RegressionKind, xField, yField string, x, y []float64, opts RegressionOptions) (*analysis.RegressionResult, error) {
	if len(x) != len(y) {
		return nil, errors.InvalidInput("x and y series must be index-aligned")
	}

	switch kind {
	case analysis.RegressionLinear:
		return fitPolynomial(kind, xField, yField, x, y, 1, 0)
	case analysis.RegressionPolynomial:
		degree := opts.Degree
		if degree < 1 {
			degree = 2
		}
		return fitPolynomial(kind, xField, yField, x, y, degree, 0)
	case analysis.RegressionRidge:
		degree := opts.Degree
		if degree < 1 {
			degree = 1
		}
		lambda := opts.Lambda
		if lambda <= 0 {
			lambda = 1.0
		}
		return fitPolynomial(kind, xField, yField, x, y, degree, lambda)
	case analysis.RegressionLasso:
		return fitLasso(xField, yField, x, y, opts.Lambda)
	case analysis.RegressionLogLog:
		return fitLogLog(xField, yField, x, y)
	default:
		return nil, errors.InvalidInput("unknown regression kind: " + string(kind))
	}
}

// fitPolynomial solves least squares via the normal equations: the design
// matrix holds power terms 0..degree and the system is solved by Gaussian
// elimination with partial pivoting. A positive lambda adds ridge
// regularization (the intercept is left unpenalized).
func fitPolynomial(kind analysis.RegressionKind, xField, yField string, x, y []float64, degree int, lambda float64) (*analysis.RegressionResult, error) {
	n := len(x)
	p := degree // predictors, excluding intercept
	if n <= p+1 {
		return nil, errors.WithCode(errors.CodeInsufficientData, core.NewInsufficientDataError(n, p+2))
	}

	// Normal equations: (X'X + lambda*I) beta = X'y, built directly
	// from power sums to avoid materializing the design matrix.
	size := degree + 1
	xtx := make([][]float64, size)
	xty := make([]float64, size)
	for i := range xtx {
		xtx[i] = make([]float64, size)
	}
	for k := 0; k < n; k++ {
		powers := make([]float64, size)
		powers[0] = 1
		for d := 1; d < size; d++ {
			powers[d] = powers[d-1] * x[k]
		}
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				xtx[i][j] += powers[i] * powers[j]
			}
			xty[i] += powers[i] * y[k]
		}
	}
	if lambda > 0 {
		for i := 1; i < size; i++ {
			xtx[i][i] += lambda
		}
	}

	coefficients, err := solveGaussian(xtx, xty)
	if err != nil {
		return nil, errors.WithCode(errors.CodeAnalysisError, err)
	}

	predictions := make([]float64, n)
	for k := 0; k < n; k++ {
		predictions[k] = evalPolynomial(coefficients, x[k])
	}

	result := buildDiagnostics(kind, xField, yField, coefficients, y, predictions, p)
	result.LowerBand, result.UpperBand = symmetricBands(predictions, result.StdError)
	return result, nil
}

// fitLasso fits a degree-1 lasso by coordinate descent with the soft
// threshold operator on centered data.
func fitLasso(xField, yField string, x, y []float64, lambda float64) (*analysis.RegressionResult, error) {
	n := len(x)
	if n <= 2 {
		return nil, errors.WithCode(errors.CodeInsufficientData, core.NewInsufficientDataError(n, 3))
	}
	if lambda <= 0 {
		lambda = 1.0
	}

	meanX := mean(x)
	meanY := mean(y)

	var sumXX float64
	for _, v := range x {
		sumXX += (v - meanX) * (v - meanX)
	}
	if sumXX == 0 {
		return nil, errors.AnalysisError("degenerate variance in x")
	}

	// Single-predictor coordinate descent reduces to one soft threshold
	// of the OLS solution.
	var sumXY float64
	for i := 0; i < n; i++ {
		sumXY += (x[i] - meanX) * (y[i] - meanY)
	}
	slope := softThreshold(sumXY, lambda*float64(n)/2) / sumXX
	intercept := meanY - slope*meanX

	coefficients := []float64{intercept, slope}
	predictions := make([]float64, n)
	for i := 0; i < n; i++ {
		predictions[i] = intercept + slope*x[i]
	}

	result := buildDiagnostics(analysis.RegressionLasso, xField, yField, coefficients, y, predictions, 1)
	result.LowerBand, result.UpperBand = symmetricBands(predictions, result.StdError)
	return result, nil
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

// fitLogLog fits y = a * x^b by linear regression in log space. Rows with
// a non-positive value on either axis are filtered before the transform;
// fewer than 2 surviving rows is INSUFFICIENT_DATA. The standard error is
// a bootstrap estimate because the back-transform from log space has no
// simple analytic variance, and the confidence bands are multiplicative.
func fitLogLog(xField, yField string, x, y []float64) (*analysis.RegressionResult, error) {
	var fx, fy []float64
	for i := range x {
		if i < len(y) && x[i] > 0 && y[i] > 0 {
			fx = append(fx, math.Log(x[i]))
			fy = append(fy, math.Log(y[i]))
		}
	}
	if len(fx) < 2 {
		return nil, errors.WithCode(errors.CodeInsufficientData, core.NewInsufficientDataError(len(fx), 2))
	}
	n := len(fx)

	inner, err := fitPolynomial(analysis.RegressionLogLog, xField, yField, fx, fy, 1, 0)
	if err != nil {
		return nil, err
	}

	// Back-transform predictions and residuals to the original scale.
	predictions := make([]float64, n)
	residuals := make([]float64, n)
	logResiduals := make([]float64, n)
	for i := 0; i < n; i++ {
		predictions[i] = math.Exp(inner.Predictions[i])
		residuals[i] = math.Exp(fy[i]) - predictions[i]
		logResiduals[i] = fy[i] - inner.Predictions[i]
	}

	se := bootstrapStdError(logResiduals)
	inner.Predictions = predictions
	inner.Residuals = residuals
	inner.StdError = se
	inner.SampleSize = n

	// Multiplicative bands: prediction * exp(+-t*se).
	tCrit := NewDistributions().TCritical(0.05, n-2)
	if math.IsInf(tCrit, 0) {
		tCrit = normalBand95
	}
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range predictions {
		lower[i] = predictions[i] * math.Exp(-tCrit*se)
		upper[i] = predictions[i] * math.Exp(tCrit*se)
	}
	inner.LowerBand = lower
	inner.UpperBand = upper
	return inner, nil
}

// bootstrapStdError resamples the log-space residuals with replacement and
// reports the median of the per-resample sample standard deviations. The
// seed is fixed so repeated fits of the same data agree.
func bootstrapStdError(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return 0
	}

	rng := rand.New(rand.NewSource(42))
	sds := make([]float64, bootstrapResamples)
	resample := make([]float64, n)
	for b := 0; b < bootstrapResamples; b++ {
		for i := 0; i < n; i++ {
			resample[i] = residuals[rng.Intn(n)]
		}
		sds[b] = sampleStdDev(resample)
	}
	sort.Float64s(sds)
	mid := bootstrapResamples / 2
	return (sds[mid-1] + sds[mid]) / 2
}

// buildDiagnostics fills the shared diagnostics for a fitted model: R²,
// adjusted R² (NaN propagated when n <= p+1), residual standard error on
// n-p-1 degrees of freedom (the sample-variance convention), AIC/BIC and
// the overall F test.
func buildDiagnostics(kind analysis.RegressionKind, xField, yField string, coefficients, y, predictions []float64, p int) *analysis.RegressionResult {
	n := len(y)
	meanY := mean(y)

	var sse, sst float64
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		residuals[i] = y[i] - predictions[i]
		sse += residuals[i] * residuals[i]
		sst += (y[i] - meanY) * (y[i] - meanY)
	}

	rSquared := 1.0
	if sst > 0 {
		rSquared = 1 - sse/sst
	}

	adjRSquared := math.NaN()
	stdError := math.NaN()
	fStat := math.NaN()
	fPValue := 1.0
	dfResidual := n - p - 1
	if dfResidual > 0 {
		adjRSquared = 1 - (1-rSquared)*float64(n-1)/float64(dfResidual)
		stdError = math.Sqrt(sse / float64(dfResidual))
		if sse > 0 {
			fStat = ((sst - sse) / float64(p)) / (sse / float64(dfResidual))
			fPValue = NewDistributions().FTestPValue(fStat, p, dfResidual)
		} else {
			// Perfect fit: F diverges; report a finite extreme so the
			// result survives JSON round trips.
			fStat = math.MaxFloat64
			fPValue = 0
		}
	}

	// Gaussian log-likelihood based information criteria.
	aic := math.NaN()
	bic := math.NaN()
	if n > 0 && sse > 0 {
		k := float64(p + 2) // coefficients + error variance
		ll := float64(n) * math.Log(sse/float64(n))
		aic = ll + 2*k
		bic = ll + k*math.Log(float64(n))
	}

	return &analysis.RegressionResult{
		Kind:         kind,
		XField:       xField,
		YField:       yField,
		Coefficients: coefficients,
		Predictions:  predictions,
		Residuals:    residuals,
		RSquared:     rSquared,
		AdjRSquared:  adjRSquared,
		StdError:     stdError,
		FStatistic:   fStat,
		FPValue:      fPValue,
		AIC:          aic,
		BIC:          bic,
		SampleSize:   n,
	}
}

// symmetricBands returns the 95%-normal confidence bands
// prediction +- 1.96 * stderr.
func symmetricBands(predictions []float64, stdError float64) (lower, upper []float64) {
	lower = make([]float64, len(predictions))
	upper = make([]float64, len(predictions))
	margin := normalBand95 * stdError
	if math.IsNaN(margin) {
		margin = 0
	}
	for i, p := range predictions {
		lower[i] = p - margin
		upper[i] = p + margin
	}
	return lower, upper
}

// solveGaussian solves Ax = b in place using Gaussian elimination with
// partial pivoting. Pivot order is part of the numeric contract.
func solveGaussian(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		// Partial pivot: largest absolute value in the column.
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, core.ErrSingularMatrix
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for col := row + 1; col < n; col++ {
			sum -= a[row][col] * x[col]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

func evalPolynomial(coefficients []float64, x float64) float64 {
	result := 0.0
	power := 1.0
	for _, c := range coefficients {
		result += c * power
		power *= x
	}
	return result
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the N-1 divisor: this is the inferential-path
// convention, distinct from the population divisor in FieldStats.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(n-1))
}
