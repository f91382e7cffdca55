package executor

import (
	"strconv"

	"datalens/adapters/stats"
	"datalens/domain/analysis"
	"datalens/domain/dataset"
	"datalens/internal/errors"
	"datalens/ports"
)

// Supported operation names.
const (
	OpDescriptive = "descriptive"
	OpRegression  = "regression"
	OpHypothesis  = "hypothesis"
	OpCorrelation = "correlation"
)

// runOperation dispatches one query to the statistics engine. It is the
// single computation path shared by in-process and background execution,
// so both produce byte-identical results for identical input.
func runOperation(ds *dataset.Dataset, q ports.Query) (*analysis.Result, int, error) {
	switch q.Operation {
	case OpDescriptive:
		return runDescriptive(ds, q.Params)
	case OpRegression:
		return runRegression(ds, q.Params)
	case OpHypothesis:
		return runHypothesis(ds, q.Params)
	case OpCorrelation:
		return runCorrelation(ds, q.Params)
	default:
		return nil, 0, errors.InvalidInput("unknown operation: " + q.Operation)
	}
}

func runDescriptive(ds *dataset.Dataset, params map[string]string) (*analysis.Result, int, error) {
	field, err := ds.Field(params["field"])
	if err != nil {
		return nil, 0, errors.WithCode(errors.CodeNotFound, err)
	}
	values := field.NumericValues()
	result := stats.Descriptive(field.Name, values)
	return analysis.NewDescriptive(result), len(values), nil
}

func runRegression(ds *dataset.Dataset, params map[string]string) (*analysis.Result, int, error) {
	x, y, err := ds.PairedValues(params["x"], params["y"])
	if err != nil {
		return nil, 0, errors.WithCode(errors.CodeInvalidInput, err)
	}

	kind := analysis.RegressionKind(params["kind"])
	if kind == "" {
		kind = analysis.RegressionLinear
	}
	opts := stats.RegressionOptions{}
	if v, ok := params["degree"]; ok {
		if opts.Degree, err = strconv.Atoi(v); err != nil {
			return nil, 0, errors.InvalidInput("degree must be an integer")
		}
	}
	if v, ok := params["lambda"]; ok {
		if opts.Lambda, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, 0, errors.InvalidInput("lambda must be numeric")
		}
	}

	result, err := stats.Regression(kind, params["x"], params["y"], x, y, opts)
	if err != nil {
		return nil, 0, err
	}
	return analysis.NewRegression(result), len(x), nil
}

func runHypothesis(ds *dataset.Dataset, params map[string]string) (*analysis.Result, int, error) {
	field, err := ds.Field(params["field"])
	if err != nil {
		return nil, 0, errors.WithCode(errors.CodeNotFound, err)
	}

	kind := analysis.TestKind(params["kind"])
	if kind == "" {
		kind = analysis.TestMean
	}
	alpha := 0.05
	if v, ok := params["alpha"]; ok {
		if alpha, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, 0, errors.InvalidInput("alpha must be numeric")
		}
	}

	values := field.NumericValues()
	result, err := stats.HypothesisTest(kind, field.Name, values, alpha)
	if err != nil {
		return nil, 0, err
	}
	return analysis.NewHypothesis(result), len(values), nil
}

func runCorrelation(ds *dataset.Dataset, params map[string]string) (*analysis.Result, int, error) {
	x, y, err := ds.PairedValues(params["x"], params["y"])
	if err != nil {
		return nil, 0, errors.WithCode(errors.CodeInvalidInput, err)
	}
	result := stats.Correlation(params["x"], params["y"], x, y)
	return analysis.NewCorrelation(result), len(x), nil
}
