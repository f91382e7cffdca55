package infer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"datalens/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Engine decides a semantic type for a column of raw values and computes
// summary statistics in one pass over the accumulated column. The decision
// is a deterministic majority vote, not a probabilistic classification:
// there is no tunable confidence threshold here.
type Engine struct {
	dateFormats []string
}

// NewEngine creates an inference engine with the default date formats.
func NewEngine() *Engine {
	return &Engine{
		dateFormats: []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"01/02/2006",
			"2006/01/02",
			"02-Jan-2006",
		},
	}
}

// Spreadsheet date-serial heuristic window. Integer values inside this
// window are treated as workbook date serials (days since 1899-12-30);
// the window covers roughly 1954 through 2064.
const (
	serialEpochMin = 20000
	serialEpochMax = 60000
)

// valueVote is the per-value classification. First match wins:
// number, then date, then boolean, then string.
type valueVote int

const (
	voteNull valueVote = iota
	voteNumber
	voteDate
	voteBoolean
	voteString
)

// Infer decides the column type by majority vote and attaches numeric
// summary statistics when the winner is number. Nulls and empty strings
// are excluded from voting but counted toward NullPercentage. Infer never
// returns an error: unclassifiable input degrades to string.
func (e *Engine) Infer(values []string) (dataset.FieldType, dataset.Column, *dataset.FieldStats) {
	return e.InferSampled(values, values)
}

// InferSampled votes on sample, a deterministic subset of values chosen
// by the caller, then converts the full column. Summary statistics always
// cover every row regardless of the sample.
func (e *Engine) InferSampled(values, sample []string) (dataset.FieldType, dataset.Column, *dataset.FieldStats) {
	fieldType := e.decide(sample)
	col := e.buildColumn(fieldType, values)

	var fs *dataset.FieldStats
	if fieldType == dataset.TypeNumber {
		fs = e.numericStats(col.(*dataset.NumericColumn), values)
	}
	return fieldType, col, fs
}

func (e *Engine) decide(sample []string) dataset.FieldType {
	var counts [5]int
	for _, raw := range sample {
		counts[e.classify(raw)]++
	}

	voted := len(sample) - counts[voteNull]
	fieldType := dataset.TypeString
	if voted > 0 {
		// Majority vote with a fixed precedence on ties: numeric
		// values win against numeric-looking strings, dates against
		// date-looking strings, and so on.
		best := counts[voteNumber]
		fieldType = dataset.TypeNumber
		if counts[voteDate] > best {
			best = counts[voteDate]
			fieldType = dataset.TypeDate
		}
		if counts[voteBoolean] > best {
			best = counts[voteBoolean]
			fieldType = dataset.TypeBoolean
		}
		if counts[voteString] > best {
			fieldType = dataset.TypeString
		}
	}
	return fieldType
}

func (e *Engine) classify(raw string) valueVote {
	v := strings.TrimSpace(raw)
	if v == "" {
		return voteNull
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		if isDateSerial(f) {
			return voteDate
		}
		return voteNumber
	}
	if e.parseDate(v) != nil {
		return voteDate
	}
	if _, ok := parseBoolean(v); ok {
		return voteBoolean
	}
	return voteString
}

func isDateSerial(f float64) bool {
	return f == math.Trunc(f) && f >= serialEpochMin && f <= serialEpochMax
}

// serialEpoch is the workbook day-zero (the 1900 leap-year bug included).
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func serialToDate(f float64) time.Time {
	return serialEpoch.Add(time.Duration(f * 24 * float64(time.Hour)))
}

func (e *Engine) parseDate(v string) *time.Time {
	for _, format := range e.dateFormats {
		if t, err := time.Parse(format, v); err == nil {
			return &t
		}
	}
	return nil
}

func parseBoolean(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// buildColumn fixes the tagged column variant for the decided type so
// downstream code never re-probes individual values.
func (e *Engine) buildColumn(t dataset.FieldType, values []string) dataset.Column {
	n := len(values)
	switch t {
	case dataset.TypeNumber:
		col := &dataset.NumericColumn{Values: make([]float64, n), Valid: make([]bool, n)}
		for i, raw := range values {
			v := strings.TrimSpace(raw)
			if v == "" {
				continue
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
				col.Values[i] = f
				col.Valid[i] = true
			}
		}
		return col
	case dataset.TypeDate:
		col := &dataset.DateColumn{Values: make([]time.Time, n), Valid: make([]bool, n)}
		for i, raw := range values {
			v := strings.TrimSpace(raw)
			if v == "" {
				continue
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil && isDateSerial(f) {
				col.Values[i] = serialToDate(f)
				col.Valid[i] = true
				continue
			}
			if t := e.parseDate(v); t != nil {
				col.Values[i] = *t
				col.Valid[i] = true
			}
		}
		return col
	case dataset.TypeBoolean:
		col := &dataset.BooleanColumn{Values: make([]bool, n), Valid: make([]bool, n)}
		for i, raw := range values {
			if b, ok := parseBoolean(raw); ok {
				col.Values[i] = b
				col.Valid[i] = true
			}
		}
		return col
	default:
		col := &dataset.TextColumn{Values: make([]string, n)}
		for i, raw := range values {
			col.Values[i] = strings.TrimSpace(raw)
		}
		return col
	}
}

// numericStats computes the descriptive summary for a numeric column.
// StdDev here is the population standard deviation (divide by N), the
// descriptive-path convention; the hypothesis-testing path uses N-1.
// Nulls are counted over the full raw column, not any inference sample.
func (e *Engine) numericStats(col *dataset.NumericColumn, raw []string) *dataset.FieldStats {
	total := len(raw)
	nulls := 0
	for _, v := range raw {
		if strings.TrimSpace(v) == "" {
			nulls++
		}
	}

	var values []float64
	for i, v := range col.Values {
		if col.Valid[i] {
			values = append(values, v)
		}
	}

	fs := &dataset.FieldStats{
		Mean:   math.NaN(),
		Median: math.NaN(),
		Min:    math.NaN(),
		Max:    math.NaN(),
		StdDev: math.NaN(),
	}
	if total > 0 {
		fs.NullPercentage = float64(nulls) / float64(total) * 100
	}
	if len(values) == 0 {
		return fs
	}

	fs.Mean, _ = stats.Mean(values)
	fs.Median, _ = stats.Median(values)
	fs.Min, _ = stats.Min(values)
	fs.Max, _ = stats.Max(values)
	popVar, _ := stats.PopulationVariance(values)
	fs.StdDev = math.Sqrt(popVar)
	return fs
}
