package testkit

import (
	"fmt"
	"math/rand"
	"strings"
)

// TestKit generates deterministic fixtures for ingestion and analysis
// tests. Every generator takes an explicit seed so runs are repeatable.
type TestKit struct{}

// NewTestKit creates a test kit instance.
func NewTestKit() *TestKit {
	return &TestKit{}
}

// CSV renders a header plus rows as CSV text.
func (k *TestKit) CSV(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// LinearCSV generates n rows of x and y where y = slope*x + intercept
// exactly, with x running 1..n.
func (k *TestKit) LinearCSV(n int, slope, intercept float64) string {
	header := []string{"x", "y"}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		rows[i] = []string{
			fmt.Sprintf("%g", x),
			fmt.Sprintf("%g", slope*x+intercept),
		}
	}
	return k.CSV(header, rows)
}

// NoisySeries generates n values around mean with the given spread using
// a seeded source.
func (k *TestKit) NoisySeries(seed int64, n int, mean, spread float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + rng.NormFloat64()*spread
	}
	return out
}

// TrendingSeries generates n values rising linearly from start by step,
// with seeded noise layered on top.
func (k *TestKit) TrendingSeries(seed int64, n int, start, step, noise float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i) + rng.NormFloat64()*noise
	}
	return out
}

// ConstantSeries generates n copies of v.
func (k *TestKit) ConstantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// MixedTypeCSV generates a file exercising every inferred type: a
// numeric column, a date column, a boolean column, a text column and an
// email column.
func (k *TestKit) MixedTypeCSV(n int) string {
	header := []string{"amount", "day", "active", "label", "contact"}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{
			fmt.Sprintf("%d.5", i+1),
			fmt.Sprintf("2024-01-%02d", i%28+1),
			[]string{"true", "false"}[i%2],
			fmt.Sprintf("item-%d", i),
			fmt.Sprintf("user%d@example.com", i),
		}
	}
	return k.CSV(header, rows)
}

// SeriesCSV renders a single named column of floats.
func (k *TestKit) SeriesCSV(name string, values []float64) string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{fmt.Sprintf("%g", v)}
	}
	return k.CSV([]string{name}, rows)
}
