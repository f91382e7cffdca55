package report

import (
	"fmt"
	"strings"

	"datalens/domain/analysis"
	"datalens/domain/dataset"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown builds a human-readable analysis report for one dataset and a
// set of results.
func Markdown(ds *dataset.Dataset, results []*analysis.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis report: %s\n\n", ds.Name())
	fmt.Fprintf(&b, "%d rows, %d fields. Fingerprint `%s`.\n\n", ds.RowCount(), ds.FieldCount(), ds.Fingerprint())

	b.WriteString("## Fields\n\n")
	b.WriteString("| Field | Type | Mean | Null % |\n|---|---|---|---|\n")
	for _, f := range ds.Fields() {
		mean, nulls := "–", "–"
		if f.Stats != nil {
			mean = fmt.Sprintf("%.4g", f.Stats.Mean)
			nulls = fmt.Sprintf("%.1f%%", f.Stats.NullPercentage)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.Name, f.Type, mean, nulls)
	}
	b.WriteString("\n")

	for _, r := range results {
		writeResult(&b, r)
	}
	return b.String()
}

func writeResult(b *strings.Builder, r *analysis.Result) {
	switch r.Kind {
	case analysis.KindDescriptive:
		d := r.Descriptive
		fmt.Fprintf(b, "## Descriptive: %s\n\n", d.FieldName)
		fmt.Fprintf(b, "mean %.4g, median %.4g, sd %.4g, range [%.4g, %.4g], trend **%s** over %d values.\n\n",
			d.Mean, d.Median, d.StdDev, d.Min, d.Max, d.Trend, d.Count)
	case analysis.KindRegression:
		reg := r.Regression
		fmt.Fprintf(b, "## Regression (%s): %s ~ %s\n\n", reg.Kind, reg.YField, reg.XField)
		fmt.Fprintf(b, "- intercept %.6g, slope %.6g\n", reg.Intercept(), reg.Slope())
		fmt.Fprintf(b, "- R² %.4f, adjusted R² %.4f\n", reg.RSquared, reg.AdjRSquared)
		fmt.Fprintf(b, "- F = %.4g (p = %.4g), AIC %.4g, BIC %.4g\n", reg.FStatistic, reg.FPValue, reg.AIC, reg.BIC)
		fmt.Fprintf(b, "- n = %d\n\n", reg.SampleSize)
	case analysis.KindHypothesis:
		h := r.Hypothesis
		fmt.Fprintf(b, "## Hypothesis test (%s): %s\n\n", h.Kind, h.FieldName)
		fmt.Fprintf(b, "- statistic %.4g, p = %.4g (α = %.3g, critical %.4g)\n", h.Statistic, h.PValue, h.Alpha, h.CriticalValue)
		fmt.Fprintf(b, "- effect size %.4g, power %.3f\n", h.EffectSize, h.Power)
		fmt.Fprintf(b, "- **%s**\n\n", h.Conclusion)
	case analysis.KindCorrelation:
		c := r.Correlation
		fmt.Fprintf(b, "## Correlation: %s vs %s\n\n", c.XField, c.YField)
		fmt.Fprintf(b, "r = %.4f (p = %.4g) over %d pairs.\n\n", c.Coefficient, c.PValue, c.SampleSize)
	}
}

// HTML renders the markdown report to an HTML fragment.
func HTML(ds *dataset.Dataset, results []*analysis.Result) []byte {
	md := Markdown(ds, results)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
