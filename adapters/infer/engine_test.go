package infer

import (
	"math"
	"testing"

	"datalens/domain/dataset"
)

func TestEngine_Infer_NumericMajority(t *testing.T) {
	engine := NewEngine()

	values := []string{"1.5", "2", "-3.25", "oops", "4"}
	fieldType, col, fs := engine.Infer(values)

	if fieldType != dataset.TypeNumber {
		t.Fatalf("expected number, got %s", fieldType)
	}
	nc, ok := col.(*dataset.NumericColumn)
	if !ok {
		t.Fatalf("expected NumericColumn, got %T", col)
	}
	if nc.Len() != 5 {
		t.Errorf("column length %d, want 5", nc.Len())
	}
	if nc.Valid[3] {
		t.Error("unparseable value should be invalid in the typed column")
	}
	if fs == nil {
		t.Fatal("numeric field should carry stats")
	}
	if fs.Min != -3.25 || fs.Max != 4 {
		t.Errorf("min/max = %g/%g, want -3.25/4", fs.Min, fs.Max)
	}
}

func TestEngine_Infer_NumericWinsTies(t *testing.T) {
	engine := NewEngine()

	// Two numeric values, two string values: the tie goes numeric.
	fieldType, _, _ := engine.Infer([]string{"1", "2", "alpha", "beta"})
	if fieldType != dataset.TypeNumber {
		t.Fatalf("tie should resolve to number, got %s", fieldType)
	}
}

func TestEngine_Infer_StringMajority(t *testing.T) {
	engine := NewEngine()

	fieldType, col, fs := engine.Infer([]string{"1", "alpha", "beta", "gamma"})
	if fieldType != dataset.TypeString {
		t.Fatalf("expected string, got %s", fieldType)
	}
	if _, ok := col.(*dataset.TextColumn); !ok {
		t.Fatalf("expected TextColumn, got %T", col)
	}
	if fs != nil {
		t.Error("non-numeric field should not carry numeric stats")
	}
}

func TestEngine_Infer_BooleanColumn(t *testing.T) {
	engine := NewEngine()

	fieldType, col, _ := engine.Infer([]string{"true", "FALSE", "yes", "no", "true"})
	if fieldType != dataset.TypeBoolean {
		t.Fatalf("expected boolean, got %s", fieldType)
	}
	if _, ok := col.(*dataset.BooleanColumn); !ok {
		t.Fatalf("expected BooleanColumn, got %T", col)
	}
}

func TestEngine_Infer_ZeroOneStaysNumeric(t *testing.T) {
	engine := NewEngine()

	// 0/1 columns parse as numbers before the boolean check runs.
	fieldType, _, _ := engine.Infer([]string{"0", "1", "1", "0"})
	if fieldType != dataset.TypeNumber {
		t.Fatalf("0/1 column should vote number, got %s", fieldType)
	}
}

func TestEngine_Infer_DateFormats(t *testing.T) {
	engine := NewEngine()

	fieldType, col, _ := engine.Infer([]string{
		"2024-01-15",
		"2024-02-20",
		"03/01/2024",
		"2024-03-05T10:00:00Z",
	})
	if fieldType != dataset.TypeDate {
		t.Fatalf("expected date, got %s", fieldType)
	}
	dc, ok := col.(*dataset.DateColumn)
	if !ok {
		t.Fatalf("expected DateColumn, got %T", col)
	}
	if dc.Values[0].Year() != 2024 || dc.Values[0].Month() != 1 || dc.Values[0].Day() != 15 {
		t.Errorf("first value parsed as %v", dc.Values[0])
	}
}

func TestEngine_Infer_DateSerialWindow(t *testing.T) {
	engine := NewEngine()

	// 45000 days after 1899-12-30 lands in early 2023.
	fieldType, col, _ := engine.Infer([]string{"45000", "45001", "45002"})
	if fieldType != dataset.TypeDate {
		t.Fatalf("in-window serials should vote date, got %s", fieldType)
	}
	dc := col.(*dataset.DateColumn)
	if dc.Values[0].Year() != 2023 {
		t.Errorf("serial 45000 parsed to year %d, want 2023", dc.Values[0].Year())
	}

	// Just outside the window on both sides stays numeric.
	for _, v := range []string{"19999", "60001"} {
		fieldType, _, _ := engine.Infer([]string{v, v, v})
		if fieldType != dataset.TypeNumber {
			t.Errorf("out-of-window value %s voted %s, want number", v, fieldType)
		}
	}
}

func TestEngine_Infer_NullHandling(t *testing.T) {
	engine := NewEngine()

	fieldType, _, fs := engine.Infer([]string{"1", "", "3", "  ", "5"})
	if fieldType != dataset.TypeNumber {
		t.Fatalf("expected number, got %s", fieldType)
	}
	if fs.NullPercentage != 40 {
		t.Errorf("null percentage %g, want 40", fs.NullPercentage)
	}
	if fs.Mean != 3 {
		t.Errorf("mean %g, want 3 (nulls excluded)", fs.Mean)
	}
}

func TestEngine_Infer_AllEmpty(t *testing.T) {
	engine := NewEngine()

	fieldType, _, fs := engine.Infer([]string{"", "", ""})
	if fieldType != dataset.TypeString {
		t.Fatalf("all-null column should degrade to string, got %s", fieldType)
	}
	if fs != nil {
		t.Error("all-null column should carry no stats")
	}
}

func TestEngine_Infer_Idempotent(t *testing.T) {
	engine := NewEngine()
	values := []string{"1.5", "x", "2024-01-01", "7", "42", ""}

	t1, _, s1 := engine.Infer(values)
	t2, _, s2 := engine.Infer(values)
	if t1 != t2 {
		t.Fatalf("same input voted %s then %s", t1, t2)
	}
	if (s1 == nil) != (s2 == nil) {
		t.Fatal("stats presence differs across runs")
	}
	if s1 != nil && (s1.Mean != s2.Mean || s1.StdDev != s2.StdDev) {
		t.Error("stats differ across runs on identical input")
	}
}

func TestEngine_NumericStats_PopulationVariance(t *testing.T) {
	engine := NewEngine()

	_, _, fs := engine.Infer([]string{"2", "4", "4", "4", "5", "5", "7", "9"})
	// Population standard deviation of this classic series is exactly 2.
	if math.Abs(fs.StdDev-2) > 1e-12 {
		t.Errorf("population stddev %g, want 2", fs.StdDev)
	}
}

func TestPatternClassifier_Email(t *testing.T) {
	c := NewPatternClassifier(100)

	values := []string{
		"a@example.com", "b@example.org", "c@test.io",
		"d@example.com", "not-an-email",
	}
	hint := c.Classify(values)
	if hint == nil {
		t.Fatal("80% emails should clear the threshold")
	}
	if hint.Pattern != "email" || hint.Confidence != 1.0 {
		t.Errorf("hint = %+v, want email at 1.0", hint)
	}
}

func TestPatternClassifier_BelowThreshold(t *testing.T) {
	c := NewPatternClassifier(100)

	values := []string{"a@example.com", "plain words here", "more words", "even more words"}
	if hint := c.Classify(values); hint != nil {
		t.Errorf("25%% match should report nothing, got %+v", hint)
	}
}

func TestPatternClassifier_Precedence(t *testing.T) {
	c := NewPatternClassifier(100)

	// Plain tokens match the identifier fallback at 0.8 confidence.
	values := []string{"ORD-1001", "ORD-1002", "ORD-1003", "ORD-1004"}
	hint := c.Classify(values)
	if hint == nil || hint.Pattern != "identifier" {
		t.Fatalf("hint = %+v, want identifier", hint)
	}
	if hint.Confidence != 0.8 {
		t.Errorf("identifier confidence %g, want 0.8", hint.Confidence)
	}

	urls := []string{"https://a.example", "https://b.example", "http://c.example", "https://d.example"}
	hint = c.Classify(urls)
	if hint == nil || hint.Pattern != "url" {
		t.Fatalf("hint = %+v, want url", hint)
	}
}

func TestPatternClassifier_DeterministicSample(t *testing.T) {
	c := NewPatternClassifier(10)

	values := make([]string, 200)
	for i := range values {
		values[i] = "id_" + string(rune('a'+i%26)) + "000"
	}
	h1 := c.Classify(values)
	h2 := c.Classify(values)
	if (h1 == nil) != (h2 == nil) {
		t.Fatal("sampled classification should be deterministic")
	}
	if h1 != nil && h1.Pattern != h2.Pattern {
		t.Errorf("pattern differs across runs: %s vs %s", h1.Pattern, h2.Pattern)
	}
}

func TestEngine_InferSampled_ConvertsFullColumn(t *testing.T) {
	engine := NewEngine()

	// The sample is all numeric, the tail is not: the vote follows the
	// sample while conversion and statistics cover every value.
	values := []string{"1", "2", "x", "y", "z", "w"}
	fieldType, col, fs := engine.InferSampled(values, values[:2])

	if fieldType != dataset.TypeNumber {
		t.Fatalf("type = %s, want number", fieldType)
	}
	nc, ok := col.(*dataset.NumericColumn)
	if !ok {
		t.Fatalf("column type %T, want NumericColumn", col)
	}
	if len(nc.Values) != len(values) {
		t.Fatalf("column length %d, want %d", len(nc.Values), len(values))
	}
	valid := 0
	for _, v := range nc.Valid {
		if v {
			valid++
		}
	}
	if valid != 2 {
		t.Errorf("valid values = %d, want 2", valid)
	}
	if fs == nil || fs.Mean != 1.5 {
		t.Errorf("stats from full column: %+v, want mean 1.5", fs)
	}
	if fs.NullPercentage != 0 {
		t.Errorf("null percentage %g, want 0", fs.NullPercentage)
	}
}
