package infer

import (
	"regexp"
	"strings"

	"datalens/domain/dataset"
)

// PatternClassifier is the secondary, advisory classification layer. It
// tags string columns that look like emails, URLs, phone numbers or
// identifiers. Unlike the type vote, this layer is explicitly graded: each
// pattern carries a fixed confidence, and a pattern is only reported when
// at least 80% of a sampled subset matches. The result is metadata only
// and never changes the field type.
type PatternClassifier struct {
	sampleSize int
}

// NewPatternClassifier creates a classifier that inspects at most
// sampleSize values per column.
func NewPatternClassifier(sampleSize int) *PatternClassifier {
	if sampleSize <= 0 {
		sampleSize = 100
	}
	return &PatternClassifier{sampleSize: sampleSize}
}

const majorityThreshold = 0.8

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	urlPattern   = regexp.MustCompile(`^https?://\S+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s().-]{7,20}$`)
	idPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{4,64}$`)
)

// candidate order matters: more specific patterns carry higher confidence
// and are checked first.
var candidates = []struct {
	name       string
	confidence float64
	re         *regexp.Regexp
}{
	{"email", 1.0, emailPattern},
	{"url", 1.0, urlPattern},
	{"phone", 0.9, phonePattern},
	{"identifier", 0.8, idPattern},
}

// Classify samples the column and returns an advisory hint, or nil when no
// pattern clears the 80% majority threshold. It never returns an error.
func (c *PatternClassifier) Classify(values []string) *dataset.PatternHint {
	sample := c.sample(values)
	if len(sample) == 0 {
		return nil
	}

	for _, cand := range candidates {
		matched := 0
		for _, v := range sample {
			if cand.re.MatchString(v) {
				matched++
			}
		}
		if float64(matched)/float64(len(sample)) >= majorityThreshold {
			return &dataset.PatternHint{Pattern: cand.name, Confidence: cand.confidence}
		}
	}
	return nil
}

// sample takes non-empty values at a fixed stride so two runs over the
// same column inspect the same subset.
func (c *PatternClassifier) sample(values []string) []string {
	var nonEmpty []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) <= c.sampleSize {
		return nonEmpty
	}

	stride := len(nonEmpty) / c.sampleSize
	sample := make([]string, 0, c.sampleSize)
	for i := 0; i < len(nonEmpty) && len(sample) < c.sampleSize; i += stride {
		sample = append(sample, nonEmpty[i])
	}
	return sample
}
