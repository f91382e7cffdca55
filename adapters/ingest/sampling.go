package ingest

// StrideSample reduces a column to at most cap values using fixed-stride
// systematic sampling: stride = floor(N / cap), take every stride-th
// value until cap is reached. Sampling is deliberately not random so two
// runs over the same input inspect the same subset.
func StrideSample(values []string, cap int) []string {
	if cap <= 0 || len(values) <= cap {
		return values
	}

	stride := len(values) / cap
	if stride < 1 {
		stride = 1
	}

	sampled := make([]string, 0, cap)
	for i := 0; i < len(values) && len(sampled) < cap; i += stride {
		sampled = append(sampled, values[i])
	}
	return sampled
}
