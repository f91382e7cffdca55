package cache

import (
	"datalens/domain/core"
	"datalens/domain/dataset"
)

// QueryKey derives the cache key for one analysis query: the dataset
// fingerprint (field names, types and value content) combined with the
// operation and the canonicalized parameter map. Two analyses of
// identical data and identical parameters share one key regardless of
// object identity or parameter iteration order.
func QueryKey(ds *dataset.Dataset, operation string, params map[string]string) string {
	d := core.NewDigest()
	d.WriteString(ds.Fingerprint().String())
	d.WriteString(operation)
	d.WriteString(core.FingerprintMap(params).String())
	return "query:" + d.Sum().String()
}

// DatasetTag returns the invalidation tag covering every cached result
// derived from one dataset.
func DatasetTag(ds *dataset.Dataset) string {
	return "dataset:" + ds.Fingerprint().String()
}

// SourceKey derives the cache key for a parsed source file, letting
// ingestion skip reparsing identical bytes.
func SourceKey(contentHash core.Fingerprint) string {
	return "source:" + contentHash.String()
}
