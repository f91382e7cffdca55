package cache

import (
	"strings"
	"testing"

	"datalens/domain/dataset"
)

func keyDataset(t *testing.T, raw []string) *dataset.Dataset {
	t.Helper()
	values := make([]float64, len(raw))
	valid := make([]bool, len(raw))
	for i := range raw {
		values[i] = float64(i)
		valid[i] = true
	}
	ds, err := dataset.New("d", []dataset.Field{{
		Name:   "a",
		Type:   dataset.TypeNumber,
		Raw:    raw,
		Column: &dataset.NumericColumn{Values: values, Valid: valid},
	}})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func TestQueryKey_ParamOrderIrrelevant(t *testing.T) {
	ds := keyDataset(t, []string{"1", "2", "3"})

	k1 := QueryKey(ds, "regression", map[string]string{"x": "a", "y": "b", "kind": "linear"})
	k2 := QueryKey(ds, "regression", map[string]string{"kind": "linear", "y": "b", "x": "a"})
	if k1 != k2 {
		t.Error("parameter map order must not change the key")
	}
}

func TestQueryKey_ContentIdentity(t *testing.T) {
	d1 := keyDataset(t, []string{"1", "2", "3"})
	d2 := keyDataset(t, []string{"1", "2", "3"})
	d3 := keyDataset(t, []string{"1", "2", "4"})

	params := map[string]string{"field": "a"}
	if QueryKey(d1, "descriptive", params) != QueryKey(d2, "descriptive", params) {
		t.Error("identical content in distinct objects must share one key")
	}
	if QueryKey(d1, "descriptive", params) == QueryKey(d3, "descriptive", params) {
		t.Error("different content must change the key")
	}
}

func TestQueryKey_DiscriminatesOperationAndParams(t *testing.T) {
	ds := keyDataset(t, []string{"1", "2"})

	base := QueryKey(ds, "descriptive", map[string]string{"field": "a"})
	if base == QueryKey(ds, "hypothesis", map[string]string{"field": "a"}) {
		t.Error("operation must participate in the key")
	}
	if base == QueryKey(ds, "descriptive", map[string]string{"field": "b"}) {
		t.Error("parameters must participate in the key")
	}
	if !strings.HasPrefix(base, "query:") {
		t.Errorf("key %q missing namespace prefix", base)
	}
}

func TestDatasetTag_TracksFingerprint(t *testing.T) {
	d1 := keyDataset(t, []string{"1"})
	d2 := keyDataset(t, []string{"1"})

	if DatasetTag(d1) != DatasetTag(d2) {
		t.Error("identical content must share one invalidation tag")
	}
	if !strings.HasPrefix(DatasetTag(d1), "dataset:") {
		t.Errorf("tag %q missing namespace prefix", DatasetTag(d1))
	}
}
