package dataset

import (
	"fmt"
	"math"

	"datalens/domain/core"
)

// FieldType is the semantic type assigned to a field by inference.
// It is immutable once set and determines which operations are legal.
type FieldType string

const (
	TypeNumber  FieldType = "number"
	TypeString  FieldType = "string"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
)

// FieldStats holds summary statistics for a numeric field.
// StdDev uses population variance (divide by N): this is the descriptive
// path convention, distinct from the N-1 divisor in the hypothesis path.
type FieldStats struct {
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	StdDev         float64 `json:"standard_deviation"`
	NullPercentage float64 `json:"null_percentage"`
}

// PatternHint is advisory metadata from the secondary pattern classifier
// (email/url/phone/identifier). It never affects the field type.
type PatternHint struct {
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
}

// Field is one typed column of a dataset. Raw preserves the source values
// index-aligned with every other field; Column is the typed view fixed at
// inference time.
type Field struct {
	Name    string       `json:"name"`
	Type    FieldType    `json:"type"`
	Raw     []string     `json:"-"`
	Column  Column       `json:"-"`
	Stats   *FieldStats  `json:"stats,omitempty"`
	Pattern *PatternHint `json:"pattern,omitempty"`
}

// NumericValues returns the field's finite numeric values with nulls and
// unparseable entries removed. Empty for non-numeric fields.
func (f *Field) NumericValues() []float64 {
	col, ok := f.Column.(*NumericColumn)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(col.Values))
	for i, v := range col.Values {
		if col.Valid[i] && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an immutable ordered collection of fields sharing one row
// count. A new analysis on modified data produces a new Dataset.
type Dataset struct {
	id          core.DatasetID
	name        string
	fields      []Field
	rowCount    int
	fingerprint core.Fingerprint
	createdAt   core.Timestamp
}

// New constructs a Dataset after validating the equal-length invariant.
func New(name string, fields []Field) (*Dataset, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("dataset requires at least one field")
	}
	rows := len(fields[0].Raw)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f.Raw) != rows {
			return nil, fmt.Errorf("field %q has %d values, expected %d", f.Name, len(f.Raw), rows)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
	}

	ds := &Dataset{
		id:        core.DatasetID(core.NewID()),
		name:      name,
		fields:    fields,
		rowCount:  rows,
		createdAt: core.Now(),
	}
	ds.fingerprint = computeFingerprint(fields)
	return ds, nil
}

// computeFingerprint derives a deterministic hash from field names, types,
// and value content. Object identity never participates.
func computeFingerprint(fields []Field) core.Fingerprint {
	d := core.NewDigest()
	for _, f := range fields {
		d.WriteString(f.Name)
		d.WriteString(string(f.Type))
		d.WriteInt(len(f.Raw))
		for _, v := range f.Raw {
			d.WriteString(v)
		}
	}
	return d.Sum()
}

// ID returns the dataset identifier.
func (d *Dataset) ID() core.DatasetID { return d.id }

// Name returns the dataset's display name (typically the source filename).
func (d *Dataset) Name() string { return d.name }

// RowCount returns the shared row count across all fields.
func (d *Dataset) RowCount() int { return d.rowCount }

// FieldCount returns the number of fields.
func (d *Dataset) FieldCount() int { return len(d.fields) }

// CreatedAt returns the ingestion completion time.
func (d *Dataset) CreatedAt() core.Timestamp { return d.createdAt }

// Fingerprint returns the content-derived cache key component.
func (d *Dataset) Fingerprint() core.Fingerprint { return d.fingerprint }

// Fields returns a copy of the field slice. The fields themselves are
// shared; callers must not mutate them.
func (d *Dataset) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// FieldNames returns the field names in column order.
func (d *Dataset) FieldNames() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (d *Dataset) Field(name string) (*Field, error) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			return &d.fields[i], nil
		}
	}
	return nil, core.NewFieldNotFoundError(name)
}

// FeatureMatrix extracts the named numeric fields as a rectangular,
// finite-only matrix for downstream consumers. Rows containing a null or
// non-finite value in any requested field are dropped; if a requested
// field is not numeric the handoff fails upstream instead of passing
// malformed data along.
func (d *Dataset) FeatureMatrix(fieldNames []string) ([][]float64, error) {
	cols := make([]*NumericColumn, len(fieldNames))
	for i, name := range fieldNames {
		f, err := d.Field(name)
		if err != nil {
			return nil, err
		}
		col, ok := f.Column.(*NumericColumn)
		if !ok {
			return nil, fmt.Errorf("field %q is %s, not numeric", name, f.Type)
		}
		cols[i] = col
	}

	matrix := make([][]float64, 0, d.rowCount)
	for r := 0; r < d.rowCount; r++ {
		row := make([]float64, len(cols))
		keep := true
		for c, col := range cols {
			v := col.Values[r]
			if !col.Valid[r] || math.IsNaN(v) || math.IsInf(v, 0) {
				keep = false
				break
			}
			row[c] = v
		}
		if keep {
			matrix = append(matrix, row)
		}
	}
	if len(matrix) == 0 {
		return nil, core.NewInsufficientDataError(0, 1)
	}
	return matrix, nil
}

// PairedValues extracts index-aligned numeric pairs from two fields,
// dropping rows where either side is null or non-finite.
func (d *Dataset) PairedValues(xField, yField string) (x, y []float64, err error) {
	fx, err := d.Field(xField)
	if err != nil {
		return nil, nil, err
	}
	fy, err := d.Field(yField)
	if err != nil {
		return nil, nil, err
	}
	cx, okx := fx.Column.(*NumericColumn)
	cy, oky := fy.Column.(*NumericColumn)
	if !okx || !oky {
		return nil, nil, fmt.Errorf("paired extraction requires numeric fields, got %s/%s", fx.Type, fy.Type)
	}
	for i := 0; i < d.rowCount; i++ {
		if !cx.Valid[i] || !cy.Valid[i] {
			continue
		}
		vx, vy := cx.Values[i], cy.Values[i]
		if math.IsNaN(vx) || math.IsInf(vx, 0) || math.IsNaN(vy) || math.IsInf(vy, 0) {
			continue
		}
		x = append(x, vx)
		y = append(y, vy)
	}
	return x, y, nil
}
