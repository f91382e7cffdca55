package dataset

import "time"

// Column is the typed view of a field's values, fixed at inference time.
// Each variant stores decoded values index-aligned with the field's raw
// sequence; Valid marks positions that decoded successfully (nulls and
// unparseable entries are invalid). Downstream code matches once on the
// variant instead of re-probing every value.
type Column interface {
	Type() FieldType
	Len() int
	// NullCount reports how many positions hold no usable value.
	NullCount() int
}

// NumericColumn holds float64 values for a number-typed field.
type NumericColumn struct {
	Values []float64
	Valid  []bool
}

func (c *NumericColumn) Type() FieldType { return TypeNumber }
func (c *NumericColumn) Len() int        { return len(c.Values) }
func (c *NumericColumn) NullCount() int  { return countInvalid(c.Valid) }

// TextColumn holds string values for a string-typed field. Empty strings
// count as nulls.
type TextColumn struct {
	Values []string
}

func (c *TextColumn) Type() FieldType { return TypeString }
func (c *TextColumn) Len() int        { return len(c.Values) }

func (c *TextColumn) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == "" {
			n++
		}
	}
	return n
}

// DateColumn holds decoded timestamps for a date-typed field.
type DateColumn struct {
	Values []time.Time
	Valid  []bool
}

func (c *DateColumn) Type() FieldType { return TypeDate }
func (c *DateColumn) Len() int        { return len(c.Values) }
func (c *DateColumn) NullCount() int  { return countInvalid(c.Valid) }

// BooleanColumn holds decoded booleans for a boolean-typed field.
type BooleanColumn struct {
	Values []bool
	Valid  []bool
}

func (c *BooleanColumn) Type() FieldType { return TypeBoolean }
func (c *BooleanColumn) Len() int        { return len(c.Values) }
func (c *BooleanColumn) NullCount() int  { return countInvalid(c.Valid) }

func countInvalid(valid []bool) int {
	n := 0
	for _, ok := range valid {
		if !ok {
			n++
		}
	}
	return n
}
