// Package table is the in-memory tabular result exchanged with a Connection:
// an ordered list of named, typed columns of equal length.
//
// Values are stored normalized: every integer is an int64, every float a
// float64, text a string, and SQL NULL a nil.
package table

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Type is the logical type of a column.
type Type int

const (
	Unknown Type = iota
	Int64
	Float64
	String
	Bool
	Bytes
	Time
)

var typeNames = [...]string{"unknown", "int64", "float64", "string", "bool", "bytes", "time"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Scalar lists the Go types accepted by Col.
type Scalar interface {
	int | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 |
		float32 | float64 | string | bool | []byte | time.Time
}

// Series is one named column.
type Series struct {
	Name   string
	Type   Type
	Values []any
}

// Len returns the number of values in the column.
func (s Series) Len() int { return len(s.Values) }

// Col builds a typed column from Go values.
func Col[T Scalar](name string, values ...T) Series {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = any(v)
	}
	return NewSeries(name, vals)
}

// NewSeries builds a column from loosely typed values, nil standing for NULL.
// The column type is inferred from the non-nil values.
func NewSeries(name string, values []any) Series {
	typ := infer(values)
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = coerce(v, typ)
	}
	return Series{Name: name, Type: typ, Values: vals}
}

// Table is an immutable ordered set of equally long columns.
type Table struct {
	cols  []Series
	index map[string]int
	rows  int
}

// New assembles a table. Column names must be non-empty and unique and every
// column must have the same length.
func New(cols ...Series) (*Table, error) {
	t := &Table{cols: make([]Series, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("table: column %d has no name", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		if i > 0 && c.Len() != t.rows {
			return nil, fmt.Errorf("table: column %q has %d values, expected %d", c.Name, c.Len(), t.rows)
		}
		t.rows = c.Len()
		t.index[c.Name] = i
		t.cols[i] = c
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for literals in tests and examples.
func MustNew(cols ...Series) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return t.rows == 0 }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; the values are shared.
func (t *Table) Columns() []Series {
	return append([]Series(nil), t.cols...)
}

// Column looks a column up by name.
func (t *Table) Column(name string) (Series, bool) {
	i, ok := t.index[name]
	if !ok {
		return Series{}, false
	}
	return t.cols[i], true
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	if i < 0 || i >= t.rows {
		panic(fmt.Sprintf("table: row %d out of range [0,%d)", i, t.rows))
	}
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Rows returns every row in order.
func (t *Table) Rows() [][]any {
	rows := make([][]any, t.rows)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Value returns the cell at row i of the named column.
func (t *Table) Value(i int, column string) (any, bool) {
	c, ok := t.Column(column)
	if !ok || i < 0 || i >= t.rows {
		return nil, false
	}
	return c.Values[i], true
}

// infer picks the column type shared by the non-nil values. Integers mixed
// with floats widen to Float64; any other mix is Unknown.
func infer(values []any) Type {
	typ := Unknown
	for _, v := range values {
		if v == nil {
			continue
		}
		vt := typeOf(v)
		switch {
		case typ == Unknown:
			typ = vt
		case typ == vt:
		case typ == Int64 && vt == Float64, typ == Float64 && vt == Int64:
			typ = Float64
		default:
			return Unknown
		}
	}
	return typ
}

func typeOf(v any) Type {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return Int64
	case float32, float64:
		return Float64
	case string:
		return String
	case bool:
		return Bool
	case []byte:
		return Bytes
	case time.Time:
		return Time
	}
	return Unknown
}

// coerce converts v to the canonical Go type of typ. Values that do not
// convert are kept as they are.
func coerce(v any, typ Type) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		if typ == Bytes || typ == Unknown {
			return append([]byte(nil), b...)
		}
		v = string(b)
	}
	var (
		out any
		err error
	)
	switch typ {
	case Int64:
		out, err = cast.ToInt64E(v)
	case Float64:
		out, err = cast.ToFloat64E(v)
	case String:
		out, err = cast.ToStringE(v)
	case Bool:
		out, err = cast.ToBoolE(v)
	case Time:
		if _, ok := v.(time.Time); ok {
			return v
		}
		out, err = cast.ToTimeE(v)
	default:
		if typeOf(v) == Int64 {
			return cast.ToInt64(v)
		}
		if f, ok := v.(float32); ok {
			return float64(f)
		}
		return v
	}
	if err != nil {
		return v
	}
	return out
}
