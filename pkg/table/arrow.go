package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cast"
)

var timestampUTC = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

func arrowType(t Type) arrow.DataType {
	switch t {
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case Bool:
		return arrow.FixedWidthTypes.Boolean
	case Bytes:
		return arrow.BinaryTypes.Binary
	case Time:
		return timestampUTC
	default:
		return arrow.BinaryTypes.String
	}
}

// Schema returns the Arrow schema matching the table's columns. Unknown
// columns are exported as strings.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrow copies the table into an Arrow record allocated from mem (nil means
// the Go allocator). The caller must Release the record.
func (t *Table) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	b := array.NewRecordBuilder(mem, t.Schema())
	defer b.Release()

	for i, c := range t.cols {
		fb := b.Field(i)
		for row, v := range c.Values {
			if v == nil {
				fb.AppendNull()
				continue
			}
			if err := appendValue(fb, v); err != nil {
				return nil, fmt.Errorf("table: column %q row %d: %w", c.Name, row, err)
			}
		}
	}
	return b.NewRecord(), nil
}

func appendValue(b array.Builder, v any) error {
	switch fb := b.(type) {
	case *array.Int64Builder:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		fb.Append(n)
	case *array.Float64Builder:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		fb.Append(f)
	case *array.BooleanBuilder:
		bv, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		fb.Append(bv)
	case *array.BinaryBuilder:
		bs, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("expected []byte, got %T", v)
		}
		fb.Append(bs)
	case *array.TimestampBuilder:
		ts, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", v)
		}
		fb.Append(arrow.Timestamp(ts.UnixMicro()))
	case *array.StringBuilder:
		s, err := cast.ToStringE(v)
		if err != nil {
			s = fmt.Sprint(v)
		}
		fb.Append(s)
	default:
		return fmt.Errorf("unsupported arrow builder %T", b)
	}
	return nil
}

// FromArrow copies an Arrow record into a table. Narrow integer and float
// columns are widened to Int64 and Float64.
func FromArrow(rec arrow.Record) (*Table, error) {
	cols := make([]Series, rec.NumCols())
	n := int(rec.NumRows())
	for i := range cols {
		name := rec.ColumnName(i)
		typ, vals, err := arrowValues(rec.Column(i), n)
		if err != nil {
			return nil, fmt.Errorf("table: column %q: %w", name, err)
		}
		cols[i] = Series{Name: name, Type: typ, Values: vals}
	}
	return New(cols...)
}

func arrowValues(col arrow.Array, n int) (Type, []any, error) {
	vals := make([]any, n)
	var typ Type
	var get func(i int) any
	switch a := col.(type) {
	case *array.Int64:
		typ, get = Int64, func(i int) any { return a.Value(i) }
	case *array.Int32:
		typ, get = Int64, func(i int) any { return int64(a.Value(i)) }
	case *array.Int16:
		typ, get = Int64, func(i int) any { return int64(a.Value(i)) }
	case *array.Int8:
		typ, get = Int64, func(i int) any { return int64(a.Value(i)) }
	case *array.Uint32:
		typ, get = Int64, func(i int) any { return int64(a.Value(i)) }
	case *array.Float64:
		typ, get = Float64, func(i int) any { return a.Value(i) }
	case *array.Float32:
		typ, get = Float64, func(i int) any { return float64(a.Value(i)) }
	case *array.Boolean:
		typ, get = Bool, func(i int) any { return a.Value(i) }
	case *array.String:
		typ, get = String, func(i int) any { return strings.Clone(a.Value(i)) }
	case *array.LargeString:
		typ, get = String, func(i int) any { return strings.Clone(a.Value(i)) }
	case *array.Binary:
		typ, get = Bytes, func(i int) any { return append([]byte(nil), a.Value(i)...) }
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		typ, get = Time, func(i int) any { return a.Value(i).ToTime(unit) }
	case *array.Null:
		typ, get = Unknown, func(int) any { return nil }
	default:
		return Unknown, nil, fmt.Errorf("unsupported arrow type %s", col.DataType())
	}
	for i := range vals {
		if col.IsNull(i) {
			continue
		}
		vals[i] = get(i)
	}
	return typ, vals, nil
}
