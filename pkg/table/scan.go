package table

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var typeParams = regexp.MustCompile(`\s*\(.*\)$`)

// databaseTypes maps driver type names onto column types. Names not listed
// fall back to SQLite style affinity rules in TypeFromDatabase. Exact decimals
// are kept as their decimal text.
var databaseTypes = map[string]Type{
	"BOOL": Bool, "BOOLEAN": Bool, "BIT": Bool,
	"REAL": Float64, "FLOAT": Float64, "FLOAT4": Float64, "FLOAT8": Float64,
	"DOUBLE": Float64, "DOUBLE PRECISION": Float64,
	"NUMERIC": String, "DECIMAL": String, "MONEY": String, "SMALLMONEY": String,
	"UUID": String, "JSON": String, "JSONB": String, "XML": String, "INTERVAL": String,
	"BYTEA": Bytes, "BLOB": Bytes, "BINARY": Bytes, "VARBINARY": Bytes, "IMAGE": Bytes,
	"UNIQUEIDENTIFIER": Bytes,
	"DATE": Time, "TIME": Time, "TIMETZ": Time, "TIMESTAMP": Time, "TIMESTAMPTZ": Time,
	"DATETIME": Time, "DATETIME2": Time, "SMALLDATETIME": Time, "DATETIMEOFFSET": Time,
}

// TypeFromDatabase maps a driver's column type name (VARCHAR(20), INT4,
// NVARCHAR, ...) to a column type. Unrecognized names yield Unknown.
func TypeFromDatabase(name string) Type {
	name = strings.ToUpper(strings.TrimSpace(typeParams.ReplaceAllString(name, "")))
	if name == "" {
		return Unknown
	}
	if t, ok := databaseTypes[name]; ok {
		return t
	}
	switch {
	case strings.Contains(name, "INT"), strings.Contains(name, "SERIAL"):
		return Int64
	case strings.Contains(name, "CHAR"), strings.Contains(name, "CLOB"), strings.Contains(name, "TEXT"):
		return String
	case strings.Contains(name, "BLOB"):
		return Bytes
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOA"), strings.Contains(name, "DOUB"):
		return Float64
	}
	return Unknown
}

// FromRows drains rows into a table and closes them. Column types come from
// the driver's declared types, falling back to the scanned values. A result
// without columns yields Empty; a result with columns but no rows keeps the
// columns.
func FromRows(rows *sql.Rows) (*Table, error) {
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("table: reading columns: %w", err)
	}
	if len(names) == 0 {
		// drain so the statement's error, if any, surfaces
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return Empty(), nil
	}

	declared := make([]Type, len(names))
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			declared[i] = TypeFromDatabase(ct.DatabaseTypeName())
		}
	}

	values := make([][]any, len(names))
	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range dest {
			if b, ok := v.([]byte); ok {
				v = append([]byte(nil), b...)
			}
			values[i] = append(values[i], v)
			dest[i] = nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols := make([]Series, len(names))
	for i, name := range uniqueNames(names) {
		cols[i] = typedSeries(name, declared[i], values[i])
	}
	return New(cols...)
}

func typedSeries(name string, typ Type, values []any) Series {
	if values == nil {
		values = []any{}
	}
	if typ == Unknown {
		s := NewSeries(name, values)
		// untyped text columns come back as []byte from several drivers
		if s.Type == Bytes {
			s = NewSeries(name, bytesToStrings(values))
		}
		return s
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = coerce(v, typ)
	}
	return Series{Name: name, Type: typ, Values: vals}
}

func bytesToStrings(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			out[i] = string(b)
			continue
		}
		out[i] = v
	}
	return out
}

// uniqueNames names anonymous columns column_<i> and suffixes repeated
// names with _<n>, as in SELECT a.id, b.id.
func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s_%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		out[i] = name
	}
	return out
}
