package table

import (
	"github.com/goccy/go-json"
)

type jsonColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonTable struct {
	Columns []jsonColumn `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

// MarshalJSON encodes the table as
//
//	{"columns":[{"name":"id","type":"int64"}],"rows":[[1]]}
//
// keeping column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := jsonTable{Columns: make([]jsonColumn, len(t.cols)), Rows: t.Rows()}
	for i, c := range t.cols {
		out.Columns[i] = jsonColumn{Name: c.Name, Type: c.Type.String()}
	}
	return json.Marshal(out)
}

// Records returns one map per row, keyed by column name.
func (t *Table) Records() []map[string]any {
	recs := make([]map[string]any, t.rows)
	for i := range recs {
		rec := make(map[string]any, len(t.cols))
		for _, c := range t.cols {
			rec[c.Name] = c.Values[i]
		}
		recs[i] = rec
	}
	return recs
}
