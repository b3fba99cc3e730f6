package sqlconn

import (
	"regexp"
	"strconv"
	"strings"
)

// LimitStyle tells how a dialect caps the rows of a SELECT.
type LimitStyle int

const (
	// LimitClause appends LIMIT n (SQLite, Postgres).
	LimitClause LimitStyle = iota
	// TopClause prefixes the column list with TOP (n) (SQL Server).
	TopClause
)

// Dialect captures the SQL differences between backends.
type Dialect interface {
	// Name is the backend name used in errors, logs and metrics.
	Name() string
	// Quote renders a possibly schema-qualified identifier.
	Quote(identifier string) string
	// BindType is the sqlx bind style (sqlx.QUESTION, sqlx.DOLLAR, sqlx.AT).
	BindType() int
	LimitStyle() LimitStyle
	// ErrorDetails extracts structured fields (SQLSTATE, error number...) from a
	// driver error. It returns nil when err carries none.
	ErrorDetails(err error) map[string]any
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved holds keywords that are plain identifiers lexically but must be
// quoted to be used as names.
var reserved = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "by": true, "case": true,
	"check": true, "column": true, "constraint": true, "create": true, "default": true,
	"delete": true, "desc": true, "distinct": true, "drop": true, "else": true,
	"end": true, "from": true, "group": true, "having": true, "in": true, "index": true,
	"insert": true, "into": true, "is": true, "join": true, "key": true, "like": true,
	"limit": true, "not": true, "null": true, "on": true, "or": true, "order": true,
	"primary": true, "references": true, "select": true, "set": true, "table": true,
	"then": true, "to": true, "union": true, "unique": true, "update": true,
	"user": true, "values": true, "when": true, "where": true,
}

// QuoteWith quotes each dot separated part of identifier that is not a plain,
// non-reserved name, doubling any closing quote inside it. Plain names stay
// bare so backends that fold case (Postgres) resolve them as usual.
func QuoteWith(identifier, left, right string) string {
	parts := strings.Split(identifier, ".")
	for i, p := range parts {
		if plainIdent.MatchString(p) && !reserved[strings.ToLower(p)] {
			continue
		}
		parts[i] = left + strings.ReplaceAll(p, right, right+right) + right
	}
	return strings.Join(parts, ".")
}

// SelectSQL builds SELECT cols FROM table [WHERE where] with an optional row
// cap. The where text is used verbatim.
func SelectSQL(d Dialect, table string, columns []string, where string, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if limit > 0 && d.LimitStyle() == TopClause {
		b.WriteString("TOP (")
		b.WriteString(strconv.Itoa(limit))
		b.WriteString(") ")
	}
	if len(columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(quoteAll(d, columns))
	}
	b.WriteString(" FROM ")
	b.WriteString(d.Quote(table))
	b.WriteString(WhereClause(where))
	if limit > 0 && d.LimitStyle() == LimitClause {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	return b.String()
}

// InsertSQL builds a single-row INSERT with '?' placeholders.
func InsertSQL(d Dialect, table string, columns []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return "INSERT INTO " + d.Quote(table) + " (" + quoteAll(d, columns) + ") VALUES (" + marks + ")"
}

// UpdateSQL builds UPDATE table SET col = ?, ... [WHERE where].
func UpdateSQL(d Dialect, table string, columns []string, where string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = d.Quote(c) + " = ?"
	}
	return "UPDATE " + d.Quote(table) + " SET " + strings.Join(sets, ", ") + WhereClause(where)
}

// DeleteSQL builds DELETE FROM table [WHERE where].
func DeleteSQL(d Dialect, table, where string) string {
	return "DELETE FROM " + d.Quote(table) + WhereClause(where)
}

// WhereClause returns " WHERE where", or "" for a blank clause.
func WhereClause(where string) string {
	if where = strings.TrimSpace(where); where != "" {
		return " WHERE " + where
	}
	return ""
}

func quoteAll(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
