// Package sqlconn is the backend-neutral driver handle shared by the sqlite,
// postgres and sqlserver drivers: one database/sql session wrapped in sqlx,
// plus a Dialect for the SQL that differs between backends.
package sqlconn

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/table"
)

var _ io.Closer = (*Conn)(nil)

// Conn holds a single database session.
type Conn struct {
	db      *sqlx.DB
	dialect Dialect
}

// Open opens driverName with dsn, limits the pool to one session and pings
// it. On failure nothing is left open and the driver's error is returned as is.
func Open(ctx context.Context, driverName, dsn string, d Dialect) (*Conn, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	c := wrap(db, d)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an already opened *sql.DB. driverName selects sqlx's defaults.
func New(db *sql.DB, driverName string, d Dialect) *Conn {
	return wrap(sqlx.NewDb(db, driverName), d)
}

func wrap(db *sqlx.DB, d Dialect) *Conn {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Conn{db: db, dialect: d}
}

func (c *Conn) Dialect() Dialect { return c.dialect }

// DB exposes the underlying handle.
func (c *Conn) DB() *sqlx.DB { return c.db }

// Query runs statement verbatim and returns whatever rows it produces.
// Statements without a result set return an empty table.
func (c *Conn) Query(ctx context.Context, statement string, args ...any) (*table.Table, error) {
	rows, err := c.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, c.queryError(err, "executing statement")
	}
	t, err := table.FromRows(rows)
	if err != nil {
		return nil, c.queryError(err, "reading result")
	}
	return t, nil
}

// Exec runs statement and reports the number of affected rows.
func (c *Conn) Exec(ctx context.Context, statement string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, c.queryError(err, "executing statement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, c.queryError(err, "reading affected rows")
	}
	return n, nil
}

// Insert appends every row of t to tableName in one transaction and returns
// the number of rows written. On any failure the transaction is rolled back.
// A table without rows writes nothing but still fails when tableName or one of
// its columns does not exist.
func (c *Conn) Insert(ctx context.Context, tableName string, t *table.Table) (uint64, error) {
	if t.NumCols() == 0 {
		return 0, dberrors.Query(nil, "%s: insert into %s: table has no columns", c.dialect.Name(), tableName)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, c.queryError(err, "beginning insert")
	}
	defer tx.Rollback() // no-op after Commit

	query := sqlx.Rebind(c.dialect.BindType(), InsertSQL(c.dialect, tableName, t.ColumnNames()))
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, c.queryError(err, "preparing insert into "+tableName)
	}
	defer stmt.Close()

	if t.NumRows() == 0 {
		// some drivers defer PREPARE to the first exec, so resolve the columns with a read
		rows, err := tx.QueryContext(ctx, SelectSQL(c.dialect, tableName, t.ColumnNames(), "1 = 0", 0))
		if err != nil {
			return 0, c.queryError(err, "checking columns of "+tableName)
		}
		if err := rows.Close(); err != nil {
			return 0, c.queryError(err, "checking columns of "+tableName)
		}
		return 0, nil
	}

	var n uint64
	for i := 0; i < t.NumRows(); i++ {
		if _, err := stmt.ExecContext(ctx, t.Row(i)...); err != nil {
			return 0, c.queryError(err, "inserting into "+tableName).WithDetail("row", i)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, c.queryError(err, "committing insert into "+tableName)
	}
	return n, nil
}

// SelectQuery describes a single-table SELECT.
type SelectQuery struct {
	Columns []string
	Where   string
	Args    []any
	Limit   int
}

// Select reads rows from tableName. The where clause is sent as written when
// q.Args is empty; with args, every '?' in it is a placeholder and is rebound
// to the backend's style.
func (c *Conn) Select(ctx context.Context, tableName string, q SelectQuery) (*table.Table, error) {
	query := SelectSQL(c.dialect, tableName, q.Columns, q.Where, q.Limit)
	if len(q.Args) > 0 {
		query = sqlx.Rebind(c.dialect.BindType(), query)
	}
	return c.Query(ctx, query, q.Args...)
}

// Update sets values on the rows of tableName matching where. Columns are
// written in name order. Without args the where clause is sent as written;
// with args its '?' marks are placeholders, as in Select.
func (c *Conn) Update(ctx context.Context, tableName string, values map[string]any, where string, args ...any) (int64, error) {
	if len(values) == 0 {
		return 0, dberrors.Query(nil, "%s: update %s: no values to set", c.dialect.Name(), tableName)
	}
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	params := make([]any, 0, len(cols)+len(args))
	for _, col := range cols {
		params = append(params, values[col])
	}
	params = append(params, args...)
	var query string
	if len(args) > 0 {
		query = sqlx.Rebind(c.dialect.BindType(), UpdateSQL(c.dialect, tableName, cols, where))
	} else {
		query = sqlx.Rebind(c.dialect.BindType(), UpdateSQL(c.dialect, tableName, cols, "")) + WhereClause(where)
	}
	return c.Exec(ctx, query, params...)
}

// Delete removes the rows of tableName matching where, or every row when
// where is empty. '?' in where is rebound only when args are given.
func (c *Conn) Delete(ctx context.Context, tableName, where string, args ...any) (int64, error) {
	query := DeleteSQL(c.dialect, tableName, where)
	if len(args) > 0 {
		query = sqlx.Rebind(c.dialect.BindType(), query)
	}
	return c.Exec(ctx, query, args...)
}

// Ping checks that the session is still usable.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return dberrors.Connection(err, "%s: ping", c.dialect.Name())
	}
	return nil
}

// Close releases the session.
func (c *Conn) Close() error {
	if err := c.db.Close(); err != nil {
		return dberrors.Connection(err, "%s: close", c.dialect.Name())
	}
	return nil
}

func (c *Conn) queryError(err error, op string) *dberrors.Error {
	kind := dberrors.KindQuery
	if errors.Is(err, sql.ErrConnDone) {
		kind = dberrors.KindConnection
	}
	e := dberrors.Wrap(err, kind, "%s: %s", c.dialect.Name(), op)
	for k, v := range c.dialect.ErrorDetails(err) {
		e.WithDetail(k, v)
	}
	return e
}
