// driver/sqlite/sqlite.go
package sqlite

import (
	"context"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
)

const memoryPath = ":memory:"

var _ sqlconn.Dialect = Dialect{}

// Dialect is the SQLite SQL dialect.
type Dialect struct{}

func (Dialect) Name() string                   { return string(config.BackendSQLite) }
func (Dialect) Quote(ident string) string      { return sqlconn.QuoteWith(ident, `"`, `"`) }
func (Dialect) BindType() int                  { return sqlx.QUESTION }
func (Dialect) LimitStyle() sqlconn.LimitStyle { return sqlconn.LimitClause }

// ErrorDetails reports the SQLite result codes carried by err.
func (Dialect) ErrorDetails(err error) map[string]any { return errorDetails(err) }

// DSN returns the data source name for c, with a busy timeout and foreign
// keys enabled.
func DSN(c config.SQLite) string {
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return c.Path + sep + dsnParams
}

// Open opens the database file named by c. A missing file is an error unless
// c.Create is set. In-memory databases and file: URIs are passed to the driver
// as they are.
func Open(ctx context.Context, c config.SQLite) (*sqlconn.Conn, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !c.Create && c.Path != memoryPath && !strings.HasPrefix(c.Path, "file:") {
		if _, err := os.Stat(c.Path); err != nil {
			return nil, dberrors.Connection(err, "sqlite: cannot open %s", c.Path)
		}
	}
	conn, err := sqlconn.Open(ctx, driverName, DSN(c), Dialect{})
	if err != nil {
		return nil, dberrors.Connection(err, "sqlite: cannot open %s", c.Path)
	}
	return conn, nil
}
