// driver/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
)

const driverName = "pgx"

// DefaultConnectTimeout bounds the initial ping when the configuration sets no timeout.
const DefaultConnectTimeout = 10 * time.Second

var _ sqlconn.Dialect = Dialect{}

// Dialect is the PostgreSQL SQL dialect.
type Dialect struct{}

func (Dialect) Name() string                   { return string(config.BackendPostgres) }
func (Dialect) Quote(ident string) string      { return sqlconn.QuoteWith(ident, `"`, `"`) }
func (Dialect) BindType() int                  { return sqlx.DOLLAR }
func (Dialect) LimitStyle() sqlconn.LimitStyle { return sqlconn.LimitClause }

// ErrorDetails reports the SQLSTATE and the object names of a server error.
func (Dialect) ErrorDetails(err error) map[string]any {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	details := map[string]any{
		"sqlstate": pgErr.Code,
		"severity": pgErr.Severity,
	}
	for key, v := range map[string]string{
		"detail":     pgErr.Detail,
		"hint":       pgErr.Hint,
		"table":      pgErr.TableName,
		"column":     pgErr.ColumnName,
		"constraint": pgErr.ConstraintName,
	} {
		if v != "" {
			details[key] = v
		}
	}
	return details
}

// DSN returns the pgx connection URL for c.
func DSN(c config.Postgres) string {
	return config.ToURI(c)
}

// Open connects to the server described by c and verifies the session with a
// ping bounded by c.ConnectTimeout, or DefaultConnectTimeout when unset.
func Open(ctx context.Context, c config.Postgres) (*sqlconn.Conn, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	timeout := DefaultConnectTimeout
	if c.ConnectTimeout > 0 {
		timeout = time.Duration(c.ConnectTimeout) * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := sqlconn.Open(pingCtx, driverName, DSN(c), Dialect{})
	if err != nil {
		var secret string
		if c.Password != nil {
			secret = *c.Password
		}
		return nil, dberrors.Connection(dberrors.Redact(err, secret),
			"postgres: cannot connect to %s:%d/%s", c.Host, c.Port, c.Database).
			WithDetail("host", c.Host)
	}
	return conn, nil
}
