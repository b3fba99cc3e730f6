// datasource.go
package industrydb

import (
	"context"

	"github.com/chmenegatti/industrydb/driver/postgres"
	"github.com/chmenegatti/industrydb/driver/sqlite"
	"github.com/chmenegatti/industrydb/driver/sqlserver"
	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
	"github.com/chmenegatti/industrydb/pkg/table"
)

// dataSource is the live backend session a Connection owns while open.
// *sqlconn.Conn is the only production implementation.
type dataSource interface {
	Query(ctx context.Context, statement string, args ...any) (*table.Table, error)
	Insert(ctx context.Context, tableName string, t *table.Table) (uint64, error)
	Select(ctx context.Context, tableName string, q sqlconn.SelectQuery) (*table.Table, error)
	Update(ctx context.Context, tableName string, values map[string]any, where string, args ...any) (int64, error)
	Delete(ctx context.Context, tableName, where string, args ...any) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

var _ dataSource = (*sqlconn.Conn)(nil)

type opened struct {
	ds  dataSource
	err error
}

func fromConn(conn *sqlconn.Conn, err error) opened {
	if err != nil {
		return opened{err: err}
	}
	return opened{ds: conn}
}

// connect selects the driver for cfg's variant and opens its session.
func connect(ctx context.Context, cfg config.Config) (dataSource, error) {
	o := config.Match(cfg,
		func(c config.SQLite) opened { return fromConn(sqlite.Open(ctx, c)) },
		func(c config.Postgres) opened { return fromConn(postgres.Open(ctx, c)) },
		func(c config.MSSQL) opened { return fromConn(sqlserver.Open(ctx, c)) },
	)
	return o.ds, o.err
}
