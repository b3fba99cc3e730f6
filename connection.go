// Package industrydb gives SQLite, PostgreSQL and SQL Server one connection
// API: run SQL, bulk-insert a table, select with a filter, and close.
//
//	conn, err := industrydb.Open(ctx, config.SQLite{Path: "plant.db"})
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//	rows, err := conn.Select(ctx, "readings", industrydb.Where("value > ?", 10))
//
// A Connection holds a single backend session and is meant for one caller
// at a time.
package industrydb

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/logger"
	"github.com/chmenegatti/industrydb/pkg/metrics"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
	"github.com/chmenegatti/industrydb/pkg/table"
)

// Connection is an open session to one backend.
type Connection struct {
	cfg     config.Config
	backend string
	ds      dataSource
	closed  atomic.Bool
	log     *zap.Logger
	metrics *metrics.Collector
}

// Open validates cfg and connects to its backend. Failing to reach the backend
// is an error here, not on first use.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Connection, error) {
	if cfg == nil {
		return nil, dberrors.Configuration("no configuration given")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	ds, err := connect(ctx, cfg)
	o.metrics.ObserveOperation(cfg.Backend().String(), "open", start, err)
	if err != nil {
		logger.FromContext(ctx, o.log).Warn("connection failed",
			zap.Stringer("backend", cfg.Backend()),
			zap.String("target", config.Redacted(cfg)),
			zap.Error(err))
		return nil, err
	}
	return newConnection(ctx, cfg, ds, o), nil
}

// OpenURI parses uri with config.ParseURI and opens it.
func OpenURI(ctx context.Context, uri string, opts ...Option) (*Connection, error) {
	cfg, err := config.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, opts...)
}

func newConnection(ctx context.Context, cfg config.Config, ds dataSource, o options) *Connection {
	c := &Connection{
		cfg:     cfg,
		backend: cfg.Backend().String(),
		ds:      ds,
		log:     o.log,
		metrics: o.metrics,
	}
	c.metrics.ConnectionOpened(c.backend)
	logger.FromContext(ctx, c.log).Info("connection opened",
		zap.String("backend", c.backend),
		zap.String("target", config.Redacted(cfg)))
	return c
}

// Config returns the configuration the connection was opened with.
func (c *Connection) Config() config.Config { return c.cfg }

// Backend returns the backend kind of the connection.
func (c *Connection) Backend() config.Backend { return c.cfg.Backend() }

// IsClosed reports whether Close has been called.
func (c *Connection) IsClosed() bool { return c.closed.Load() }

// Execute sends statement to the backend verbatim. Row-producing statements
// return their result set; other statements return an empty table. The
// statement is not rewritten, so args bind to the backend's own placeholder
// syntax ($1 for Postgres, @p1 for SQL Server, ? for SQLite).
func (c *Connection) Execute(ctx context.Context, statement string, args ...any) (*table.Table, error) {
	if c.IsClosed() {
		return nil, dberrors.Closed("execute")
	}
	start := time.Now()
	t, err := c.ds.Query(ctx, statement, args...)
	c.observe(ctx, "execute", start, err)
	return t, err
}

// Insert appends every row of data to tableName, matching columns by name, in
// a single transaction. It returns the number of rows inserted; on failure no
// row is kept.
func (c *Connection) Insert(ctx context.Context, tableName string, data *table.Table) (uint64, error) {
	if c.IsClosed() {
		return 0, dberrors.Closed("insert")
	}
	if data == nil {
		return 0, dberrors.Query(nil, "%s: insert into %s: no data", c.backend, tableName)
	}
	start := time.Now()
	n, err := c.ds.Insert(ctx, tableName, data)
	c.observe(ctx, "insert", start, err)
	c.metrics.RowsWritten(c.backend, "insert", n)
	return n, err
}

// Select reads tableName, refined by Where, Columns and Limit.
func (c *Connection) Select(ctx context.Context, tableName string, opts ...SelectOption) (*table.Table, error) {
	if c.IsClosed() {
		return nil, dberrors.Closed("select")
	}
	var q sqlconn.SelectQuery
	for _, opt := range opts {
		opt(&q)
	}
	start := time.Now()
	t, err := c.ds.Select(ctx, tableName, q)
	c.observe(ctx, "select", start, err)
	return t, err
}

// Update sets values on the rows of tableName matching where and returns the
// number of rows changed. Values and args are bound as parameters; where uses
// '?' placeholders.
func (c *Connection) Update(ctx context.Context, tableName string, values map[string]any, where string, args ...any) (int64, error) {
	if c.IsClosed() {
		return 0, dberrors.Closed("update")
	}
	start := time.Now()
	n, err := c.ds.Update(ctx, tableName, values, where, args...)
	c.observe(ctx, "update", start, err)
	c.metrics.RowsWritten(c.backend, "update", nonNegative(n))
	return n, err
}

// Delete removes the rows of tableName matching where, every row when where
// is empty, and returns the number removed.
func (c *Connection) Delete(ctx context.Context, tableName, where string, args ...any) (int64, error) {
	if c.IsClosed() {
		return 0, dberrors.Closed("delete")
	}
	start := time.Now()
	n, err := c.ds.Delete(ctx, tableName, where, args...)
	c.observe(ctx, "delete", start, err)
	c.metrics.RowsWritten(c.backend, "delete", nonNegative(n))
	return n, err
}

// Ping checks that the backend session is still alive.
func (c *Connection) Ping(ctx context.Context) error {
	if c.IsClosed() {
		return dberrors.Closed("ping")
	}
	start := time.Now()
	err := c.ds.Ping(ctx)
	c.observe(ctx, "ping", start, err)
	return err
}

// Close releases the backend session. Only the first call does any work;
// later calls return nil. The connection counts as closed even when releasing
// the session fails.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.ds.Close()
	c.metrics.ConnectionClosed(c.backend)
	fields := []zap.Field{zap.String("backend", c.backend)}
	if err != nil {
		c.log.Warn("connection closed with error", append(fields, zap.Error(err))...)
		return err
	}
	c.log.Info("connection closed", fields...)
	return nil
}

func (c *Connection) observe(ctx context.Context, op string, start time.Time, err error) {
	c.metrics.ObserveOperation(c.backend, op, start, err)
	fields := []zap.Field{
		zap.String("backend", c.backend),
		zap.String("operation", op),
		zap.Duration("duration", time.Since(start)),
	}
	log := logger.FromContext(ctx, c.log)
	if err != nil {
		log.Debug("operation failed", append(fields, zap.Error(err))...)
		return
	}
	log.Debug("operation completed", fields...)
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
