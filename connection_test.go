package industrydb

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/metrics"
	"github.com/chmenegatti/industrydb/pkg/table"
)

// openSQLite opens a fresh SQLite database under t.TempDir with table t(id, name).
func openSQLite(t *testing.T, opts ...Option) *Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := Open(ctx, config.SQLite{Path: filepath.Join(t.TempDir(), "plant.db"), Create: true}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Execute(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	return conn
}

func sampleRows() *table.Table {
	return table.MustNew(
		table.Col("id", 1, 2, 3),
		table.Col("name", "a", "b", "c"),
	)
}

func TestSQLiteInsertSelectDelete(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)

	created, err := conn.Execute(ctx, "CREATE TABLE other (x INTEGER)")
	require.NoError(t, err)
	assert.True(t, created.IsEmpty())
	assert.Equal(t, 0, created.NumCols())

	n, err := conn.Insert(ctx, "t", sampleRows())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	all, err := conn.Select(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 3, all.NumRows())
	assert.Equal(t, []string{"id", "name"}, all.ColumnNames())

	filtered, err := conn.Select(ctx, "t", Where("id > 1"))
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.NumRows())

	deleted, err := conn.Delete(ctx, "t", "id = ?", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := conn.Execute(ctx, "SELECT COUNT(*) as count FROM t")
	require.NoError(t, err)
	require.Equal(t, 1, count.NumRows())
	assert.Equal(t, []string{"count"}, count.ColumnNames())
	v, ok := count.Value(0, "count")
	require.True(t, ok)
	assert.EqualValues(t, 2, v)
}

func TestSQLiteSelectOptionsAndUpdate(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	_, err := conn.Insert(ctx, "t", sampleRows())
	require.NoError(t, err)

	got, err := conn.Select(ctx, "t", Columns("name"), Where("id >= ?", 2), Limit(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, got.ColumnNames())
	assert.Equal(t, [][]any{{"b"}}, got.Rows())

	changed, err := conn.Update(ctx, "t", map[string]any{"name": "z"}, "id < ?", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	zs, err := conn.Select(ctx, "t", Where("name = ?", "z"))
	require.NoError(t, err)
	assert.Equal(t, 2, zs.NumRows())

	none, err := conn.Select(ctx, "t", Where("id > 100"))
	require.NoError(t, err)
	assert.Equal(t, 0, none.NumRows())
	assert.Equal(t, []string{"id", "name"}, none.ColumnNames())
}

func TestSQLiteQueryErrors(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)

	_, err := conn.Insert(ctx, "missing", sampleRows())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberrors.ErrQuery))
	assert.True(t, errors.Is(err, dberrors.ErrBase))
	assert.Contains(t, err.Error(), "no such table")

	_, err = conn.Insert(ctx, "missing", table.MustNew(table.Col[int]("id")))
	require.Error(t, err, "a table without rows must still name an existing table")
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	_, err = conn.Insert(ctx, "t", table.MustNew(table.Col[string]("nope")))
	require.Error(t, err, "a table without rows must still name existing columns")
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	n, err := conn.Insert(ctx, "t", table.MustNew(table.Col[int]("id")))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = conn.Execute(ctx, "SELEC 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	_, err = conn.Insert(ctx, "t", nil)
	assert.True(t, errors.Is(err, dberrors.ErrQuery))
}

func TestSQLiteInsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)

	dup := table.MustNew(
		table.Col("id", 1, 2, 2),
		table.Col("name", "a", "b", "c"),
	)
	_, err := conn.Insert(ctx, "t", dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	rows, err := conn.Select(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 0, rows.NumRows(), "failed insert must not keep earlier rows")
}

func TestClosedConnectionRejectsOperations(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)

	assert.False(t, conn.IsClosed())
	require.NoError(t, conn.Close())
	assert.True(t, conn.IsClosed())
	require.NoError(t, conn.Close(), "second close is a no-op")
	assert.True(t, conn.IsClosed())

	calls := map[string]func() error{
		"execute": func() error { _, err := conn.Execute(ctx, "SELECT 1"); return err },
		"insert":  func() error { _, err := conn.Insert(ctx, "t", sampleRows()); return err },
		"select":  func() error { _, err := conn.Select(ctx, "t"); return err },
		"update":  func() error { _, err := conn.Update(ctx, "t", map[string]any{"name": "x"}, ""); return err },
		"delete":  func() error { _, err := conn.Delete(ctx, "t", ""); return err },
		"ping":    func() error { return conn.Ping(ctx) },
	}
	for op, call := range calls {
		for i := 0; i < 2; i++ {
			err := call()
			require.Error(t, err, op)
			assert.True(t, errors.Is(err, dberrors.ErrConnectionClosed), op)
			assert.Contains(t, err.Error(), op)
		}
	}
}

func TestOpenURI(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "uri.db")

	_, err := OpenURI(ctx, config.ToURI(config.SQLite{Path: path}))
	require.Error(t, err, "a missing file needs mode=rwc")
	assert.True(t, errors.Is(err, dberrors.ErrConnection))

	conn, err := OpenURI(ctx, config.ToURI(config.SQLite{Path: path, Create: true}))
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, conn.Backend())
	assert.Equal(t, config.SQLite{Path: path, Create: true}, conn.Config())
	require.NoError(t, conn.Ping(ctx))
	require.NoError(t, conn.Close())

	_, err = OpenURI(ctx, "redis://localhost")
	assert.True(t, errors.Is(err, dberrors.ErrConfiguration))
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, nil)
	assert.True(t, errors.Is(err, dberrors.ErrConfiguration))

	_, err = Open(ctx, config.Postgres{Host: "db"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberrors.ErrConfiguration))
	assert.Contains(t, err.Error(), "database")
	assert.Contains(t, err.Error(), "username")

	absent := filepath.Join(t.TempDir(), "absent.db")
	_, err = Open(ctx, config.SQLite{Path: absent})
	assert.True(t, errors.Is(err, dberrors.ErrConnection))
	_, statErr := os.Stat(absent)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "open without Create must not create the file")
}

func TestOpenFailureLogsRedactedTarget(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.Postgres{
		Host: "127.0.0.1", Port: 1, Database: "plant", Username: "reader",
		Password: config.Ptr("TopSecret123"), SSLMode: "disable", ConnectTimeout: 1,
	}

	_, err := Open(context.Background(), cfg, WithLogger(zap.New(core)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberrors.ErrConnection))
	assert.NotContains(t, err.Error(), "TopSecret123")

	failed := logs.FilterMessage("connection failed").All()
	require.Len(t, failed, 1)
	target := failed[0].ContextMap()["target"]
	assert.NotContains(t, target, "TopSecret123")
	assert.Contains(t, target, "127.0.0.1")
}

func TestLifecycleLoggingAndMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	conn := openSQLite(t, WithLogger(zap.New(core)), WithMetrics(metrics.NewCollector(reg)))
	ctx := context.Background()

	_, err := conn.Insert(ctx, "t", sampleRows())
	require.NoError(t, err)
	_, err = conn.Execute(ctx, "SELECT * FROM nope")
	require.Error(t, err)
	require.NoError(t, conn.Close())

	assert.Equal(t, 1, logs.FilterMessage("connection opened").Len())
	assert.Equal(t, 1, logs.FilterMessage("connection closed").Len())
	assert.Equal(t, 1, logs.FilterMessage("operation failed").Len())

	// open, execute (create), insert, execute (error)
	count, err := testutil.GatherAndCount(reg, "industrydb_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	count, err = testutil.GatherAndCount(reg, "industrydb_rows_written_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
