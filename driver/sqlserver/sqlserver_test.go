// driver/sqlserver/sqlserver_test.go
package sqlserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
	"github.com/chmenegatti/industrydb/pkg/table"
)

func TestDialect(t *testing.T) {
	d := Dialect{}
	assert.Equal(t, "mssql", d.Name())
	assert.Equal(t, "dbo.readings", d.Quote("dbo.readings"))
	assert.Equal(t, "[Order Lines]", d.Quote("Order Lines"))

	query := sqlx.Rebind(d.BindType(), sqlconn.SelectSQL(d, "t", []string{"id"}, "id > ?", 5))
	assert.Equal(t, "SELECT TOP (5) id FROM t WHERE id > @p1", query)
}

func TestErrorDetails(t *testing.T) {
	err := fmt.Errorf("exec: %w", mssql.Error{Number: 208, State: 1, Class: 16, Message: "Invalid object name 'nope'."})
	details := Dialect{}.ErrorDetails(err)
	assert.Equal(t, int32(208), details["number"])
	assert.Equal(t, uint8(16), details["class"])
	assert.Nil(t, Dialect{}.ErrorDetails(errors.New("other")))
}

func TestDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.MSSQL
		want string
	}{
		{
			name: "sql login",
			cfg:  config.MSSQL{Server: "erp-db", Port: config.Ptr(uint16(1433)), Database: "erp", Username: config.Ptr("sa"), Password: config.Ptr("pw")},
			want: "sqlserver://sa:pw@erp-db:1433?database=erp&encrypt=disable",
		},
		{
			name: "trusted connection drops credentials",
			cfg:  config.MSSQL{Server: "erp-db", Database: "erp", Username: config.Ptr("sa"), TrustedConnection: true},
			want: "sqlserver://erp-db?database=erp&encrypt=disable",
		},
		{
			name: "named instance and timeout",
			cfg:  config.MSSQL{Server: `erp-db\SQLEXPRESS`, Database: "erp", Encrypt: "true", ConnectTimeout: 15},
			want: "sqlserver://erp-db/SQLEXPRESS?connection+timeout=15&database=erp&encrypt=true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DSN(tc.cfg))
		})
	}
}

func TestOpen_UnreachableServerHidesPassword(t *testing.T) {
	c := config.MSSQL{
		Server: "127.0.0.1", Port: config.Ptr(uint16(1)), Database: "erp",
		Username: config.Ptr("sa"), Password: config.Ptr("TopSecret123"), ConnectTimeout: 1,
	}

	_, err := Open(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberrors.ErrConnection))
	assert.NotContains(t, err.Error(), "TopSecret123")
}

// testConfig reads TEST_MSSQL_* variables and skips the test when no server is configured.
func testConfig(t *testing.T) config.MSSQL {
	t.Helper()
	host := os.Getenv("TEST_MSSQL_HOST")
	if host == "" {
		t.Skip("Skipping SQL Server integration test: TEST_MSSQL_HOST not set")
	}
	c := config.MSSQL{
		Server:   host,
		Database: envOr("TEST_MSSQL_DBNAME", "master"),
		Username: config.Ptr(envOr("TEST_MSSQL_USER", "sa")),
		Password: config.Ptr(envOr("TEST_MSSQL_PASSWORD", "yourStrong(!)Password")),
	}
	if p := os.Getenv("TEST_MSSQL_PORT"); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		require.NoError(t, err, "invalid TEST_MSSQL_PORT")
		c.Port = config.Ptr(uint16(n))
	}
	return c
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestIntegration_InsertSelectTop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := Open(ctx, testConfig(t))
	require.NoError(t, err)
	defer conn.Close()

	tableName := fmt.Sprintf("industrydb_it_%d", time.Now().UnixNano())
	_, err = conn.Query(ctx, "CREATE TABLE "+tableName+" (id INT PRIMARY KEY, name NVARCHAR(20))")
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = conn.Query(context.Background(), "DROP TABLE "+tableName) })

	n, err := conn.Insert(ctx, tableName, table.MustNew(
		table.Col("id", 1, 2, 3),
		table.Col("name", "a", "b", "c"),
	))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	got, err := conn.Select(ctx, tableName, sqlconn.SelectQuery{Where: "id > ?", Args: []any{1}, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumRows())

	_, err = conn.Query(ctx, "SELECT * FROM nope_"+tableName)
	require.Error(t, err)
	var derr *dberrors.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, int32(208), derr.Details["number"])
}
