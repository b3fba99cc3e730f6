package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmenegatti/industrydb/pkg/dberrors"
)

func TestToURI(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"postgres with password", Postgres{Host: "h", Port: 5432, Database: "d", Username: "u", Password: Ptr("p")}, "postgresql://u:p@h:5432/d"},
		{"postgres without password", Postgres{Host: "h", Port: 5432, Database: "d", Username: "u"}, "postgresql://u@h:5432/d"},
		{"postgres params", Postgres{Host: "h", Port: 1, Database: "d", Username: "u", SSLMode: "disable", ConnectTimeout: 5}, "postgresql://u@h:1/d?connect_timeout=5&sslmode=disable"},
		{"mssql trusted", MSSQL{Server: "s", Database: "d", TrustedConnection: true}, "mssql://s/?database=d&trusted_connection=true"},
		{"mssql login", MSSQL{Server: "s", Port: Ptr(uint16(1433)), Database: "d", Username: Ptr("sa"), Password: Ptr("p")}, "mssql://sa:p@s:1433/?database=d"},
		{"sqlite", SQLite{Path: "/var/lib/plant.db"}, "sqlite:///var/lib/plant.db"},
		{"sqlite create", SQLite{Path: "plant.db", Create: true}, "sqlite://plant.db?mode=rwc"},
		{"sqlite escaped path", SQLite{Path: "data?v1 #2.db"}, "sqlite://data%3Fv1%20%232.db"},
		{"mssql named instance", MSSQL{Server: `erp-db\SQLEXPRESS`, Database: "d"}, "mssql://erp-db/SQLEXPRESS?database=d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToURI(tc.cfg))
		})
	}
}

func TestURIRoundTrip(t *testing.T) {
	configs := []Config{
		Postgres{Host: "db.internal", Port: 5432, Database: "plant", Username: "reader"},
		Postgres{Host: "10.0.0.7", Port: 6543, Database: "plant", Username: "reader", Password: Ptr("p@ss:w/rd?#")},
		Postgres{Host: "::1", Port: 5432, Database: "my db", Username: "user name", Password: Ptr(""), SSLMode: "verify-full", ConnectTimeout: 30},
		MSSQL{Server: "erp-db", Database: "erp"},
		MSSQL{Server: "erp-db", Port: Ptr(uint16(14330)), Database: "erp", Username: Ptr("sa"), Password: Ptr("Str0ng&Pass!")},
		MSSQL{Server: "fe80::1", Database: "erp", Username: Ptr("sa"), TrustedConnection: true, Encrypt: "strict", ConnectTimeout: 3},
		SQLite{Path: "plant.db"},
		MSSQL{Server: `srv\SQLEXPRESS`, Database: "erp"},
		MSSQL{Server: `srv\SQLEXPRESS`, Port: Ptr(uint16(1434)), Database: "erp", Username: Ptr("sa"), Password: Ptr("p")},
		SQLite{Path: "/abs/path/plant.db", Create: true},
		SQLite{Path: "data?v1.db"},
		SQLite{Path: `C:\plant data\50%.db`},
		SQLite{Path: ":memory:"},
	}
	for _, c := range configs {
		uri := ToURI(c)
		got, err := ParseURI(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, c, got, uri)
	}
}

func TestParseURI_Aliases(t *testing.T) {
	c, err := ParseURI("postgres://u@h/d")
	require.NoError(t, err)
	assert.Equal(t, Postgres{Host: "h", Port: DefaultPostgresPort, Database: "d", Username: "u"}, c)

	c, err = ParseURI("sqlserver://sa@s:1433?database=erp")
	require.NoError(t, err)
	assert.Equal(t, MSSQL{Server: "s", Port: Ptr(uint16(1433)), Database: "erp", Username: Ptr("sa")}, c)

	c, err = ParseURI("sqlite://plant.db?mode=rw")
	require.NoError(t, err)
	assert.Equal(t, SQLite{Path: "plant.db"}, c)

	c, err = ParseURI("./data/plant.db")
	require.NoError(t, err)
	assert.Equal(t, SQLite{Path: "./data/plant.db"}, c)
}

func TestParseURI_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown scheme":       "mysql://u@h/d",
		"postgres no user":     "postgresql://h:5432/d",
		"postgres no database": "postgresql://u@h:5432/",
		"postgres bad port":    "postgresql://u:secretpw@h:notaport/d",
		"mssql no database":    "mssql://s/",
		"mssql instance only":  "mssql://s/erp",
		"sqlite bad escape":    "sqlite://a%zz.db",
		"sqlite no path":       "sqlite://",
		"sqlite bad mode":      "sqlite://a.db?mode=memory",
		"bad timeout":          "postgresql://u@h/d?connect_timeout=soon",
		"empty":                "  ",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseURI(uri)
			require.Error(t, err)
			assert.True(t, errors.Is(err, dberrors.ErrConfiguration), err)
			assert.NotContains(t, err.Error(), "secretpw")
		})
	}
}

func TestRedacted(t *testing.T) {
	assert.Equal(t, "postgresql://u:xxxxx@h:5432/d", Redacted(Postgres{Host: "h", Port: 5432, Database: "d", Username: "u", Password: Ptr("p")}))
	assert.Equal(t, "mssql://sa:xxxxx@s/?database=d", Redacted(MSSQL{Server: "s", Database: "d", Username: Ptr("sa"), Password: Ptr("p")}))
	assert.Equal(t, "sqlite://a.db", Redacted(SQLite{Path: "a.db"}))
}
