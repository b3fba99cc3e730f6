package config

import (
	"strings"

	"github.com/chmenegatti/industrydb/pkg/dberrors"
)

// Backend identifies one of the supported database engines.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMSSQL    Backend = "mssql"
)

// Backends lists every supported backend in a stable order.
func Backends() []Backend {
	return []Backend{BackendPostgres, BackendSQLite, BackendMSSQL}
}

func (b Backend) String() string { return string(b) }

// ParseBackend resolves a type name, case-insensitively, accepting the
// aliases postgresql and sqlserver.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "sqlite":
		return BackendSQLite, nil
	case "mssql", "sqlserver":
		return BackendMSSQL, nil
	}
	return "", dberrors.Configuration("unsupported database type: %q (supported: postgres, postgresql, sqlite, mssql, sqlserver)", name)
}
