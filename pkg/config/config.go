// Package config holds the connection configuration model of industrydb.
//
// A Config is one of three variants, SQLite, Postgres or MSSQL. Values are
// built with the New* constructors, FromMap, ParseURI or Load, all of which
// validate the variant's required fields. Use Match to dispatch on the variant.
package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/chmenegatti/industrydb/pkg/dberrors"
)

// DefaultPostgresPort is used when a Postgres configuration omits the port.
const DefaultPostgresPort uint16 = 5432

// Config is a validated connection configuration. The set of implementations
// is closed: SQLite, Postgres and MSSQL.
type Config interface {
	Backend() Backend
	Validate() error
	isConfig()
}

// SQLite configures an embedded database file.
type SQLite struct {
	Path string `toml:"path" validate:"required"`
	// Create allows opening a missing file by creating it. Without it a
	// missing file is an error.
	Create bool `toml:"create,omitempty"`
}

// Postgres configures a PostgreSQL server connection.
type Postgres struct {
	Host           string  `toml:"host" validate:"required"`
	Port           uint16  `toml:"port" validate:"required"`
	Database       string  `toml:"database" validate:"required"`
	Username       string  `toml:"username" validate:"required"`
	Password       *string `toml:"password,omitempty"`
	SSLMode        string  `toml:"sslmode,omitempty" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	ConnectTimeout uint32  `toml:"connect_timeout,omitempty"`
}

// MSSQL configures a Microsoft SQL Server connection. Username and Password
// may be left nil when TrustedConnection is used.
type MSSQL struct {
	Server            string  `toml:"server" validate:"required"`
	Port              *uint16 `toml:"port,omitempty" validate:"omitnil,min=1"`
	Database          string  `toml:"database" validate:"required"`
	Username          *string `toml:"username,omitempty"`
	Password          *string `toml:"password,omitempty" validate:"excluded_without=Username"`
	TrustedConnection bool    `toml:"trusted_connection,omitempty"`
	Encrypt           string  `toml:"encrypt,omitempty" validate:"omitempty,oneof=disable false true strict"`
	ConnectTimeout    uint32  `toml:"connect_timeout,omitempty"`
}

func (SQLite) Backend() Backend   { return BackendSQLite }
func (Postgres) Backend() Backend { return BackendPostgres }
func (MSSQL) Backend() Backend    { return BackendMSSQL }

func (SQLite) isConfig()   {}
func (Postgres) isConfig() {}
func (MSSQL) isConfig()    {}

func (c SQLite) Validate() error   { return validateVariant(BackendSQLite, c) }
func (c Postgres) Validate() error { return validateVariant(BackendPostgres, c) }
func (c MSSQL) Validate() error    { return validateVariant(BackendMSSQL, c) }

// String renders the configuration as a URI with the password masked.
func (c Postgres) String() string { return Redacted(c) }

// GoString keeps %#v from printing the password.
func (c Postgres) GoString() string { return "config.Postgres(" + Redacted(c) + ")" }

// String renders the configuration as a URI with the password masked.
func (c MSSQL) String() string { return Redacted(c) }

// GoString keeps %#v from printing the password.
func (c MSSQL) GoString() string { return "config.MSSQL(" + Redacted(c) + ")" }

// NewSQLite returns a validated SQLite configuration for an existing file.
// Set Create on the result to allow a new database.
func NewSQLite(path string) (SQLite, error) {
	c := SQLite{Path: path}
	if err := c.Validate(); err != nil {
		return SQLite{}, err
	}
	return c, nil
}

// NewPostgres returns a validated Postgres configuration on the default port.
func NewPostgres(host, database, username string, password *string) (Postgres, error) {
	c := Postgres{Host: host, Port: DefaultPostgresPort, Database: database, Username: username, Password: password}
	if err := c.Validate(); err != nil {
		return Postgres{}, err
	}
	return c, nil
}

// NewMSSQL returns a validated MSSQL configuration using SQL Server authentication
// when username is non-nil.
func NewMSSQL(server, database string, username, password *string) (MSSQL, error) {
	c := MSSQL{Server: server, Database: database, Username: username, Password: password}
	if err := c.Validate(); err != nil {
		return MSSQL{}, err
	}
	return c, nil
}

// Ptr returns a pointer to v, handy for the optional fields.
func Ptr[T any](v T) *T { return &v }

// Match calls the function matching c's variant. Adding a variant adds a
// parameter, so every dispatch site must be updated. It panics on a nil Config.
func Match[T any](c Config, sqlite func(SQLite) T, postgres func(Postgres) T, mssql func(MSSQL) T) T {
	switch v := c.(type) {
	case SQLite:
		return sqlite(v)
	case *SQLite:
		return sqlite(*v)
	case Postgres:
		return postgres(v)
	case *Postgres:
		return postgres(*v)
	case MSSQL:
		return mssql(v)
	case *MSSQL:
		return mssql(*v)
	}
	panic(fmt.Sprintf("config: unknown configuration variant %T", c))
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateVariant reports every missing required field in one error.
func validateVariant(backend Backend, v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return dberrors.Wrap(err, dberrors.KindConfiguration, "invalid %s configuration", backend)
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s %s)", fe.Field(), fe.Tag(), fe.Param()))
	}
	return fieldError(backend, missing, invalid)
}

func fieldError(backend Backend, missing, invalid []string) error {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields for %s: %s", backend, strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		parts = append(parts, fmt.Sprintf("invalid fields for %s: %s", backend, strings.Join(invalid, ", ")))
	}
	err := dberrors.Configuration("%s", strings.Join(parts, "; "))
	if len(missing) > 0 {
		err.WithDetail("missing", missing)
	}
	return err
}
