// driver/sqlserver/sqlserver.go
package sqlserver

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
)

const driverName = "sqlserver"

// DefaultConnectTimeout bounds the initial ping when the configuration sets no timeout.
const DefaultConnectTimeout = 10 * time.Second

var _ sqlconn.Dialect = Dialect{}

// Dialect is the Transact-SQL dialect.
type Dialect struct{}

func (Dialect) Name() string                   { return string(config.BackendMSSQL) }
func (Dialect) Quote(ident string) string      { return sqlconn.QuoteWith(ident, "[", "]") }
func (Dialect) BindType() int                  { return sqlx.AT }
func (Dialect) LimitStyle() sqlconn.LimitStyle { return sqlconn.TopClause }

// ErrorDetails reports the error number, state and severity class of a server error.
func (Dialect) ErrorDetails(err error) map[string]any {
	var merr mssql.Error
	if !errors.As(err, &merr) {
		return nil
	}
	return map[string]any{
		"number": merr.Number,
		"state":  merr.State,
		"class":  merr.Class,
	}
}

// DSN returns the go-mssqldb connection URL for c. Encryption defaults to
// disable. With TrustedConnection the credentials are left out so the driver
// falls back to integrated authentication. A server written host\instance
// selects a named instance.
func DSN(c config.MSSQL) string {
	host, instance, _ := strings.Cut(c.Server, `\`)
	if c.Port != nil {
		host = net.JoinHostPort(host, strconv.Itoa(int(*c.Port)))
	}
	u := url.URL{Scheme: "sqlserver", Host: host}
	if instance != "" {
		u.Path = "/" + instance
	}
	if c.Username != nil && !c.TrustedConnection {
		if c.Password != nil {
			u.User = url.UserPassword(*c.Username, *c.Password)
		} else {
			u.User = url.User(*c.Username)
		}
	}

	q := url.Values{}
	q.Set("database", c.Database)
	encrypt := c.Encrypt
	if encrypt == "" {
		encrypt = "disable"
	}
	q.Set("encrypt", encrypt)
	if c.ConnectTimeout > 0 {
		q.Set("connection timeout", strconv.FormatUint(uint64(c.ConnectTimeout), 10))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects to the server described by c and verifies the session with a
// ping bounded by c.ConnectTimeout, or DefaultConnectTimeout when unset.
func Open(ctx context.Context, c config.MSSQL) (*sqlconn.Conn, error) {
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
			"mssql: cannot connect to %s/%s", c.Server, c.Database).
			WithDetail("server", c.Server)
	}
	return conn, nil
}
