// scope.go
package industrydb

import (
	"context"

	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
)

// Use runs fn with c and closes c when fn returns, fails or panics. c must be
// open: Use on a closed connection fails without calling fn, as a closed
// connection is never reopened. fn's error takes precedence over a close error.
func (c *Connection) Use(fn func(*Connection) error) (err error) {
	if c.IsClosed() {
		return dberrors.Closed("use")
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// With opens cfg, runs fn with the connection and closes it on every exit path.
func With(ctx context.Context, cfg config.Config, fn func(*Connection) error, opts ...Option) error {
	conn, err := Open(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	return conn.Use(fn)
}
