// options.go
package industrydb

import (
	"go.uber.org/zap"

	"github.com/chmenegatti/industrydb/pkg/logger"
	"github.com/chmenegatti/industrydb/pkg/metrics"
	"github.com/chmenegatti/industrydb/pkg/sqlconn"
)

// Option configures a Connection at Open.
type Option func(*options)

type options struct {
	log     *zap.Logger
	metrics *metrics.Collector
}

func defaultOptions() options {
	return options{log: logger.Get()}
}

// WithLogger sets the logger used for lifecycle and statement events. The
// default is the process-wide logger from pkg/logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics reports operations to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// SelectOption refines a Select.
type SelectOption func(*sqlconn.SelectQuery)

// Where filters rows with clause, inserted after WHERE. Without args the
// clause is sent exactly as written. With args, every '?' in it is a
// placeholder, rebound to the backend's style ($1, @p1).
func Where(clause string, args ...any) SelectOption {
	return func(q *sqlconn.SelectQuery) {
		q.Where = clause
		q.Args = args
	}
}

// Columns projects the result onto the named columns.
func Columns(names ...string) SelectOption {
	return func(q *sqlconn.SelectQuery) { q.Columns = names }
}

// Limit caps the number of rows returned. Zero or less means no cap.
func Limit(n int) SelectOption {
	return func(q *sqlconn.SelectQuery) { q.Limit = n }
}
