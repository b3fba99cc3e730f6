//go:build !cgo

package sqlite

import (
	"errors"

	"modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	dsnParams  = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
)

func errorDetails(err error) map[string]any {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return nil
	}
	return map[string]any{
		"code":          serr.Code() & 0xff,
		"extended_code": serr.Code(),
	}
}
