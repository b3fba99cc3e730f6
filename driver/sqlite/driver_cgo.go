//go:build cgo

package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

const (
	driverName = "sqlite3"
	dsnParams  = "_busy_timeout=5000&_foreign_keys=1"
)

func errorDetails(err error) map[string]any {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return nil
	}
	return map[string]any{
		"code":          int(serr.Code),
		"extended_code": int(serr.ExtendedCode),
	}
}
