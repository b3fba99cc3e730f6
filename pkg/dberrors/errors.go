// Package dberrors defines the error taxonomy shared by every industrydb package.
//
// Errors carry a Kind (configuration, connection or query), a human readable
// message, an optional wrapped cause and optional key/value details. The kind
// sentinels work with errors.Is:
//
//	if errors.Is(err, dberrors.ErrQuery) {
//	    // the backend rejected the statement
//	}
//
// ErrBase matches any *Error regardless of kind.
package dberrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes an Error.
type Kind string

const (
	// KindConfiguration marks malformed or incomplete configuration.
	KindConfiguration Kind = "configuration"
	// KindConnection marks an unreachable backend, rejected credentials or a closed connection.
	KindConnection Kind = "connection"
	// KindQuery marks a statement rejected by the backend.
	KindQuery Kind = "query"
)

// Error is the structured error returned by industrydb.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]any
}

// Sentinels for errors.Is. They never appear as returned values.
var (
	ErrBase          = &Error{}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrConnection    = &Error{Kind: KindConnection}
	ErrQuery         = &Error{Kind: KindQuery}
)

// ErrConnectionClosed is the cause of every operation attempted on a closed connection.
var ErrConnectionClosed = errors.New("connection is closed")

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != "" {
		b.WriteString(string(e.Kind))
		b.WriteString(" error")
	} else {
		b.WriteString("error")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a kind sentinel matching e.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Cause != nil || t.Details != nil {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// WithDetail attaches a key/value pair and returns e for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// DetailKeys returns the detail keys in sorted order.
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Configuration creates a configuration error.
func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

// Connection wraps cause into a connection error.
func Connection(cause error, format string, args ...any) *Error {
	return Wrap(cause, KindConnection, format, args...)
}

// Query wraps a backend failure into a query error. The backend text is kept
// as the cause so Error() carries it unmodified.
func Query(cause error, format string, args ...any) *Error {
	return Wrap(cause, KindQuery, format, args...)
}

// Closed returns the error reported by op on a closed connection.
func Closed(op string) *Error {
	return Wrap(ErrConnectionClosed, KindConnection, "%s", op)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Redact returns err with every occurrence of the given secrets masked in its
// text. The chain is flattened when a secret is found, so the original cause is
// no longer reachable through Unwrap.
func Redact(err error, secrets ...string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	masked := msg
	for _, s := range secrets {
		if s == "" {
			continue
		}
		masked = strings.ReplaceAll(masked, s, "xxxxx")
	}
	if masked == msg {
		return err
	}
	return errors.New(masked)
}
