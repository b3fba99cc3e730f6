package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/iancoleman/strcase"
	"github.com/spf13/cast"

	"github.com/chmenegatti/industrydb/pkg/dberrors"
)

// keyAliases maps normalized alternative spellings onto canonical keys.
var keyAliases = map[string]string{
	"ssl_mode": "sslmode",
	"timeout":  "connect_timeout",
	"user":     "username",
}

// entry is the loosely typed shape of a connection definition.
type entry struct {
	Host              string  `mapstructure:"host"`
	Port              any     `mapstructure:"port"`
	Database          string  `mapstructure:"database"`
	Username          *string `mapstructure:"username"`
	Password          *string `mapstructure:"password"`
	Server            string  `mapstructure:"server"`
	Path              string  `mapstructure:"path"`
	Create            bool    `mapstructure:"create"`
	SSLMode           string  `mapstructure:"sslmode"`
	TrustedConnection bool    `mapstructure:"trusted_connection"`
	Encrypt           any     `mapstructure:"encrypt"`
	ConnectTimeout    any     `mapstructure:"connect_timeout"`
}

// FromMap builds a Config from a generic key/value map such as a decoded TOML
// table. The "type" key selects the variant; unknown keys are ignored. Keys are
// matched after snake_case normalization, so "trustedConnection" and
// "trusted_connection" are equivalent.
func FromMap(m map[string]any) (Config, error) {
	norm := normalizeKeys(m)

	if !hasType(norm) {
		return nil, dberrors.Configuration("missing required field: type").WithDetail("missing", []string{"type"})
	}
	rawType := norm["type"]
	typeName, err := cast.ToStringE(rawType)
	if err != nil {
		return nil, dberrors.Configuration("field type must be a string, got %T", rawType)
	}
	backend, err := ParseBackend(typeName)
	if err != nil {
		return nil, err
	}

	var e entry
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &e,
	})
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "building %s decoder", backend)
	}
	if err := dec.Decode(norm); err != nil {
		return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "decoding %s configuration", backend)
	}

	timeout, err := toTimeout(e.ConnectTimeout)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "invalid connect_timeout for %s", backend)
	}

	var cfg Config
	switch backend {
	case BackendSQLite:
		cfg = SQLite{Path: e.Path, Create: e.Create}
	case BackendPostgres:
		port := DefaultPostgresPort
		if e.Port != nil {
			if port, err = toPort(e.Port); err != nil {
				return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "invalid port for %s", backend)
			}
		}
		cfg = Postgres{
			Host:           e.Host,
			Port:           port,
			Database:       e.Database,
			Username:       deref(e.Username),
			Password:       e.Password,
			SSLMode:        e.SSLMode,
			ConnectTimeout: timeout,
		}
	case BackendMSSQL:
		c := MSSQL{
			Server:            e.Server,
			Database:          e.Database,
			Username:          e.Username,
			Password:          e.Password,
			TrustedConnection: e.TrustedConnection,
			ConnectTimeout:    timeout,
		}
		if c.Server == "" {
			c.Server = e.Host
		}
		if e.Port != nil {
			port, err := toPort(e.Port)
			if err != nil {
				return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "invalid port for %s", backend)
			}
			c.Port = &port
		}
		if e.Encrypt != nil {
			if c.Encrypt, err = cast.ToStringE(e.Encrypt); err != nil {
				return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "invalid encrypt for %s", backend)
			}
		}
		cfg = c
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateMap applies the same rules as FromMap without keeping the result.
// All missing required fields are reported in one error.
func ValidateMap(m map[string]any) error {
	_, err := FromMap(m)
	return err
}

func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := strcase.ToSnake(k)
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
		out[key] = v
	}
	return out
}

func toPort(v any) (uint16, error) {
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > math.MaxUint16 {
		return 0, fmt.Errorf("port %d out of range 1-65535", n)
	}
	return uint16(n), nil
}

func toTimeout(v any) (uint32, error) {
	if v == nil {
		return 0, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("timeout %d out of range", n)
	}
	return uint32(n), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// hasType reports whether the normalized map m carries a non-blank type.
func hasType(m map[string]any) bool {
	switch v := m["type"].(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	}
	return true
}
