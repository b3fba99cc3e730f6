// pkg/config/load.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/chmenegatti/industrydb/pkg/dberrors"
)

// Set maps connection names to their configuration.
type Set map[string]Config

// Get returns the configuration registered under name.
func (s Set) Get(name string) (Config, error) {
	c, ok := s[name]
	if !ok {
		return nil, dberrors.Configuration("unknown connection %q", name).WithDetail("connection", name)
	}
	return c, nil
}

// Names returns the connection names in lexical order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a TOML document holding a [connections] table and returns one
// validated Config per entry:
//
//	[connections.warehouse]
//	type = "postgres"
//	host = "db.internal"
//	database = "plant"
//	username = "reader"
//
// Entries are processed in document order and the first invalid one aborts
// the whole load; no partial Set is returned.
func Load(path string) (Set, error) {
	// 1. The file must exist and be a regular file
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "configuration file not found")
		}
		return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "cannot read configuration file")
	}
	if info.IsDir() {
		return nil, dberrors.Configuration("configuration path %s is a directory", path)
	}

	// 2. Parse the document into a generic tree
	var doc map[string]any
	md, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "failed to parse TOML file %s", path)
	}

	// 3. Require the connections table
	raw, ok := doc["connections"]
	if !ok {
		return nil, dberrors.Configuration("no 'connections' table in %s", path)
	}
	connections, ok := raw.(map[string]any)
	if !ok {
		return nil, dberrors.Configuration("'connections' in %s must be a table, got %T", path, raw)
	}

	// 4. Build every entry, stopping at the first failure
	set := make(Set, len(connections))
	for _, name := range entryOrder(md, connections) {
		cfg, err := buildEntry(name, connections[name])
		if err != nil {
			return nil, err
		}
		set[name] = cfg
	}
	return set, nil
}

func buildEntry(name string, raw any) (Config, error) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil, dberrors.Configuration("connection '%s' must be a table, got %T", name, raw).
			WithDetail("connection", name)
	}
	if !hasType(normalizeKeys(entry)) {
		return nil, dberrors.Configuration("connection '%s' missing 'type' field", name).
			WithDetail("connection", name).
			WithDetail("missing", []string{"type"})
	}
	cfg, err := FromMap(entry)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.KindConfiguration, "invalid configuration for connection '%s'", name).
			WithDetail("connection", name)
	}
	return cfg, nil
}

// entryOrder lists the connection names in the order the document defines
// them. Names the metadata does not report are appended sorted.
func entryOrder(md toml.MetaData, connections map[string]any) []string {
	seen := make(map[string]bool, len(connections))
	order := make([]string, 0, len(connections))
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "connections" {
			continue
		}
		name := key[1]
		if _, ok := connections[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	var rest []string
	for name := range connections {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// String lists the connections with passwords masked.
func (s Set) String() string {
	out := "{"
	for i, name := range s.Names() {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s: %s", name, Redacted(s[name]))
	}
	return out + "}"
}
