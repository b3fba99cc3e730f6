// cmd/industrydb/root.go
package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chmenegatti/industrydb"
	"github.com/chmenegatti/industrydb/pkg/config"
	"github.com/chmenegatti/industrydb/pkg/dberrors"
	"github.com/chmenegatti/industrydb/pkg/logger"
)

// app carries what the persistent pre-run resolved for the subcommands.
type app struct {
	settingsFile    string
	connectionsFile string
	output          string

	settings config.Settings
	log      *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "industrydb",
		Short: "One client for SQLite, PostgreSQL and SQL Server",
		Long: `industrydb reads named connections from a TOML document and runs SQL
against any of them with the same commands, printing results as a table or JSON.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.settingsFile, "config", "c", "", "Settings file (default is ./industrydb.yaml or $HOME/.industrydb/industrydb.yaml)")
	flags.StringVar(&a.connectionsFile, "connections", "", "TOML file with the [connections] table (overrides connections_file)")
	flags.StringVarP(&a.output, "output", "o", "", "Output format: table or json (overrides output)")

	root.AddCommand(
		newConnectionsCmd(a),
		newURICmd(a),
		newValidateCmd(a),
		newPingCmd(a),
		newQueryCmd(a),
	)
	return root
}

func (a *app) setup() error {
	s, err := config.LoadSettings(a.settingsFile)
	if err != nil {
		return err
	}
	if a.connectionsFile != "" {
		s.ConnectionsFile = a.connectionsFile
	}
	if a.output != "" {
		if a.output != "table" && a.output != "json" {
			return dberrors.Configuration("unsupported output format %q (expected table or json)", a.output)
		}
		s.Output = a.output
	}
	a.settings = s

	log, err := logger.New(logger.Config{
		Level:       s.Logging.Level,
		Encoding:    s.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) connections() (config.Set, error) {
	return config.Load(a.settings.ConnectionsFile)
}

// open opens the named connection, or uri when the --uri flag was given.
func (a *app) open(ctx context.Context, name, uri string) (*industrydb.Connection, error) {
	if uri != "" {
		return industrydb.OpenURI(ctx, uri, industrydb.WithLogger(a.log))
	}
	set, err := a.connections()
	if err != nil {
		return nil, err
	}
	cfg, err := set.Get(name)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithConnection(ctx, name)
	return industrydb.Open(ctx, cfg, industrydb.WithLogger(a.log))
}
