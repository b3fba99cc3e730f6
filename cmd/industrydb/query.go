// cmd/industrydb/query.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chmenegatti/industrydb"
)

// connectionArgs validates "<connection> <rest...>" or, with --uri, "<rest...>".
func connectionArgs(uri *string, rest int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if *uri != "" {
			return cobra.ExactArgs(rest)(cmd, args)
		}
		return cobra.ExactArgs(rest+1)(cmd, args)
	}
}

func splitConnection(uri string, args []string) (string, []string) {
	if uri != "" {
		return "", args
	}
	return args[0], args[1:]
}

func newPingCmd(a *app) *cobra.Command {
	var uri string
	cmd := &cobra.Command{
		Use:   "ping [connection]",
		Short: "Connect to a backend and check it answers",
		Args:  connectionArgs(&uri, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := splitConnection(uri, args)
			conn, err := a.open(cmd.Context(), name, uri)
			if err != nil {
				return err
			}
			return conn.Use(func(c *industrydb.Connection) error {
				if err := c.Ping(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", c.Backend())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "Connection URI to use instead of a configured connection")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var uri string
	cmd := &cobra.Command{
		Use:   "query [connection] <sql>",
		Short: "Run a SQL statement and print its result",
		Long: `Runs the statement verbatim. Row-producing statements print their rows;
other statements print nothing.`,
		Args: connectionArgs(&uri, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, rest := splitConnection(uri, args)
			conn, err := a.open(cmd.Context(), name, uri)
			if err != nil {
				return err
			}
			return conn.Use(func(c *industrydb.Connection) error {
				result, err := c.Execute(cmd.Context(), rest[0])
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), a.settings.Output, result)
			})
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "Connection URI to use instead of a configured connection")
	return cmd
}
