// cmd/industrydb/connections.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chmenegatti/industrydb/pkg/config"
)

func newConnectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List the configured connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.connections()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tURI")
			for _, name := range set.Names() {
				cfg := set[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, cfg.Backend(), config.Redacted(cfg))
			}
			return w.Flush()
		},
	}
}

func newURICmd(a *app) *cobra.Command {
	var showPassword bool
	cmd := &cobra.Command{
		Use:   "uri <connection>",
		Short: "Print the connection URI of a configured connection",
		Long:  `Prints the URI with the password masked unless --show-password is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.connections()
			if err != nil {
				return err
			}
			cfg, err := set.Get(args[0])
			if err != nil {
				return err
			}
			uri := config.Redacted(cfg)
			if showPassword {
				uri = config.ToURI(cfg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPassword, "show-password", false, "Print the password in clear text")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the connections file without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.connections()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d connection(s) OK\n", a.settings.ConnectionsFile, len(set))
			return nil
		},
	}
}
