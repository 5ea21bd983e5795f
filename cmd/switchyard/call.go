package main

import (
	"fmt"

	"github.com/augustoroman/switchyard"
	"github.com/spf13/cobra"
)

func callCmd(load func() (*app, error)) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "call <segment>...",
		Short: "Dispatch a console route",
		Long: `Dispatch a console route.  The segments form the route path, so
"switchyard call posts count" runs the route /posts/count.`,
		Example: `  switchyard call routes
  switchyard call posts count`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			c, err := a.router.CallRequest(cmd.Context(), cmd.OutOrStdout(), switchyard.ConsoleRequest{Args: args, Hostname: host})
			if err != nil {
				return err
			}
			if c.Match.NotFound {
				return fmt.Errorf("no console route for %q", args)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host name for domain scoped routes")

	return cmd
}

func routesCmd(load func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			writeRoutes(cmd.OutOrStdout(), a.router)
			return nil
		},
	}
}
