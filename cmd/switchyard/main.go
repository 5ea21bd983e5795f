// Command switchyard serves a small blog routed by switchyard and runs its
// console routes.
package main

import (
	"fmt"
	"os"

	"github.com/augustoroman/switchyard"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "switchyard",
		Short: "Serve or call the switchyard demo blog",
		Long: `switchyard runs a demo blog through the switchyard router.

The same routes answer HTTP requests (serve) and console invocations
(call), and the route table can be listed with routes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	load := func() (*app, error) {
		cfg := switchyard.MapConfig{}
		if configPath != "" {
			var err error
			if cfg, err = switchyard.LoadConfigFile(configPath); err != nil {
				return nil, err
			}
		}
		return newApp(cfg, switchyard.NewLogger(switchyard.DefaultLoggerConfig))
	}

	rootCmd.AddCommand(
		serveCmd(load),
		callCmd(load),
		routesCmd(load),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
