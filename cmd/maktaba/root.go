package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maktaba-labs/maktaba/internal/config"
	"github.com/maktaba-labs/maktaba/internal/version"
)

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	env        string
	configPath string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "maktaba",
		Short: "Faceted search API for the maktaba library catalog",
		Long: `maktaba compiles UI filter state into search engine queries and
composes the results with the facet lookups the UI needs.

Run 'maktaba serve' to start the HTTP API, or 'maktaba explain' to see
how a request compiles without contacting the engine.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("maktaba {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(),
		"Environment name, selects config/<env>.yaml")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to a config file (overrides --env lookup)")

	cmd.AddCommand(newServeCmd(&opts))
	cmd.AddCommand(newExplainCmd(&opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the explicit config file when given, else the file for env.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath == "" {
		return config.Load(o.env)
	}
	data, err := os.ReadFile(filepath.Clean(o.configPath))
	if err != nil {
		return config.Config{}, fmt.Errorf("read config %s: %w", o.configPath, err)
	}
	return config.Parse(data)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "maktaba "+version.String())
			return err
		},
	}
}
