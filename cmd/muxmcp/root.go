// file: cmd/muxmcp/root.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "muxmcp",
		Short: "Client for the Mux video platform tool provider",
		Long: `muxmcp starts the Mux tool-provider process on demand, lists its tools
with their parameter schemas, and invokes them with validated arguments.

Credentials come from MUX_TOKEN_ID and MUX_TOKEN_SECRET, a .env file, the
config file, or the OS keyring (see 'muxmcp auth login').`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, commitHash, buildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipConfig"] == "true" {
				return nil
			}
			return a.loadConfig()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SilenceErrors = true
	root.SilenceUsage = true

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&a.opts.envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newToolsCmd(a),
		newCallCmd(a),
		newAskCmd(a),
		newAuthCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfig": "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "muxmcp %s\ncommit: %s\nbuilt: %s\n", Version, commitHash, buildDate)
		},
	}
}
