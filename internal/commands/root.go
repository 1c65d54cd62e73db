// Package commands implements the command line interface of the components
// server.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options are the values shared by all commands.
type options struct {
	v    *viper.Viper
	file string
}

// NewRootCommand creates the root command with all subcommands attached.
// Each call returns an independent command tree with its own configuration.
func NewRootCommand() *cobra.Command {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "components",
		Short: "Web application composed from components",
		Long: `components serves a small web application whose parts are wired
together by a component container.

Configuration is read from an optional YAML file, command line flags and
COMPONENTS_* environment variables.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.file, "config", "", "config file (YAML)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	// These should never fail as the flags are defined above.
	_ = opts.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(newServeCommand(opts))
	return root
}
