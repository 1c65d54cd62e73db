package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/deep-rent/components/app"
	"github.com/deep-rent/components/component"
	"github.com/deep-rent/components/internal/config"
	"github.com/deep-rent/components/internal/server"
	"github.com/deep-rent/components/log"
)

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "address to listen on (default :8080)")
	flags.String("database-dsn", "", "Postgres DSN of the visit counter (default in-memory)")

	_ = opts.v.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = opts.v.BindPFlag("database.dsn", flags.Lookup("database-dsn"))

	return cmd
}

func serve(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.v, opts.file)
	if err != nil {
		return err
	}

	logger := log.New(append(cfg.Log.Options(), log.WithWriter(cmd.ErrOrStderr()))...)
	c := component.New(
		component.WithName(cmd.Root().Name()),
		component.WithLogger(logger),
	)
	server.Register(c, cfg, logger)

	return app.Run(c, func(ctx context.Context, c *component.Container) error {
		s, err := component.Get[*server.Server](c)
		if err != nil {
			return err
		}
		return s.Run(ctx)
	},
		app.WithLogger(logger),
		app.WithTimeout(cfg.Server.ShutdownTimeout),
		app.WithContext(cmd.Context()),
	)
}
