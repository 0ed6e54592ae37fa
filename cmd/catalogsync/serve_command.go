package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"catalogsync/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if override := strings.TrimSpace(bind); override != "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				cfg.Server.Bind = override
			}

			return ctx.withApp(signalCtx, func(a *app) error {
				if a.auth.Open() {
					logging.WarnWithContext(a.logger, "api authentication disabled", "auth_disabled",
						logging.String(logging.FieldErrorHint, "set server.token or server.session_secret"),
						logging.String(logging.FieldImpact, "write endpoints accept anonymous requests"),
					)
				}
				srv := a.server()
				if err := srv.Start(signalCtx); err != nil {
					return err
				}
				<-signalCtx.Done()
				a.logger.Info("catalogsync shutting down")
				srv.Stop()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind for this run")
	return cmd
}
