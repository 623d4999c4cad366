package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/rankgraph/metrics"
	"github.com/TFMV/rankgraph/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve editing sessions over HTTP and WebSocket",
		Long: `Start the HTTP server. Each browser tab gets its own session with the
default two-node graph; sessions expire after the configured idle time.

  rankgraph serve
  rankgraph serve --addr :9090
  RANKGRAPH_LOG_LEVEL=debug rankgraph serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := metrics.InitTracing(a.cfg.Tracing.ServiceName, version, a.cfg.Tracing.Endpoint); err != nil {
				return err
			}
			defer func() {
				if err := metrics.ShutdownTracing(); err != nil {
					a.logger.Warn("tracing shutdown failed", slog.Any("error", err))
				}
			}()

			sessions := server.NewManager(server.ManagerOptions{
				MaxSessions:   a.cfg.Session.MaxSessions,
				IdleTimeout:   a.cfg.Session.IdleTimeout(),
				Canvas:        a.canvas(),
				Tolerance:     a.cfg.Rank.Tolerance,
				MaxIterations: a.cfg.Rank.MaxIterations,
			}, a.logger)
			defer sessions.Close()

			srv := server.New(server.Config{
				Address:      a.cfg.Server.Address,
				ReadTimeout:  a.cfg.Server.ReadTimeout(),
				WriteTimeout: a.cfg.Server.WriteTimeout(),
				IdleTimeout:  a.cfg.Server.IdleTimeout(),
				Canvas:       a.canvas(),
			}, sessions, a.logger)

			Brand.Fprintf(cmd.OutOrStdout(), "rankgraph listening on %s\n", a.cfg.Server.Address)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx)
			})
			g.Go(func() error {
				return sessions.RunJanitor(gctx, janitorInterval(a.cfg.Session.IdleTimeout()))
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.address)")
	return cmd
}

// janitorInterval sweeps a few times per idle period, at most once a minute
func janitorInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval <= 0 || interval > time.Minute {
		return time.Minute
	}
	if interval < time.Second {
		return time.Second
	}
	return interval
}
