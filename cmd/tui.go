package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/logging"
	"github.com/TFMV/rankgraph/tui"
)

func tuiCmd(a *app) *cobra.Command {
	var (
		seedPath string
		example  bool
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a graph in the terminal",
		Long: `Open the terminal editor. Click a node to select it and another to link
them; right click the background and press a to add a node; double click
removes a node; drag moves it. l toggles linking, r arranges, q quits.

  rankgraph tui
  rankgraph tui --seed graph.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The screen owns stderr, so logs go to a file or nowhere
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			logger, err := logging.New(logging.Options{Level: a.cfg.Log.Level, Format: a.cfg.Log.Format, Output: out})
			if err != nil {
				return err
			}
			a.logger = logger

			graph, err := a.loadGraph(seedPath, example)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()

			machine := editor.NewMachine(ctx, graph, a.engine(), a.canvas(), logger)
			err = tui.New(screen, machine, a.canvas(), logger).Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&seedPath, "seed", "s", "", "Seed graph file (json, yaml, toml, csv)")
	cmd.Flags().BoolVar(&example, "example", false, "Start from the six-node example graph")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	return cmd
}
