// Package cmd implements the rankgraph command line.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/TFMV/rankgraph/config"
	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/ingest"
	"github.com/TFMV/rankgraph/logging"
	"github.com/TFMV/rankgraph/models"
	"github.com/TFMV/rankgraph/rank"
)

var version = "0.1.0"

// app holds what every subcommand needs once flags are parsed
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rankgraph",
		Short: "rankgraph - interactive weighted graph editor with live PageRank",
		Long: Brand.Sprint("rankgraph") + " - build a directed weighted graph and watch node importance update\n" +
			Subtle.Sprint("Serve it over HTTP, edit it in the terminal, or rank and render seed files"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetVersionTemplate("rankgraph {{ .Version }}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to config.yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Override log format (text, json)")

	root.AddCommand(
		serveCmd(a),
		tuiCmd(a),
		rankCmd(a),
		renderCmd(a),
		versionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		Bad.Fprintf(root.ErrOrStderr(), "rankgraph: %v\n", err)
		return err
	}
	return nil
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) canvas() editor.Canvas {
	return editor.Canvas{Width: a.cfg.Canvas.Width, Height: a.cfg.Canvas.Height}
}

func (a *app) engine() *rank.Engine {
	engine := rank.NewEngine(a.logger)
	engine.Tolerance = a.cfg.Rank.Tolerance
	engine.MaxIterations = a.cfg.Rank.MaxIterations
	return engine
}

// loadGraph builds the starting graph from a seed file, the example graph or
// the default two-node seed
func (a *app) loadGraph(seedPath string, example bool) (*models.Graph, error) {
	canvas := a.canvas()
	switch {
	case seedPath != "":
		return ingest.LoadFile(seedPath, canvas.Width, canvas.Height)
	case example:
		return ingest.ExampleSeed().Build("example", canvas.Width, canvas.Height)
	default:
		return ingest.DefaultSeed().Build("untitled", canvas.Width, canvas.Height)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rankgraph %s\n", version)
		},
	}
}
