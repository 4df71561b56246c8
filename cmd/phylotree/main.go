// Command phylotree filters a shark classification table and renders it as
// a tree diagram, from the command line or over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phylotree/internal/blob"
	"phylotree/internal/config"
	"phylotree/internal/core"
	"phylotree/internal/observability"
	"phylotree/internal/presets"
	"phylotree/internal/render"
)

var exit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "phylotree:", err)
		exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	dataPath   string
	sheet      string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "phylotree",
		Short:         "Filter a shark taxonomy table and render it as a tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv("PHYLOTREE_CONFIG"), "YAML config file")
	flags.StringVar(&a.dataPath, "data", "", "classification table (.xlsx, .csv, .tsv); overrides data.path")
	flags.StringVar(&a.sheet, "sheet", "", "workbook sheet; overrides data.sheet")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "json or console")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newLevelsCmd(),
		newPresetsCmd(a),
		newCheckCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataPath != "" {
		cfg.Data.Path = a.dataPath
	}
	if a.sheet != "" {
		cfg.Data.Sheet = a.sheet
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) service(ctx context.Context, opts ...core.Option) (*core.Service, error) {
	renderer, err := render.NewRenderer(a.cfg.Render.Engine, a.cfg.Render.DotPath)
	if err != nil {
		return nil, err
	}
	opts = append([]core.Option{core.WithRenderer(renderer), core.WithLogger(a.logger)}, opts...)
	return core.NewService(ctx, core.Source{Path: a.cfg.Data.Path, Sheet: a.cfg.Data.Sheet}, opts...)
}

func (a *app) blobStore(ctx context.Context) (blob.Store, error) {
	return blob.Open(ctx, a.cfg.BlobStore())
}

func (a *app) presetStore(ctx context.Context) (presets.Store, error) {
	var objects blob.Store
	if a.cfg.Presets.Driver == "" || a.cfg.Presets.Driver == string(presets.DriverBlob) {
		var err error
		if objects, err = a.blobStore(ctx); err != nil {
			return nil, err
		}
	}
	return presets.Open(ctx, a.cfg.PresetStore(), objects)
}
