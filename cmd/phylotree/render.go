package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phylotree/internal/core"
	"phylotree/internal/filter"
	"phylotree/internal/presets"
	"phylotree/internal/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		state      stateFlags
		presetName string
		format     string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the filtered tree to a file or stdout",
		Long: `Render the filtered classification as DOT, SVG, PNG or JSON.

Example:
  phylotree render --data sharks.xlsx --level Order --level Family \
    --select Order=Lamniformes --format png -o lamniformes.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			base := filter.DefaultState()
			if presetName != "" {
				loaded, err := a.loadPreset(ctx, presetName)
				if err != nil {
					return err
				}
				base = loaded
			}
			st, err := state.apply(base)
			if err != nil {
				return err
			}
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			out, err := svc.Render(ctx, st, f)
			if errors.Is(err, core.ErrNoData) {
				fmt.Fprintln(cmd.ErrOrStderr(), core.NoDataNotice)
				return nil
			}
			if err != nil {
				return err
			}
			if output == "" {
				output = out.Filename
			}
			if err := writeOutput(cmd.OutOrStdout(), output, out.Bytes); err != nil {
				return err
			}
			a.logger.Info("rendered",
				zap.String("format", string(f)),
				zap.String("engine", out.Engine),
				zap.String("output", output),
				zap.Int("bytes", len(out.Bytes)))
			return nil
		},
	}
	state.register(cmd)
	cmd.Flags().StringVar(&presetName, "preset", "", "start from a saved preset")
	cmd.Flags().StringVar(&format, "format", "svg", "dot, svg, png or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: <title>.<format>)`)
	return cmd
}

func (a *app) loadPreset(ctx context.Context, name string) (filter.State, error) {
	store, err := a.presetStore(ctx)
	if err != nil {
		return filter.State{}, err
	}
	defer func() { _ = store.Close() }()
	p, err := store.Load(ctx, name)
	if err != nil {
		return filter.State{}, err
	}
	return presets.ToState(p), nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
