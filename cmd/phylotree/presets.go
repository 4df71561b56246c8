package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phylotree/internal/filter"
	"phylotree/internal/presets"
	"phylotree/pkg/preset"
)

func newPresetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved filter presets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List preset names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.presetStore(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				names, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print a preset document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.presetStore(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				p, err := store.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				doc, err := preset.Encode(p)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a preset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.presetStore(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				existed, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !existed {
					return fmt.Errorf("%w: %s", preset.ErrNotFound, args[0])
				}
				a.logger.Info("preset deleted", zap.String("preset", args[0]))
				return nil
			},
		},
		newPresetSaveCmd(a),
	)
	return cmd
}

func newPresetSaveCmd(a *app) *cobra.Command {
	var (
		state    stateFlags
		fromJSON string
	)
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save the filter flags as a preset, replacing any preset with that name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := filter.DefaultState()
			if fromJSON != "" {
				if err := json.Unmarshal([]byte(fromJSON), &base); err != nil {
					return fmt.Errorf("--state: %w", err)
				}
			}
			st, err := state.apply(base)
			if err != nil {
				return err
			}
			p, err := presets.FromState(args[0], st).Normalize()
			if err != nil {
				return err
			}
			store, err := a.presetStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Save(cmd.Context(), p); err != nil {
				return err
			}
			a.logger.Info("preset saved", zap.String("preset", p.Name))
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", p.Name)
			return nil
		},
	}
	state.register(cmd)
	cmd.Flags().StringVar(&fromJSON, "state", "", "base state as JSON")
	return cmd
}
