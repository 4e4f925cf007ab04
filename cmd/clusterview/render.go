package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-clusterview/internal/config"
	"github.com/miradorstack/mirador-clusterview/internal/feed"
	"github.com/miradorstack/mirador-clusterview/internal/utils"
)

func newRenderCmd(configPath *string) *cobra.Command {
	var (
		view  string
		ticks int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print one projection as JSON after an optional number of sampler ticks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := utils.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.JSON)

			c, err := newCore(cfg, logger)
			if err != nil {
				return err
			}
			for i := 0; i < ticks; i++ {
				c.sampler.Tick()
			}

			var out any
			switch view {
			case "dashboard":
				out = c.builder.Dashboard()
			case "metrics":
				out = c.builder.Metrics()
			case "alerts":
				out = c.builder.Alerts()
			case "compliance":
				out = c.builder.Compliance()
			case "history":
				out = c.builder.History()
			default:
				return fmt.Errorf("unknown view %q", view)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&view, "view", "dashboard", "Projection to print: dashboard, metrics, alerts, compliance, history")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Sampler ticks to apply before rendering")
	return cmd
}

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a telemetry feed file against the data model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			snap, err := feed.Load(args[0])
			if err != nil {
				return err
			}
			if err := ingestBounds(cfg).Validate(snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d alerts, %d history points)\n", args[0], len(snap.Alerts), len(snap.History))
			return nil
		},
	}
}

