package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/citadelrisk/graphbuilder/internal/config"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
	"github.com/citadelrisk/graphbuilder/internal/service"
)

func newBuildCmd() *cobra.Command {
	var (
		format  string
		outPath string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "build <account>",
		Short: "Traverse from an account against the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := models.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			return buildLocal(cmd.Context(), cfg, newLogger(cfg), start, f, outPath, migrate)
		},
	}
	cmd.Flags().StringVar(&format, "render", "svg", "Graph format: svg|dot|json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the graph to a file instead of stdout")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations first")

	return cmd
}

func buildLocal(
	ctx context.Context,
	cfg *config.Config,
	log *logrus.Logger,
	start models.AccountID,
	f render.Format,
	outPath string,
	migrate bool,
) error {
	b, err := openBackend(ctx, cfg, log, migrate)
	if err != nil {
		return err
	}
	defer b.Close()

	// The run log persists this run on its way out.
	stopLog := startRunLog(b.runLog)
	defer stopLog()

	data, view, err := b.graph.Render(service.WithCaller(ctx, "cli"), start, f)
	if err != nil {
		return err
	}

	if err := writeOutput(outPath, data); err != nil {
		return err
	}

	s := view.Summary
	if outPath == "" || outPath == "-" {
		log.WithFields(logrus.Fields{
			"account":       start,
			"accounts":      s.TotalAccounts,
			"layers":        s.Layers,
			"depth":         s.Depth,
			"relationships": s.Relationships,
		}).Info("graph built")
		return nil
	}

	output(s, fmt.Sprintf("%d", s.TotalAccounts), func() {
		formatTable([]string{"METRIC", "VALUE"}, summaryRows(s.TotalAccounts, s.Layers, s.Depth, s.Relationships))
	})

	return nil
}
