package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"AhaAggregator/internal/app"
	"AhaAggregator/internal/config"
	"AhaAggregator/internal/logging"
)

type rootFlags struct {
	config  string
	dataDir string
	output  string
}

// load resolves configuration with CLI flags applied last.
func (f *rootFlags) load() config.Config {
	cfg := config.Load(strings.TrimSpace(f.config))
	if f.dataDir != "" {
		cfg.Data.Dir = f.dataDir
	}
	if f.output != "" {
		cfg.Render.Output = f.output
	}
	return cfg
}

func (f *rootFlags) application(ctx context.Context) (*app.Application, error) {
	cfg := f.load()
	return app.New(ctx, cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "ahaggregator",
		Short:         "Collect, classify and publish AI aha moments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path (defaults to $AHA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Directory holding the JSONL logs")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "", "Path of the generated HTML document")

	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newCollectCommand(flags))
	rootCmd.AddCommand(newClassifyCommand(flags))
	rootCmd.AddCommand(newRenderCommand(flags))
	rootCmd.AddCommand(newExportCommand(flags))

	return rootCmd
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run collect, classify and render in sequence",
		Long: `Run collects new posts, classifies them and regenerates the document.

Classification is skipped when collection finds nothing new, so items whose
oracle call failed earlier wait for the next run that collects something.
Use "ahaggregator classify" to retry them without collecting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := flags.application(ctx)
			if err != nil {
				return err
			}

			if interval > 0 {
				return application.RunEvery(ctx, interval)
			}

			summary, err := application.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Stage", "Result"},
				[][]string{
					{"New items collected", strconv.Itoa(summary.Collected)},
					{"Classified", strconv.Itoa(summary.Classify.Classified)},
					{"Newly accepted", strconv.Itoa(summary.Classify.Accepted)},
					{"Skipped (low engagement)", strconv.Itoa(summary.Classify.LowEngagement)},
					{"Failed", strconv.Itoa(summary.Classify.Failed)},
					{"Total accepted", strconv.Itoa(summary.TotalAccepted)},
					{"Document", summary.Output},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Repeat the pipeline at this interval until interrupted (e.g. 6h)")
	return cmd
}

func newCollectCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch new candidate posts into the raw log",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := flags.application(cmd.Context())
			if err != nil {
				return err
			}
			n, err := application.Collect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collected %d new items\n", n)
			return nil
		},
	}
}

func newClassifyCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Classify raw items not yet in the classified log",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := flags.application(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := application.Classify(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Pending", "Low engagement", "Failed", "Classified", "Accepted"},
				[][]string{{
					strconv.Itoa(stats.Pending),
					strconv.Itoa(stats.LowEngagement),
					strconv.Itoa(stats.Failed),
					strconv.Itoa(stats.Classified),
					strconv.Itoa(stats.Accepted),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newRenderCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Regenerate the HTML document from the accepted log",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := flags.application(cmd.Context())
			if err != nil {
				return err
			}
			output, total, err := application.Render(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s with %d aha moments\n", output, total)
			return nil
		},
	}
}

func newExportCommand(flags *rootFlags) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mirror the accepted log into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := flags.application(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := application.Export(cmd.Context(), dbPath)
			if err != nil {
				return err
			}

			layers := make([]string, 0, len(stats.ByLayer))
			for layer := range stats.ByLayer {
				layers = append(layers, layer)
			}
			sort.Strings(layers)
			rows := make([][]string, 0, len(layers))
			for _, layer := range layers {
				rows = append(rows, []string{layer, strconv.Itoa(stats.ByLayer[layer])})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d new moments to %s (%d already present)\n", stats.Exported, dbPath, stats.Skipped)
			fmt.Fprintln(out, renderTable([]string{"Layer", "Moments"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "aha_moments.db", "SQLite database file")
	return cmd
}
