package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/sitebrief/app"
	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/models"
	"github.com/use-agent/sitebrief/pipeline"
)

type options struct {
	tier    string
	userID  string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "sitebrief-cli",
		Short:         "Scrape small-business websites and generate site blueprints locally",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&opts.tier, "tier", string(models.TierFree), "subpage budget: free|pro")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall time limit")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(newScrapeCmd(opts))
	root.AddCommand(newGenerateCmd(opts))
	return root
}

func newScrapeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape a site and print the aggregated result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTier(opts.tier)
			if err != nil {
				return err
			}
			a, err := app.Build(config.Load(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			verdict := a.URLs.Check(args[0])
			if !verdict.Valid {
				return models.NewError(models.KindPrecondition, models.ErrCodeInvalidURL, verdict.Reason, nil)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			agg := a.Orchestrator.Scrape(ctx, verdict.Normalized, tier)
			if !agg.Success {
				return models.NewError(models.KindScrape, models.ErrCodeScrapeFailed, agg.Error, nil)
			}
			return printJSON(cmd.OutOrStdout(), agg)
		},
	}
}

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <url>",
		Short: "Run the full pipeline and print the brief and blueprint as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTier(opts.tier)
			if err != nil {
				return err
			}
			cfg := config.Load()
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("SITEBRIEF_LLM_API_KEY is not set")
			}
			a, err := app.Build(cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			res, err := a.Coordinator.Run(ctx, pipeline.RunRequest{
				URL:    args[0],
				UserID: opts.userID,
				Tier:   tier,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), models.GenerateResponse{
				Success:        true,
				Brief:          res.Brief,
				Blueprint:      res.Blueprint,
				DesignGuidance: res.HasGuidance,
				Timing:         res.Timing,
			})
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id for the credit check")
	return cmd
}

func parseTier(s string) (models.Tier, error) {
	switch t := models.Tier(s); t {
	case models.TierFree, models.TierPro:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier %q (want free or pro)", s)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
