package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/obsops/fleetbrief/internal/config"
	"github.com/obsops/fleetbrief/internal/delivery"
	"github.com/obsops/fleetbrief/internal/history"
	"github.com/obsops/fleetbrief/internal/logging"
	"github.com/obsops/fleetbrief/internal/pipeline"
	"github.com/obsops/fleetbrief/internal/report"
	"github.com/obsops/fleetbrief/pkg/dynatrace"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	flagConfig    string
	flagDryRun    bool
	flagLogLevel  string
	flagLogFormat string
	flagHistoryN  int
)

var rootCmd = &cobra.Command{
	Use:     "fleetbrief",
	Short:   "fleetbrief - daily fleet health digest over iMessage",
	Long:    `fleetbrief polls a monitoring tenant's REST API, scores fleet health, and sends a daily text digest to a recipient over iMessage, writing the report to disk when the send fails.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDigest()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fleetbrief %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent run outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(flagHistoryN)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to an env file (e.g. ~/.fleetbrief/config.env)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: json, console, auto")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Render the digest to stdout without delivering it")
	historyCmd.Flags().IntVarP(&flagHistoryN, "count", "n", 10, "Number of runs to show")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDigest() error {
	// Baseline logger for early startup; reconfigured once config is loaded.
	logging.Init(logging.Config{Format: flagLogFormat, Level: flagLogLevel, Component: "fleetbrief"})
	defer logging.Shutdown()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(logging.Config{
		Format:    firstNonEmpty(flagLogFormat, cfg.LogFormat),
		Level:     firstNonEmpty(flagLogLevel, cfg.LogLevel),
		Component: "fleetbrief",
		FilePath:  cfg.LogFile,
	})

	client, err := dynatrace.NewClient(dynatrace.ClientConfig{
		BaseURL:  cfg.TenantURL,
		APIToken: cfg.APIToken,
		Timeout:  cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	var recorder pipeline.RunRecorder
	if !flagDryRun && cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.HistoryPath).Msg("History unavailable; continuing without it")
		} else {
			defer store.Close()
			recorder = store
		}
	}

	p := pipeline.New(pipeline.Config{
		Fetcher: client,
		Dispatcher: delivery.NewDispatcher(
			delivery.NewIMessageChannel(30*time.Second),
			delivery.NewFileChannel(cfg.ReportsDir),
		),
		Renderer:  report.New(cfg.ProblemWindow),
		History:   recorder,
		Recipient: cfg.Recipient,
		Window:    cfg.ProblemWindow,
		DryRun:    flagDryRun,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcome, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if outcome.DryRun {
		fmt.Println(outcome.Text)
	}
	return nil
}

func showHistory(n int) error {
	logging.Init(logging.Config{Format: firstNonEmpty(flagLogFormat, "auto"), Level: firstNonEmpty(flagLogLevel, "warn"), Component: "fleetbrief"})
	defer logging.Shutdown()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cfg.HistoryPath == "" {
		return fmt.Errorf("no history path configured")
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), n)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		line := fmt.Sprintf("%s  score=%-3d  %-8s", run.StartedAt.Local().Format("2006-01-02 15:04"), run.Score, run.Status)
		if run.Channel != "" {
			line += "  via " + run.Channel
			if run.Fallback {
				line += " (fallback)"
			}
		}
		if run.Error != "" {
			line += "  error: " + run.Error
		}
		fmt.Println(line)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
