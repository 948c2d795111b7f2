// Command sunsetbot runs the sunset notification pipeline once.
//
// Usage:
//
//	sunsetbot run [--dry-run] [--env-file path] [--pretty]
//	sunsetbot token --subject cloud-scheduler --ttl 720h
//	sunsetbot version
//
// Schedule it with cron; the worker binary serves the same pipeline over
// Pub/Sub and HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunsetbot/sunsetbot/internal/app"
	"github.com/sunsetbot/sunsetbot/internal/auth"
	"github.com/sunsetbot/sunsetbot/internal/bot"
	"github.com/sunsetbot/sunsetbot/internal/config"
	"github.com/sunsetbot/sunsetbot/internal/telemetry"
)

const serviceName = "sunsetbot"

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// errRunFailed makes the process exit non-zero after a failed run. The
// failure itself has already been logged and notified.
var errRunFailed = errors.New("run failed")

func main() {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Telegram notifications for tonight's sunset forecast",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		dryRun  bool
		envFile string
		pretty  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the forecast and notify once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if dryRun {
				err = cfg.ValidateDryRun()
			} else {
				err = cfg.Validate()
			}
			if err != nil {
				return err
			}

			log := app.NewLogger(os.Stderr, app.LogConfig{
				Service: serviceName,
				Version: Version,
				Level:   cfg.LogLevel,
				Pretty:  pretty,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tp, err := telemetry.Init(ctx, telemetry.Config{
				ServiceName:    serviceName,
				ServiceVersion: Version,
				Environment:    cfg.Environment,
				OTLPEndpoint:   cfg.OTLPEndpoint,
				Enabled:        cfg.OTelEnabled,
				SampleRatio:    cfg.OTelSampleRatio,
			})
			if err != nil {
				return fmt.Errorf("initializing telemetry: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("failed to shutdown telemetry")
				}
			}()

			metrics, err := tp.RunMetrics()
			if err != nil {
				return fmt.Errorf("initializing metrics: %w", err)
			}

			a := app.New(cfg, app.Options{
				DryRun:  dryRun,
				Metrics: metrics,
				Logger:  log,
			})

			res := a.Runner.Run(ctx)
			if res.Outcome == bot.OutcomeFailed {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the message instead of sending it to Telegram")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Read variables from this file (default .env if present)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Human-readable log output")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the worker's POST /v1/run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}

			tokens := auth.NewTokenService(auth.TokenConfig{SigningKey: cfg.TriggerSigningKey})
			token, expiresAt, err := tokens.Generate(subject, ttl)
			if err != nil {
				return fmt.Errorf("%s: %w", config.EnvTriggerSigningKey, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.ErrOrStderr(), "expires", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cloud-scheduler", "Token subject, logged with every triggered run")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Read variables from this file (default .env if present)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", serviceName, Version, BuildTime)
		},
	}
}

func loadConfig(envFile string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}
