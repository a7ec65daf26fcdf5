package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"spacetraveling/app/internal/app/bootstrap"
	"spacetraveling/app/internal/platform/config"
	applog "spacetraveling/app/internal/platform/log"
)

var (
	version    = "dev"
	jsonOutput bool
	envFile    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "prerender",
		Short:         "Pre-render spacetraveling pages into the page store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load when present")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			if jsonOutput {
				printJSON(cmd, map[string]string{"version": version})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "prerender %s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "List every post path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app bootstrap.Result) error {
				paths, err := app.BlogService.PostPaths(cmd.Context())
				if err != nil {
					return eris.Wrap(err, "listing post paths")
				}
				if jsonOutput {
					printJSON(cmd, map[string]interface{}{"paths": paths})
					return nil
				}
				for _, path := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Render the home page and every post page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app bootstrap.Result) error {
				result, err := app.HTTPServer.Warm(cmd.Context())
				if jsonOutput {
					printJSON(cmd, map[string]interface{}{
						"ok":       err == nil,
						"rendered": result.Rendered,
						"failed":   result.Failed,
					})
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "rendered %d pages, %d failed\n", result.Rendered, result.Failed)
				}
				return err
			})
		},
	})

	return rootCmd
}

func withApp(ctx context.Context, fn func(bootstrap.Result) error) error {
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}
	logger.SetOutput(os.Stderr)

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "initialising sentry")
	}
	defer flush()

	app, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "bootstrapping application")
	}
	defer func() {
		if cleanupErr := app.Cleanup(); cleanupErr != nil {
			logger.WithError(cleanupErr).Error("releasing application resources")
		}
	}()

	return fn(app)
}

func printJSON(cmd *cobra.Command, payload interface{}) {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(payload)
}
