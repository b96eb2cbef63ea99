// Package main is the entry point for the Crowdhook webhook service.
//
// It loads configuration, wires the Slack notifier, the dispatch router and the
// Bugcrowd webhook handler onto the core chassis, then serves.
//
// Inside AWS Lambda (AWS_LAMBDA_RUNTIME_API set) requests arrive as API
// Gateway proxy events; otherwise a standard HTTP server listens on the
// configured port. Graceful shutdown is handled via SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"golang.org/x/sync/errgroup"

	"crowdhook/internal/api/handlers"
	"crowdhook/internal/config"
	"crowdhook/internal/core"
	"crowdhook/internal/notifications/dispatch"
	"crowdhook/internal/notifications/metrics"
	"crowdhook/internal/notifications/slack"
	"crowdhook/internal/types"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("crowdhook starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	recorder, err := newRecorder(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	srv, err := buildServer(cfg, logger, nil, recorder)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		logger.Info("running in lambda mode")
		lambda.Start(chiadapter.New(srv.Router()).ProxyWithContext)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runHTTPServer(ctx, srv, cfg, logger)
}

// buildServer wires the notification pipeline onto a mounted server.
// httpClient may be nil; the Slack client then builds its own.
func buildServer(cfg *config.Config, logger *slog.Logger, httpClient *http.Client, recorder metrics.Recorder) (*core.Server, error) {
	appLogger := types.NewSlogAdapter(logger)

	slackClient, err := slack.NewClient(slack.Config{
		APIURL:  cfg.Slack.APIURL,
		Token:   cfg.Slack.BotToken,
		Timeout: cfg.Slack.Timeout,
	}, httpClient, appLogger.With("component", "slack"))
	if err != nil {
		return nil, fmt.Errorf("creating slack client: %w", err)
	}

	router, err := dispatch.NewRouter(dispatch.Settings{
		Channels: dispatch.Channels{
			NewBlocker:              cfg.Channels.NewBlocker,
			ResolvedBlocker:         cfg.Channels.ResolvedBlocker,
			NewSubmission:           cfg.Channels.NewSubmission,
			PendingSubmissionUpdate: cfg.Channels.PendingSubmissionUpdate,
			DuplicateNotApplicable:  cfg.Channels.DuplicateNotApplicable,
		},
		TrackerHost:  cfg.Tracker.Host,
		Organization: cfg.Tracker.Organization,
	}, slackClient, appLogger.With("component", "dispatch"), dispatch.WithMetrics(recorder))
	if err != nil {
		return nil, fmt.Errorf("creating dispatch router: %w", err)
	}

	webhookHandler, err := handlers.NewBugcrowdWebhookHandler(router, cfg.Webhook.Secret, cfg.Server.MaxBodySize, logger)
	if err != nil {
		return nil, fmt.Errorf("creating webhook handler: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Registrars = append(srv.Registrars, webhookHandler.RegisterRoutes)
	srv.HealthProbes = append(srv.HealthProbes, core.NewBreakerProbe(slack.BreakerName, slackClient.BreakerState))
	srv.MountRoutes()

	return srv, nil
}

// newRecorder returns a CloudWatch recorder when metrics are enabled and a
// no-op recorder otherwise.
func newRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (metrics.Recorder, error) {
	if !cfg.Observability.MetricsEnabled {
		return metrics.Nop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return metrics.NewCloudWatchRecorder(
		cloudwatch.NewFromConfig(awsCfg),
		cfg.Observability.MetricNamespace,
		types.NewSlogAdapter(logger).With("component", "metrics"),
	), nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	return hasRuntimeAPI
}

// runHTTPServer serves until ctx is cancelled, then drains in-flight requests.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
