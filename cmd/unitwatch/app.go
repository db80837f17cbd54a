package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/console"
	"github.com/aleister1102/unitwatch/internal/datastore"
	"github.com/aleister1102/unitwatch/internal/fetcher"
	"github.com/aleister1102/unitwatch/internal/filter"
	"github.com/aleister1102/unitwatch/internal/httpclient"
	"github.com/aleister1102/unitwatch/internal/logger"
	"github.com/aleister1102/unitwatch/internal/metrics"
	"github.com/aleister1102/unitwatch/internal/monitor"
	"github.com/aleister1102/unitwatch/internal/notifier"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// run returns an error only for invalid input. Failures after the loop exists are
// narrated and end the process normally.
func run(parent context.Context, flags *AppFlags, out io.Writer) error {
	if _, err := config.LoadDotEnv(flags.EnvFile); err != nil {
		return err
	}

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	flags.Apply(gCfg)
	if err := config.ValidateConfig(gCfg); err != nil {
		return err
	}

	sessionID := uuid.NewString()
	appLogger, err := logger.NewWithSessionID(gCfg.LogConfig, sessionID)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	defer appLogger.Close()
	zLogger := *appLogger.GetZerolog()

	gCfg.NotificationConfig = config.NewSecretsResolver(gCfg.NotificationConfig.SecretsDir, zLogger).
		Resolve(gCfg.NotificationConfig)

	printer := console.New(out, termenv.EnvNoColor())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var monitorMetrics *metrics.Metrics
	if addr := gCfg.MonitorConfig.MetricsAddr; addr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		monitorMetrics = metrics.New(registry)
		go func() {
			if err := metrics.Serve(ctx, addr, registry, zLogger); err != nil {
				zLogger.Error().Err(err).Str("addr", addr).Msg("Metrics endpoint stopped")
			}
		}()
	}

	dispatcher, err := buildDispatcher(gCfg.NotificationConfig, gCfg.FetcherConfig.UserAgent, zLogger)
	if err != nil {
		return err
	}
	if monitorMetrics != nil {
		dispatcher.WithRecorder(monitorMetrics)
	}

	unitFetcher, err := fetcher.New(gCfg.FetcherConfig, gCfg.MonitorConfig.TargetURL, zLogger)
	if err != nil {
		return err
	}

	store := datastore.NewSnapshotStore(gCfg.StorageConfig, zLogger)
	notifyFilter := filter.NewConfig(gCfg.FilterConfig)

	printStartup(printer, gCfg, notifyFilter, store)

	opts := monitor.Options{
		Interval:     gCfg.MonitorConfig.CheckInterval(),
		FetchTimeout: gCfg.MonitorConfig.FetchTimeout(),
		MaxChecks:    gCfg.MonitorConfig.MaxChecks,
		Filter:       notifyFilter,
	}
	if monitorMetrics != nil {
		opts.Metrics = monitorMetrics
	}
	loop := monitor.NewLoop(store, unitFetcher, dispatcher, printer, opts, zLogger)

	zLogger.Info().
		Str("target_url", gCfg.MonitorConfig.TargetURL).
		Dur("interval", gCfg.MonitorConfig.CheckInterval()).
		Str("engine", gCfg.FetcherConfig.Engine).
		Strs("channels", dispatcher.EnabledChannelNames()).
		Msg("Monitor starting")

	checks, err := loop.Run(ctx)

	var unavailable *monitor.FetcherUnavailableError
	switch {
	case errors.As(err, &unavailable):
		zLogger.Error().Err(err).Msg("Monitor could not start")
	case err != nil:
		zLogger.Error().Err(err).Msg("Monitor stopped with an error")
	case ctx.Err() != nil:
		printer.Info("\n\n🛑 Monitoring stopped by user")
	}
	printer.Info("Total checks performed: %d", checks)
	zLogger.Info().Int("checks", checks).Msg("Monitor stopped")
	return nil
}

// buildDispatcher wires the push and email channels. Push requests reuse the
// fetcher's user agent when one is configured.
func buildDispatcher(nc config.NotificationConfig, userAgent string, zLogger zerolog.Logger) (*notifier.Dispatcher, error) {
	builder := httpclient.NewHTTPClientBuilder(zLogger).
		WithTimeout(nc.SendTimeout()).
		WithProxy(nc.Proxy).
		WithRetry(httpclient.DefaultRetryHandlerConfig())
	if userAgent != "" {
		builder = builder.WithUserAgent(userAgent)
	}
	client, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("could not create http client: %w", err)
	}

	channels := []notifier.Channel{
		notifier.NewPushChannel(nc.Push, client, zLogger),
		notifier.NewEmailChannel(nc.Email, zLogger),
	}
	return notifier.NewDispatcher(channels, nc.SendTimeout(), zLogger), nil
}

func printStartup(p *console.Printer, gCfg *config.GlobalConfig, f filter.Config, store *datastore.SnapshotStore) {
	p.Banner("🚀 Starting Apartment Unit Monitor",
		console.KV("URL", gCfg.MonitorConfig.TargetURL),
		console.KV("Check interval", gCfg.MonitorConfig.CheckInterval().String()),
		console.KV("Engine", gCfg.FetcherConfig.Engine),
		console.KV("Snapshot", store.SnapshotPath()),
		console.KV("Report", store.ReportPath()),
	)

	nc := gCfg.NotificationConfig
	if enabled := enabledChannelLabels(nc); len(enabled) > 0 {
		p.Success("Notifications enabled: %s", strings.Join(enabled, ", "))
		p.Info("ℹ️  Notification filter: %s", f.Describe())
	} else {
		p.Info("ℹ️  No notifications configured")
		p.Info("   - Push: add token to %s or set %s", filepath.Join(nc.SecretsDir, config.PushTokenFile), config.EnvPushToken)
		p.Info("   - Email: create %s with email settings", filepath.Join(nc.SecretsDir, config.EmailConfigFile))
	}
	if nc.Push.Method != "" && !nc.Push.Enabled() && nc.Email.Enabled() {
		p.Warn("No push token found (set %s or %s)", config.EnvPushToken,
			filepath.Join(nc.SecretsDir, config.PushTokenFile))
	}
	p.Info("\nℹ️  Checking current availability. First check may take 30-60 seconds...")
	p.Info("Press Ctrl+C to stop monitoring...")
}

// enabledChannelLabels describes each usable channel, e.g. "Email (2 recipients: a@x, b@x)".
func enabledChannelLabels(nc config.NotificationConfig) []string {
	var labels []string
	if nc.Push.Enabled() {
		labels = append(labels, fmt.Sprintf("Push (%s)", nc.Push.Method))
	}
	if nc.Email.Enabled() {
		labels = append(labels, fmt.Sprintf("Email (%d recipients: %s)", len(nc.Email.To), strings.Join(nc.Email.To, ", ")))
	}
	return labels
}
