package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/bf4-status/internal/config"
	"github.com/leighmacdonald/bf4-status/internal/status"
	"github.com/leighmacdonald/bf4-status/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve [address]",
	Short: "Serve the server status over HTTP",
	Long:  "Periodically collect the server status and serve the latest report as JSON and plain text",
	Args:  cobra.MaximumNArgs(1),
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	configUpdates := make(chan config.Config)

	application, errSetup := setup(cmd, args, configUpdates)
	if errSetup != nil {
		return errSetup
	}
	defer application.Close()

	application.loader.Watch()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(application.conf.ListenAddress, application.conf.Debug)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Start(groupCtx)
	})

	group.Go(func() error {
		return refresh(groupCtx, application.conf, configUpdates, server)
	})

	if err := group.Wait(); err != nil {
		return errors.Join(err, errApp)
	}

	return nil
}

// refresh collects a new report every conf.Refresh until ctx is cancelled. A config change
// rebuilds the collector and restarts the interval.
func refresh(ctx context.Context, conf config.Config, changes <-chan config.Config, server *web.Server) error {
	collector, closer, errCollector := newCollector(conf)
	if errCollector != nil {
		return errCollector
	}

	defer func() {
		closeCollector(closer)
	}()

	ticker := time.NewTicker(interval(conf))
	defer ticker.Stop()

	collectOnce(ctx, collector, server, interval(conf))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			collectOnce(ctx, collector, server, interval(conf))
		case newConf := <-changes:
			if err := newConf.Validate(); err != nil {
				slog.Error("Ignoring invalid config", slog.String("error", err.Error()))

				continue
			}

			nextCollector, nextCloser, errNext := newCollector(newConf)
			if errNext != nil {
				slog.Error("Ignoring config with invalid collector settings", slog.String("error", errNext.Error()))

				continue
			}

			closeCollector(closer)
			collector, closer, conf = nextCollector, nextCloser, newConf
			ticker.Reset(interval(conf))
			slog.Info("Config reloaded", slog.String("address", conf.ServerAddress()))

			collectOnce(ctx, collector, server, interval(conf))
		}
	}
}

func collectOnce(ctx context.Context, collector *status.Collector, server *web.Server, every time.Duration) {
	report, err := collector.Collect(ctx)
	if err != nil {
		slog.Error("Failed to collect status", slog.String("error", err.Error()))
		server.Failed(err)

		return
	}

	server.Update(report)
	slog.Info("Status updated", slog.String("server", report.Server.Name),
		slog.String("players", report.PlayerCount), slog.Bool("enrichment", report.EnrichmentAvailable),
		slog.String("next", humanize.Time(time.Now().Add(every))))
}

func interval(conf config.Config) time.Duration {
	if conf.Refresh <= 0 {
		return config.DefaultRefresh
	}

	return conf.Refresh
}

func closeCollector(closer io.Closer) {
	if err := closer.Close(); err != nil {
		slog.Error("Failed to close geoip database", slog.String("error", err.Error()))
	}
}
