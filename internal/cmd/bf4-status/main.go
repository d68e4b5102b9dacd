package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/fang"
	_ "github.com/joho/godotenv/autoload"
	"github.com/leighmacdonald/bf4-status/internal/bf4db"
	"github.com/leighmacdonald/bf4-status/internal/config"
	"github.com/leighmacdonald/bf4-status/internal/geoip"
	"github.com/leighmacdonald/bf4-status/internal/lock"
	"github.com/leighmacdonald/bf4-status/internal/network"
	"github.com/leighmacdonald/bf4-status/internal/status"
	"github.com/leighmacdonald/bf4-status/internal/ui"
	"github.com/spf13/cobra"
)

var (
	BuildVersion   = "master"
	BuildCommit    = "00000000"
	BuildDate      = time.Now().Format("2006-01-02T15:04:05Z")
	BuildGoVersion = runtime.Version()
	cfgFile        string
	plainOutput    bool
	showLinks      bool
	rootCmd        = &cobra.Command{
		Use:   "bf4-status [address]",
		Short: "Battlefield 4 server status",
		Long:  `bf4-status - Show the players on a Battlefield 4 server along with their bf4db cheat scores`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}

	versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Long:              "Print detailed version information about bf4-status",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		Run:               version,
	}
)

var errApp = errors.New("application error")

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path")
	rootCmd.PersistentFlags().IntP("port", "p", 0, "Admin (RCON) port of the server")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Log debug output to the console")
	rootCmd.Flags().BoolVar(&plainOutput, "plain", false, "Print without colours or tables")
	rootCmd.Flags().BoolVar(&showLinks, "links", false, "Include battlelog links")
	rootCmd.AddCommand(versionCmd, serveCmd)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		slog.Error("Exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func version(_ *cobra.Command, _ []string) {
	fmt.Printf("bf4-status - Battlefield 4 server status\n\n") //nolint:forbidigo
	fmt.Printf("  Version: %s\n", BuildVersion)                //nolint:forbidigo
	fmt.Printf("  Commit:  %s\n", BuildCommit)                 //nolint:forbidigo
	fmt.Printf("  Built:   %s\n", BuildDate)                   //nolint:forbidigo
	fmt.Printf("  Runtime: %s\n\n", BuildGoVersion)            //nolint:forbidigo
}

// app holds everything set up from the config that must be released on exit.
type app struct {
	loader  *config.Loader
	conf    config.Config
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Error("Failed to release resource", slog.String("error", err.Error()))
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

// setup reads the config, applying command line overrides, and brings up logging and the
// instance lock.
func setup(cmd *cobra.Command, args []string, changes chan<- config.Config) (*app, error) {
	loader := config.NewLoader(cfgFile, changes)
	if err := loader.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
		return nil, errors.Join(err, errApp)
	}

	if err := loader.BindPFlag("debug", cmd.Flags().Lookup("debug")); err != nil {
		return nil, errors.Join(err, errApp)
	}

	if len(args) > 0 {
		loader.Set("address", args[0])
	}

	conf, errConfig := loader.Read()
	if errConfig != nil {
		return nil, errors.Join(errConfig, errApp)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Join(err, errApp)
	}

	level := slog.LevelInfo
	if conf.Debug {
		level = slog.LevelDebug
	}

	logFile, errLogger := config.LoggerInit(config.DefaultLogName, level, conf.Debug)
	if errLogger != nil {
		return nil, errors.Join(errLogger, errApp)
	}

	application := &app{loader: loader, conf: conf, closers: []io.Closer{logFile}}

	slog.Info("Starting bf4-status", slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit), slog.String("date", BuildDate),
		slog.String("go", runtime.Version()), slog.String("config", loader.Path()))

	if conf.LockName != "" {
		instanceLock, errLock := lock.Acquire(conf.LockName)
		switch {
		case errors.Is(errLock, errors.ErrUnsupported):
			slog.Warn("Single instance lock not supported on this platform")
		case errLock != nil:
			application.Close()

			return nil, errors.Join(errLock, errApp)
		default:
			application.closers = append(application.closers, closerFunc(instanceLock.Release))
		}
	}

	return application, nil
}

// newCollector wires the collector for conf. The returned closer releases the geoip
// database, if one was opened.
func newCollector(conf config.Config) (*status.Collector, io.Closer, error) {
	httpClient := &http.Client{Timeout: conf.LookupTimeout}
	lookup := bf4db.New(httpClient, conf.LookupOpts())

	var (
		locator status.Locator
		closer  io.Closer = closerFunc(func() error { return nil })
	)

	switch {
	case conf.GeoIPDBPath != "":
		geoLocator, errGeo := geoip.Open(conf.GeoIPDBPath)
		if errGeo != nil {
			slog.Warn("Server region lookups disabled", slog.String("error", errGeo.Error()))
		} else {
			locator = geoLocator
			closer = geoLocator
		}
	case conf.RegionAPIURL != "":
		locator = network.NewIPInfoLocator(httpClient, conf.RegionAPIURL, conf.LookupTimeout)
	}

	collector, errCollector := status.NewCollector(conf, status.DialFrostbite, lookup, locator)
	if errCollector != nil {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close geoip database", slog.String("error", err.Error()))
		}

		return nil, nil, errCollector
	}

	return collector, closer, nil
}

// run prints the status of the server once.
func run(cmd *cobra.Command, args []string) error {
	application, errSetup := setup(cmd, args, nil)
	if errSetup != nil {
		return errSetup
	}
	defer application.Close()

	collector, closer, errCollector := newCollector(application.conf)
	if errCollector != nil {
		return errors.Join(errCollector, errApp)
	}
	application.closers = append(application.closers, closer)

	report, errCollect := collector.Collect(cmd.Context())
	if errCollect != nil {
		return errors.Join(errCollect, errApp)
	}

	output := ui.Plain(report)
	if !plainOutput {
		output = ui.Render(report, ui.RenderOpts{Links: showLinks})
	}

	if _, err := io.WriteString(cmd.OutOrStdout(), output); err != nil {
		return errors.Join(err, errApp)
	}

	return nil
}
