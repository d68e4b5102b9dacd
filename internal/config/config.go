package config

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/leighmacdonald/bf4-status/internal/bf4db"
	"github.com/leighmacdonald/bf4-status/internal/frostbite"
)

var (
	errConfigRead  = errors.New("failed to read config file")
	errConfigValue = errors.New("invalid config value")
	errLoggerInit  = errors.New("failed to initialize logger")
)

const (
	ConfigDirName      = "bf4-status"
	DefaultConfigName  = "bf4-status"
	DefaultLogName     = "bf4-status.log"
	DefaultLockName    = "bf4-status"
	EnvPrefix          = "bf4status"
	DefaultHTTPTimeout = 15 * time.Second
	DefaultRefresh     = 60 * time.Second
)

type Config struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	// Timeout bounds each admin protocol call. Zero waits forever.
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxPacketSize uint32        `mapstructure:"max_packet_size"`

	LookupBaseURL    string        `mapstructure:"lookup_base_url"`
	LookupProfileURL string        `mapstructure:"lookup_profile_url"`
	LookupTimeout    time.Duration `mapstructure:"lookup_timeout"`
	LookupDelay      time.Duration `mapstructure:"lookup_delay"`
	LookupAttempts   int           `mapstructure:"lookup_attempts"`
	LookupRetryDelay time.Duration `mapstructure:"lookup_retry_delay"`

	// SortStrategy selects how players are ordered within a team, "lexical" or "numeric".
	SortStrategy string `mapstructure:"sort_strategy"`

	// Refresh is how often serve mode collects a new report.
	Refresh       time.Duration `mapstructure:"refresh"`
	ListenAddress string        `mapstructure:"listen_address"`
	GeoIPDBPath   string        `mapstructure:"geoip_db_path"`
	// RegionAPIURL enables region lookups through a remote ip info api when no geoip
	// database is configured.
	RegionAPIURL string `mapstructure:"region_api_url"`
	LockName     string `mapstructure:"lock_name"`
	Debug        bool   `mapstructure:"debug"`

	// User supplied entries take precedence over DefaultMapNames and DefaultModeNames.
	MapNames  NameTable `mapstructure:"map_names"`
	ModeNames NameTable `mapstructure:"mode_names"`
}

// ServerAddress returns the host:port of the game server admin interface. An address that
// already carries a port is used as is.
func (c Config) ServerAddress() string {
	if _, _, err := net.SplitHostPort(c.Address); err == nil {
		return c.Address
	}

	port := c.Port
	if port == 0 {
		port = frostbite.DefaultPort
	}

	return net.JoinHostPort(c.Address, strconv.Itoa(port))
}

func (c Config) ClientOpts() frostbite.ClientOpts {
	return frostbite.ClientOpts{Timeout: c.Timeout, MaxPacketSize: c.MaxPacketSize}
}

func (c Config) LookupOpts() bf4db.Opts {
	return bf4db.Opts{
		BaseURL:    c.LookupBaseURL,
		ProfileURL: c.LookupProfileURL,
		Timeout:    c.LookupTimeout,
		Delay:      c.LookupDelay,
		Retry: bf4db.RetryPolicy{
			MaxAttempts: c.LookupAttempts,
			Delay:       c.LookupRetryDelay,
		},
	}
}

// Validate checks the values that can not be defaulted.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.Join(errConfigValue, errors.New("address is required"))
	}

	if c.Port < 0 || c.Port > 65535 {
		return errors.Join(errConfigValue, errors.New("port out of range"))
	}

	if c.LookupAttempts < 1 {
		return errors.Join(errConfigValue, errors.New("lookup_attempts must be at least 1"))
	}

	return nil
}

// Path generates a path pointing to the filename under this apps defined $XDG_CONFIG_HOME.
func Path(name string) string {
	fullPath, errFullPath := xdg.ConfigFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		panic(errFullPath)
	}

	return fullPath
}

// LoggerInit sets up the slog global handler writing to a log file in the config dir. When
// console is set, output is mirrored to stderr.
func LoggerInit(logPath string, level slog.Level, console bool) (io.Closer, error) {
	if err := os.MkdirAll(path.Join(xdg.ConfigHome, ConfigDirName), 0o750); err != nil {
		return nil, errors.Join(err, errLoggerInit)
	}

	logFile, errLogFile := os.Create(path.Join(xdg.ConfigHome, ConfigDirName, logPath))
	if errLogFile != nil {
		return nil, errors.Join(errLogFile, errLoggerInit)
	}

	var writer io.Writer = logFile
	if console {
		writer = io.MultiWriter(logFile, os.Stderr)
	}

	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}))

	slog.SetDefault(logger)

	return logFile, nil
}
