package config

import (
	"errors"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/leighmacdonald/bf4-status/internal/bf4db"
	"github.com/leighmacdonald/bf4-status/internal/frostbite"
	"github.com/spf13/viper"
)

// Loader handles setting up viper, loading configuration from files and the environment, and
// broadcasting configuration changes when watching is enabled.
type Loader struct {
	*viper.Viper
	changes chan<- Config
}

// NewLoader creates a loader. An empty configFile searches the default locations.
func NewLoader(configFile string, changes chan<- Config) *Loader {
	loader := Loader{changes: changes, Viper: viper.New()}
	loader.SetDefault("address", "")
	loader.SetDefault("port", frostbite.DefaultPort)
	loader.SetDefault("timeout", "0s")
	loader.SetDefault("max_packet_size", frostbite.DefaultMaxPacketSize)
	loader.SetDefault("lookup_base_url", bf4db.DefaultBaseURL)
	loader.SetDefault("lookup_profile_url", bf4db.DefaultProfileURL)
	loader.SetDefault("lookup_timeout", DefaultHTTPTimeout.String())
	loader.SetDefault("lookup_delay", bf4db.DefaultDelay.String())
	loader.SetDefault("lookup_attempts", 2)
	loader.SetDefault("lookup_retry_delay", "1s")
	loader.SetDefault("sort_strategy", "lexical")
	loader.SetDefault("refresh", DefaultRefresh.String())
	loader.SetDefault("listen_address", "127.0.0.1:8047")
	loader.SetDefault("geoip_db_path", "")
	loader.SetDefault("region_api_url", "")
	loader.SetDefault("lock_name", DefaultLockName)
	loader.SetDefault("debug", false)
	loader.SetConfigType("yaml")
	if configFile != "" {
		loader.SetConfigFile(configFile)
	} else {
		loader.SetConfigName(DefaultConfigName)
		loader.AddConfigPath(Path(""))
		loader.AddConfigPath(".")
	}
	loader.SetEnvPrefix(EnvPrefix)
	loader.AutomaticEnv()

	return &loader
}

// Watch starts watching the config file, sending the newly read config on every change.
func (cl *Loader) Watch() {
	if cl.changes == nil {
		return
	}

	cl.OnConfigChange(cl.onConfigChange)
	cl.WatchConfig()
}

func (cl *Loader) Path() string {
	return cl.ConfigFileUsed()
}

func (cl *Loader) onConfigChange(in fsnotify.Event) {
	if !in.Has(fsnotify.Write) && !in.Has(fsnotify.Rename) && !in.Has(fsnotify.Create) {
		return
	}

	slog.Debug("External config reload triggered", slog.String("file", in.Name))
	config, err := cl.Read()
	if err != nil {
		slog.Error("Error reading config", slog.String("error", err.Error()))

		return
	}

	cl.changes <- config
}

// Read loads the config. A missing config file is not an error, everything can be supplied
// through flags and the environment.
func (cl *Loader) Read() (Config, error) {
	if err := cl.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return Config{}, errors.Join(err, errConfigRead)
		}
	}

	var config Config
	if err := cl.Unmarshal(&config); err != nil {
		return Config{}, errors.Join(err, errConfigRead)
	}

	config.MapNames = mergeNames(DefaultMapNames, config.MapNames)
	config.ModeNames = mergeNames(DefaultModeNames, config.ModeNames)

	return config, nil
}
