package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved configuration shared by all commands.
//
// Precedence (lowest to highest): defaults < ontic.toml < ONTIC_* env vars < flags.
type Config struct {
	Database     string `mapstructure:"database"`
	Format       string `mapstructure:"format"`
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	SharedIDs    bool   `mapstructure:"shared_ids"`
	ContractsDir string `mapstructure:"contracts_dir"`
}

// configFlags maps config keys to the flags that override them.
var configFlags = map[string]string{
	"database":      "db",
	"format":        "format",
	"verbose":       "verbose",
	"log_level":     "log-level",
	"shared_ids":    "shared-ids",
	"contracts_dir": "contracts",
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database", "")
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("shared_ids", false)
	v.SetDefault("contracts_dir", "")
}

// newViper builds a viper instance reading configFile, or ontic.toml in the
// working directory when configFile is empty. A missing ontic.toml is not
// an error; a missing explicit file is.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("ONTIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ontic")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// bindFlags lets flags present on the running command override config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range configFlags {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig resolves the configuration for a command invocation.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// parseLogLevel accepts debug, info, warn and error.
func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
	return level, nil
}

// newLogger builds the text logger commands write diagnostics to.
// Verbose forces debug level.
func newLogger(w io.Writer, cfg *Config) (*slog.Logger, error) {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
