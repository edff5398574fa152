package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"topdock/internal/icon"
	"topdock/internal/infrastructure/logging"
)

// EnvPrefix prefixes every environment override, e.g. TOPDOCK_POLL_INTERVAL
const EnvPrefix = "TOPDOCK"

// Config keys
const (
	KeyPollInterval = "poll_interval"
	KeyIconSize     = "icon_size"
	KeyLogLevel     = "log_level"
	KeyLogPretty    = "log_pretty"
	KeyListenAddr   = "listen_addr"
)

// Config is the effective topdock configuration
type Config struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
	IconSize     string        `mapstructure:"icon_size" yaml:"icon_size" json:"icon_size"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogPretty    bool          `mapstructure:"log_pretty" yaml:"log_pretty" json:"log_pretty"`
	ListenAddr   string        `mapstructure:"listen_addr" yaml:"listen_addr" json:"listen_addr"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		PollInterval: 500 * time.Millisecond,
		IconSize:     icon.Small.String(),
		LogLevel:     "info",
		LogPretty:    false,
		ListenAddr:   "127.0.0.1:8765",
	}
}

// SetDefaults registers the defaults with v
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault(KeyPollInterval, d.PollInterval)
	v.SetDefault(KeyIconSize, d.IconSize)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogPretty, d.LogPretty)
	v.SetDefault(KeyListenAddr, d.ListenAddr)
}

// DefaultConfigPath returns $HOME/.config/topdock/config.yaml, or "" when
// the home directory is unknown
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "topdock", "config.yaml")
}

// Options controls where Load looks for configuration
type Options struct {
	// ConfigFile is an explicit YAML file; it must exist when set.
	ConfigFile string
	// EnvFile is loaded into the process environment before env overrides
	// are read. Missing files are ignored. Defaults to ".env".
	EnvFile string
	// Fs is the filesystem config files are read from. Defaults to the OS.
	Fs afero.Fs
}

// Load merges defaults, the YAML file, TOPDOCK_* environment variables and
// any flags already bound to v, in increasing priority, and validates the
// result.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}
	if opts.Fs != nil {
		v.SetFs(opts.Fs)
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, explicit string) error {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return nil
	}

	path := DefaultConfigPath()
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the poller, logger or server cannot use
func (c *Config) Validate() error {
	var problems []string

	if c.PollInterval <= 0 {
		problems = append(problems, fmt.Sprintf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if _, err := icon.ParseSize(c.IconSize); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		problems = append(problems, fmt.Sprintf("listen_addr %q: %v", c.ListenAddr, err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Size returns the configured icon size class
func (c *Config) Size() icon.Size {
	size, err := icon.ParseSize(c.IconSize)
	if err != nil {
		return icon.Small
	}
	return size
}

// LoggerOptions maps the logging keys onto logging.Options
func (c *Config) LoggerOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Pretty: c.LogPretty}
}

// YAML renders the effective configuration
func (c *Config) YAML() (string, error) {
	out := struct {
		PollInterval string `yaml:"poll_interval"`
		IconSize     string `yaml:"icon_size"`
		LogLevel     string `yaml:"log_level"`
		LogPretty    bool   `yaml:"log_pretty"`
		ListenAddr   string `yaml:"listen_addr"`
	}{
		PollInterval: c.PollInterval.String(),
		IconSize:     c.IconSize,
		LogLevel:     c.LogLevel,
		LogPretty:    c.LogPretty,
		ListenAddr:   c.ListenAddr,
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(data), nil
}
