package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"topdock/internal/app"
	"topdock/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "topdock",
		Short: "topdock - foreground window and icon tracker",
		Long: `topdock watches which window has focus, resolves the executable that
owns it and extracts that executable's shell icon.

Features:
  • Foreground window title and owning executable
  • Small or large shell icons as PNG or BMP
  • Change stream over WebSocket
  • REST API for dock and overlay integrations`,
		SilenceUsage: true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/topdock/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable log output")
	rootCmd.PersistentFlags().Duration("poll-interval", 0, "how often the foreground window is sampled (default 500ms)")
	rootCmd.PersistentFlags().String("icon-size", "", "icon size class used while polling (small or large)")

	// Bind flags to viper
	bindFlag(config.KeyLogLevel, "log-level")
	bindFlag(config.KeyLogPretty, "log-pretty")
	bindFlag(config.KeyPollInterval, "poll-interval")
	bindFlag(config.KeyIconSize, "icon-size")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), config.Options{ConfigFile: GetConfigFile()})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewApp(app.Options{Config: cfg})
}
