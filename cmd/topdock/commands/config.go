package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"topdock/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect topdock configuration",
	Long:  `View the effective topdock configuration after files, environment and flags are merged.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Example: `  # Show configuration as YAML (default)
  topdock config show

  # Show configuration as JSON
  topdock config show --format json`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

var formatFlag string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml or json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch formatFlag {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			*config.Config
			PollInterval string `json:"poll_interval"`
		}{cfg, cfg.PollInterval.String()})
	case "yaml":
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", formatFlag)
	}
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Println(used)
		return nil
	}
	fmt.Println(config.DefaultConfigPath())
	return nil
}
