package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var foregroundFormat string

var foregroundCmd = &cobra.Command{
	Use:   "foreground",
	Short: "Print the focused window and its executable",
	Example: `  # Print as text
  topdock foreground

  # Print as JSON
  topdock foreground --format json`,
	Args: cobra.NoArgs,
	RunE: runForeground,
}

func init() {
	rootCmd.AddCommand(foregroundCmd)
	foregroundCmd.Flags().StringVarP(&foregroundFormat, "format", "f", "text", "output format (text or json)")
}

func runForeground(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}

	info := application.CurrentForeground()

	switch foregroundFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "text":
		fmt.Printf("Title: %s\n", info.Title)
		if path, ok := info.Path(); ok {
			fmt.Printf("Executable: %s\n", path)
		} else {
			fmt.Println("Executable: (unavailable)")
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'text' or 'json')", foregroundFormat)
	}
}
