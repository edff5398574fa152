package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"topdock/internal/icon"
)

var (
	iconSizeFlag   string
	iconOutFlag    string
	iconFormatFlag string
)

var iconCmd = &cobra.Command{
	Use:   "icon PATH",
	Short: "Extract the shell icon of an executable",
	Example: `  # Write the small icon of notepad as PNG
  topdock icon C:\Windows\System32\notepad.exe --out notepad.png

  # Write the large icon as BMP to stdout
  topdock icon C:\Windows\explorer.exe --size large --format bmp > explorer.bmp`,
	Args: cobra.ExactArgs(1),
	RunE: runIcon,
}

func init() {
	rootCmd.AddCommand(iconCmd)

	iconCmd.Flags().StringVarP(&iconSizeFlag, "size", "s", "small", "icon size (small or large)")
	iconCmd.Flags().StringVarP(&iconOutFlag, "out", "o", "", "output file (default stdout)")
	iconCmd.Flags().StringVarP(&iconFormatFlag, "format", "f", "png", "output format (png or bmp)")
}

func runIcon(cmd *cobra.Command, args []string) error {
	size, err := icon.ParseSize(iconSizeFlag)
	if err != nil {
		return err
	}

	var encode func(*icon.PixelBuffer, io.Writer) error
	switch iconFormatFlag {
	case "png":
		encode = (*icon.PixelBuffer).EncodePNG
	case "bmp":
		encode = (*icon.PixelBuffer).EncodeBMP
	default:
		return fmt.Errorf("unsupported format: %s (use 'png' or 'bmp')", iconFormatFlag)
	}

	application, err := newApp()
	if err != nil {
		return err
	}

	buf, err := application.ExtractIcon(cmd.Context(), args[0], size)
	if err != nil {
		return err
	}

	if iconOutFlag == "" {
		return encode(buf, os.Stdout)
	}

	f, err := os.Create(iconOutFlag)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", iconOutFlag, err)
	}
	if err := encode(buf, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", iconOutFlag, err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %dx%d icon to %s\n", buf.Width, buf.Height, iconOutFlag)
	return nil
}
