// Command pagelens reconstructs page layout from PDF files or
// pre-extracted text primitives.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens/internal/config"
)

var (
	Version   = "0.1.0"
	CommitSha = "unknown"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "pagelens",
		Short:         "Page layout reconstruction engine",
		Long:          "pagelens reconstructs ordered, typed content blocks from the positioned text of PDF pages: columns, reading order, headings, captions, headers and footers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration for a command run.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger at the configured level.
func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pagelens %s (%s)\n", Version, CommitSha)
		},
	}
}
