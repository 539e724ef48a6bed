package main

import (
	"fmt"
	"os"

	"github.com/monocle-dev/taskboard/internal/config"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Project and task tracking API",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.Version = version
}

// loadConfig reads configuration and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logutils.Configure(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
