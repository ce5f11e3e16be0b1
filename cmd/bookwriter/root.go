package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/opd-ai/bookwriter/config"
	"github.com/opd-ai/bookwriter/srv/util"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bookwriter",
	Short: "Generate a book from a premise with a text completion service",
	Long: `Bookwriter turns a short premise into a paginated PDF book.

The workflow:
  - Plan a chapter count and chapter length from the desired page count
  - Request an outline and let the author edit and confirm it
  - Write every chapter in order, carrying a summary of earlier chapters
  - Lay the chapters out on letter pages and compile a PDF`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// loadConfig reads settings and builds the logger every command shares.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cfgFile, envFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, util.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr), nil
}
