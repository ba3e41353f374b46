package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/soomer/internal/config"
	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "soomer",
		Short: "Soomer - zoom into a screenshot of your desktop",
		Long: `Soomer grabs a screenshot of one monitor (or the whole desktop) and shows
it in a fullscreen window you can pan and zoom.

Controls:
  • Mouse wheel zooms around the cursor
  • Left-drag pans
  • r resets the view, c resets the zoom keeping the center
  • s saves the shown screenshot, e saves a fresh one
  • q or Escape quits

Running soomer without a subcommand is the same as "soomer view".`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runView,
	}
)

// flagKeys maps config keys to the global flags that override them
var flagKeys = map[string]string{
	"log_level":       "log-level",
	"capture_backend": "backend",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/soomer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend", "", "capture backend (auto, x11, portal, display)")

	addViewFlags(rootCmd)
}

// loadConfig reads the config file, applies flag overrides and sets up
// logging. extra maps more config keys to command-local flag names.
func loadConfig(cmd *cobra.Command, extra map[string]string) (*config.Config, error) {
	configMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	bind := func(keys map[string]string) error {
		for key, name := range keys {
			flag := cmd.Flag(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := configMgr.BindFlag(key, flag); err != nil {
				return err
			}
		}
		return nil
	}
	if err := bind(flagKeys); err != nil {
		return nil, err
	}
	if err := bind(extra); err != nil {
		return nil, err
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	logger.WithComponent("config").Debug().
		Str("path", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")
	return cfg, nil
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
