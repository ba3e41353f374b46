package commands

import (
	"fmt"

	"github.com/bryanchriswhite/soomer/internal/capture"
	"github.com/bryanchriswhite/soomer/internal/config"
	"github.com/bryanchriswhite/soomer/internal/input"
	"github.com/bryanchriswhite/soomer/internal/snapshot"
	"github.com/bryanchriswhite/soomer/internal/viewer"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Capture the screen and open the zoom viewer",
	Long: `Capture one monitor, or the whole desktop with --all, and open it in a
fullscreen window for panning and zooming.`,
	Example: `  # View the monitor from the config file
  soomer view

  # View the second monitor
  soomer view --monitor 1

  # View every monitor at once
  soomer view --all

  # Replay recorded input, then quit
  soomer view --script demo.json --windowed`,
	RunE: runView,
}

var (
	viewMonitor  int
	viewAll      bool
	viewScript   string
	viewWindowed bool
)

func init() {
	rootCmd.AddCommand(viewCmd)
	addViewFlags(viewCmd)
}

// addViewFlags registers the view flags on cmd. The root command shares
// them so that a bare "soomer" accepts the same options.
func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&viewMonitor, "monitor", "m", 0, "output index to capture (default from config)")
	cmd.Flags().BoolVarP(&viewAll, "all", "a", false, "capture the whole desktop")
	cmd.Flags().StringVar(&viewScript, "script", "", "JSON input script to replay")
	cmd.Flags().BoolVar(&viewWindowed, "windowed", false, "open a window instead of going fullscreen")
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"monitor": "monitor"})
	if err != nil {
		return err
	}

	bindings, err := cfg.KeyBindings()
	if err != nil {
		return fmt.Errorf("failed to load key bindings: %w", err)
	}

	var script *input.Script
	if viewScript != "" {
		if script, err = input.LoadScriptFile(viewScript); err != nil {
			return err
		}
	}

	router, err := startCapture(cfg)
	if err != nil {
		return err
	}
	defer router.Stop()

	img, err := grab(router, cfg.Monitor, viewAll)
	if err != nil {
		return err
	}

	session, err := viewer.NewSession(img, router, snapshot.NewSaver(), viewer.Options{
		Background:        cfg.BG.RGBA(),
		Limits:            cfg.Limits(),
		Smoothing:         cfg.SmoothFactor,
		CenterWhenSmaller: cfg.CenterWhenSmaller,
		SaveDir:           cfg.ScreenshotSavePath,
		SaveName:          cfg.ScreenshotSaveName,
		Bindings:          bindings,
	})
	if err != nil {
		return fmt.Errorf("failed to create viewer session: %w", err)
	}

	return viewer.Run(session, viewer.RunOptions{
		TPS:        cfg.TPS(),
		Fullscreen: !viewWindowed,
		Script:     script,
	})
}

// startCapture builds and starts the capture router for cfg
func startCapture(cfg *config.Config) (*capture.Router, error) {
	router, err := capture.NewRouter(cfg.CaptureBackend)
	if err != nil {
		return nil, err
	}
	if err := router.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}
	return router, nil
}

// grab captures one output, or the whole desktop when all is set
func grab(c capture.Capturer, monitor int, all bool) (*capture.Image, error) {
	var (
		img *capture.Image
		err error
	)
	if all {
		img, err = c.CaptureDesktop()
	} else {
		img, err = c.CaptureOutput(monitor)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}
