package commands

import (
	"fmt"

	"github.com/bryanchriswhite/soomer/internal/snapshot"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Save a screenshot without opening the viewer",
	Long: `Capture one monitor, or the whole desktop with --all, and write it to the
configured screenshot directory.`,
	Example: `  # Save the configured monitor
  soomer capture

  # Save the whole desktop as JPEG
  soomer config set screenshot_save_name shot.jpg
  soomer capture --all`,
	RunE: runCapture,
}

var (
	captureMonitor int
	captureAll     bool
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntVarP(&captureMonitor, "monitor", "m", 0, "output index to capture (default from config)")
	captureCmd.Flags().BoolVarP(&captureAll, "all", "a", false, "capture the whole desktop")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"monitor": "monitor"})
	if err != nil {
		return err
	}

	router, err := startCapture(cfg)
	if err != nil {
		return err
	}
	defer router.Stop()

	img, err := grab(router, cfg.Monitor, captureAll)
	if err != nil {
		return err
	}

	path, err := snapshot.NewSaver().Save(img, cfg.ScreenshotSavePath, cfg.ScreenshotSaveName)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
