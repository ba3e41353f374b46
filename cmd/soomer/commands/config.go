package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bryanchriswhite/soomer/internal/config"
	"github.com/bryanchriswhite/soomer/internal/input"
	"github.com/bryanchriswhite/soomer/internal/snapshot"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the viewer settings",
	Long: `Inspect and edit the settings soomer reads at startup: zoom limits and
easing, background color, which monitor and backend to capture with,
where screenshots go and which keys trigger which action.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Long: `Show the effective settings. The default summary groups them by what they
control and lists key bindings per action; yaml and json print the file
form, which "config set" keys follow.`,
	Example: `  # Grouped summary
  soomer config show

  # The same settings in file form
  soomer config show --format yaml
  soomer config show --format json`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting",
	Long: `Change one setting. The value is parsed by the key's type and the whole
configuration is validated before it is saved. List values such as key
bindings are comma separated; an empty string unbinds the action.`,
	Example: `  # Zoom faster
  soomer config set scale.factor 1.25

  # Save screenshots as JPEG in ~/Pictures
  soomer config set screenshot_save_path ~/Pictures
  soomer config set screenshot_save_name shot.jpg

  # Bind quit to q and x
  soomer config set bindings.quit q,x`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one setting",
	Example: `  # Easing per frame
  soomer config get smooth_factor

  # Keys bound to a fresh save
  soomer config get bindings.save-fresh`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Long:  `List every key accepted by "config get" and "config set".`,
	RunE:  runConfigKeys,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

var configFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configGetCmd, configKeysCmd, configPathCmd)

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "summary", "output format (summary, yaml or json)")
}

func openConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return configMgr, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configMgr, err := openConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	switch configFormat {
	case "summary":
		return writeConfigSummary(os.Stdout, configMgr.GetConfigPath(), cfg)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use summary, yaml or json)", configFormat)
	}
}

// writeConfigSummary prints cfg grouped by concern, with the effective key
// bindings listed under each action
func writeConfigSummary(out io.Writer, path string, cfg *config.Config) error {
	bindings, err := cfg.KeyBindings()
	if err != nil {
		return fmt.Errorf("failed to load key bindings: %w", err)
	}
	byAction := bindings.Config()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Config file:\t%s\n", path)

	fmt.Fprintln(w, "\nView")
	fmt.Fprintf(w, "  zoom\t%g..%g, x%g per wheel step\n", cfg.Scale.Min, cfg.Scale.Max, cfg.Scale.Factor)
	fmt.Fprintf(w, "  easing\t%g per frame, frame every %v (%d TPS)\n", cfg.SmoothFactor, cfg.FrameInterval(), cfg.TPS())
	fmt.Fprintf(w, "  background\trgba(%d, %d, %d, %d)\n", cfg.BG.R, cfg.BG.G, cfg.BG.B, cfg.BG.A)
	fmt.Fprintf(w, "  center when smaller\t%t\n", cfg.CenterWhenSmaller)

	fmt.Fprintln(w, "\nCapture")
	fmt.Fprintf(w, "  backend\t%s\n", cfg.CaptureBackend)
	fmt.Fprintf(w, "  monitor\t%d\n", cfg.Monitor)

	fmt.Fprintln(w, "\nScreenshots")
	fmt.Fprintf(w, "  saved as\t%s\n",
		filepath.Join(cfg.ScreenshotSavePath, snapshot.Prefix+"<timestamp>_"+cfg.ScreenshotSaveName))

	fmt.Fprintln(w, "\nLogging")
	fmt.Fprintf(w, "  level\t%s (pretty: %t)\n", cfg.LogLevel, cfg.LogPretty)

	fmt.Fprintln(w, "\nKeys")
	for _, action := range input.BindableActions() {
		keys := strings.Join(byAction[action], ", ")
		if keys == "" {
			keys = "(unbound)"
		}
		fmt.Fprintf(w, "  %s\t%s\n", action, keys)
	}

	return w.Flush()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	configMgr, err := openConfig()
	if err != nil {
		return err
	}

	if err := configMgr.Set(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("✅ Configuration updated: %s = %s\n", args[0], args[1])
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	configMgr, err := openConfig()
	if err != nil {
		return err
	}

	v, err := configMgr.Value(args[0])
	if err != nil {
		return err
	}

	fmt.Println(v)
	return nil
}

func runConfigKeys(cmd *cobra.Command, args []string) error {
	configMgr, err := openConfig()
	if err != nil {
		return err
	}

	for _, key := range configMgr.Keys() {
		fmt.Println(key)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configMgr, err := openConfig()
	if err != nil {
		return err
	}

	fmt.Println(configMgr.GetConfigPath())
	return nil
}
