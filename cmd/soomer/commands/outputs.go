package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/soomer/internal/capture"
	"github.com/spf13/cobra"
)

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List capturable outputs",
	Long: `List the monitors the active capture backend can see. The INDEX column is
the value for --monitor and the monitor config key.`,
	Example: `  # List outputs in table format (default)
  soomer outputs

  # List outputs in JSON format
  soomer outputs --format json

  # Force a backend
  soomer outputs --backend display`,
	RunE: runOutputs,
}

var outputsFormat string

func init() {
	rootCmd.AddCommand(outputsCmd)

	outputsCmd.Flags().StringVarP(&outputsFormat, "format", "f", "table", "output format (table or json)")
}

func runOutputs(cmd *cobra.Command, args []string) error {
	if outputsFormat != "table" && outputsFormat != "json" {
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", outputsFormat)
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	router, err := startCapture(cfg)
	if err != nil {
		return err
	}
	defer router.Stop()

	outputs, err := router.Outputs()
	if err != nil {
		return fmt.Errorf("failed to list outputs: %w", err)
	}

	if outputsFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(outputs)
	}
	return printOutputsTable(os.Stdout, router.Name(), outputs)
}

func printOutputsTable(out io.Writer, backend string, outputs []capture.Output) error {
	fmt.Fprintf(out, "Backend: %s\n\n", backend)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tX\tY\tWIDTH\tHEIGHT\tPRIMARY")
	for _, o := range outputs {
		primary := ""
		if o.Primary {
			primary = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			o.Index, o.Name,
			o.Bounds.Min.X, o.Bounds.Min.Y,
			o.Bounds.Dx(), o.Bounds.Dy(),
			primary)
	}
	return w.Flush()
}
