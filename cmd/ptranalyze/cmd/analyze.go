package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkgv/PythonStAn-sub002/internal/config"
	"github.com/lkgv/PythonStAn-sub002/internal/diag"
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/engine"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
)

var (
	configFile   string
	outputJSON   bool
	analyzeQuiet bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ir.json]",
	Short: "Run the points-to analysis over an IR event-stream document",
	Long: `Run the points-to analysis over a JSON event-stream document (see
SPEC_FULL.md §4.11 for the wire format) and print a summary report, or
the full machine-readable results with --json.

Examples:
  # Analyze a program and print the summary
  ptranalyze analyze program.ir.json

  # Analyze with a custom configuration
  ptranalyze analyze program.ir.json --config config.yaml

  # Emit the full results as JSON
  ptranalyze analyze program.ir.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a YAML configuration file (default: built-in defaults)")
	analyzeCmd.Flags().BoolVar(&outputJSON, "json", false, "emit the full results as JSON instead of a summary")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "suppress notices in the summary report")
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	return config.Load(data)
}

func runAnalyze(_ *cobra.Command, args []string) error {
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	sites := domain.NewSiteTable()
	adapter, err := ir.NewJSONAdapter(data, sites)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filename, err)
	}

	res, err := engine.Analyze(context.Background(), adapter, cfg, sites)
	if err != nil {
		if d, ok := err.(*diag.Diagnostic); ok {
			return fmt.Errorf("%s", d.Format(true))
		}
		return err
	}

	if outputJSON {
		out, err := res.ToJSON()
		if err != nil {
			return fmt.Errorf("serializing results: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if analyzeQuiet {
		res.Notices = nil
	}
	fmt.Print(res.Summary())
	if res.Partial {
		return fmt.Errorf("analysis of %s did not reach a fixpoint", filename)
	}
	return nil
}
