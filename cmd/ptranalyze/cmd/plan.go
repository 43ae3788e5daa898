package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkgv/PythonStAn-sub002/internal/config"
	"github.com/lkgv/PythonStAn-sub002/internal/diag"
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/engine"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
)

var planCmd = &cobra.Command{
	Use:   "plan [ir.json]",
	Short: "Print the entry-point functions an analysis run would start from",
	Long: `Parse an IR event-stream document and print which functions the
planning phase (SPEC_FULL.md §6) selects as entry points, without
running the solver. Useful for sanity-checking an adapter's module-level
function detection before committing to a full run.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a YAML configuration file (default: built-in defaults)")
}

func runPlan(_ *cobra.Command, args []string) error {
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

	e := engine.New(adapter, cfg, sites)
	if err := e.Plan(); err != nil {
		if d, ok := err.(*diag.Diagnostic); ok {
			return fmt.Errorf("%s", d.Format(true))
		}
		return err
	}

	entries := e.EntryPoints()
	fmt.Printf("%d entry point(s):\n", len(entries))
	for _, id := range entries {
		fmt.Printf("  %s\n", id)
	}
	return nil
}
