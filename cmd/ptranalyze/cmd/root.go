package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ptranalyze",
	Short: "Context-sensitive points-to analysis over a lowered IR event stream",
	Long: `ptranalyze runs a k-CFA, object-sensitive, field-sensitive,
flow-insensitive pointer/points-to analysis over the three-address IR
event stream produced by a front end for a dynamically-typed, class-based
scripting language.

It does not parse or lower source itself: the input is always a JSON
event-stream document (see "ptranalyze analyze --help").`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
