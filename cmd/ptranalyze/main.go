// Command ptranalyze runs the context- and field-sensitive points-to
// analysis over a lowered event-stream IR document.
package main

import (
	"fmt"
	"os"

	"github.com/lkgv/PythonStAn-sub002/cmd/ptranalyze/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
