// Command pkcon is a thin console client for the package-management
// broker: it hits internal/httpapi's HTTP bus surface directly, one
// subcommand per control-surface/transaction operation, printing
// signals as they arrive instead of exposing a bus library to script
// against (§6.7 "CLI surfaces").
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
