// Command pkgbrokerd is the package-management broker daemon: it loads
// configuration, wires the backend, scheduler, policy, and network
// probe collaborators into a control object, and serves the bus over
// HTTP until told to quit.
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
