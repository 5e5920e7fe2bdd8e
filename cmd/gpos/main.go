// Command gpos manages a point-of-sale data directory.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gpos/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
