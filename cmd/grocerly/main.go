// Command grocerly is the CLI entry point for the meal-planning core.
package main

import (
	"fmt"
	"os"

	"github.com/grocerly/grocerly/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
