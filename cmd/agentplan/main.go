// Agentplan is a CLI tool for planning parallel AI agent execution.
package main

import (
	"fmt"
	"os"

	"github.com/swamp-dev/agentplan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
