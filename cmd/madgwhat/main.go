// Command madgwhat compares native Madgwick filter builds against each other.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/madgwhat/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
