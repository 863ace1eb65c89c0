package main

import (
	"fmt"
	"os"

	"github.com/roach88/confstore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "confstore: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
