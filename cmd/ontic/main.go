// Command ontic compiles the truth and reality contracts, serves calls
// against them and replays their journal.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ontic/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
