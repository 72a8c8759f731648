// Command zeitgeist records activity events in a local journal and answers
// relevance queries over them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/zeitgeist/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
