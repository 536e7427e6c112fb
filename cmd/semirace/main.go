// Command semirace decides finitely presented semigroups by racing coset
// enumeration against Knuth-Bendix completion.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/semirace/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "semirace:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
