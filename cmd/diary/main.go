// Command diary runs the password-gated diary.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/diary/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
