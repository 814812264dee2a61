// Command decsync reads and writes a decsync directory from the shell.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/decsync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report through their formatter; this catches cobra's own
		// errors such as unknown flags.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
