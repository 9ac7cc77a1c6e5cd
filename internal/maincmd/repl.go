package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Repl reads stdin line by line, compiling and running each line
// independently against a fresh VM and Heap (spec.md 6: "each line is
// compiled and executed independently with a fresh VM"). A line that fails
// to compile or run prints its error and the REPL continues with the next
// line rather than exiting.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			break
		}
		line := scan.Text()
		if line == "" {
			continue
		}
		// Errors are reported to stderr by RunSource itself; the REPL loop
		// keeps going regardless, so a typo on one line doesn't end the
		// session.
		_ = RunSource(line, stdio)
	}
	return scan.Err()
}
