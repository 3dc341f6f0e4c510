package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/vellum/lang/compiler"
	"github.com/mna/vellum/lang/machine"
)

// Repl runs an interactive read-eval-print loop over stdio, matching spec
// §6's "REPL" driver mode. Each line is compiled and run against a single
// persistent Thread, so globals defined on one line are visible to the
// next, until EOF.
func (c *Cmd) Repl(_ context.Context, stdio mainer.Stdio, _ []string) error {
	th := machine.NewThread()
	th.Stdout = stdio.Stdout
	th.Stderr = stdio.Stderr

	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return nil
		}
		line := scan.Text()
		if line == "" {
			continue
		}
		th.Interpret([]byte(line), compiler.Compile)
	}
}
