package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vellum/lang/compiler"
	"github.com/mna/vellum/lang/disasm"
	"github.com/mna/vellum/lang/machine"
)

// Disasm compiles the script at args[0] and prints its disassembled
// bytecode without running it, matching spec §6's "disasm <path>" driver
// mode.
func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return ioErrorf(err)
	}

	th := machine.NewThread()
	th.Stdout = stdio.Stdout
	th.Stderr = stdio.Stderr

	fn, err := compiler.Compile(th, src)
	if err != nil {
		return compileErrorf(err.Error())
	}
	disasm.Function(stdio.Stdout, fn)
	return nil
}
