package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vellum/lang/compiler"
	"github.com/mna/vellum/lang/machine"
)

// Run compiles and executes the script at args[0], matching spec §6's
// "run <path>" driver entry point.
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return ioErrorf(err)
	}

	th := machine.NewThread()
	th.Stdout = stdio.Stdout
	th.Stderr = stdio.Stderr

	switch th.Interpret(src, compiler.Compile) {
	case machine.InterpretCompileError:
		return compileErrorf("compile error")
	case machine.InterpretRuntimeError:
		return runtimeErrorf("runtime error")
	}
	return nil
}
