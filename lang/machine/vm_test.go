package machine_test

import (
	"bytes"
	"testing"

	"github.com/mna/vellum/lang/disasm"
	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

// interpretAsm drives a Thread directly off hand-assembled bytecode,
// bypassing the compiler entirely, using Interpret's own compileFn
// injection point to plug in the assembler instead of the Pratt compiler.
func interpretAsm(t *testing.T, th *machine.Thread, src string) machine.InterpretResult {
	t.Helper()
	return th.Interpret([]byte(src), func(th *machine.Thread, b []byte) (*machine.FunctionObj, error) {
		return disasm.Asm(th, b)
	})
}

func TestVMArithmeticOverHandAssembledChunk(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	src := `
	function: <script> 0 0
	constants:
		number 1
		number 2
	code:
		constant 0
		constant 1
		add
		print
		nil
		return
	`
	res := interpretAsm(t, th, src)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "3\n", out.String())
}

func TestVMJumpIfFalseSkipsThenBranch(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	// false ? print "then" : print "else" desugared by hand, indices refer
	// to instruction position in the code section.
	src := `
	function: <script> 0 0
	constants:
		string "then"
		string "else"
	code:
		false
		jump_if_false 6
		pop
		constant 0
		print
		jump 9
		pop
		constant 1
		print
		nil
		return
	`
	res := interpretAsm(t, th, src)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "else\n", out.String())
}

func TestVMLoopAccumulatesViaBackwardJump(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	// Equivalent to: var i = 0; while (i < 3) { print i; i = i + 1; }
	// slot 1 in the script frame holds i (declared as a local, not a global);
	// slot 0 holds the script closure itself.
	src := `
	function: <script> 0 0
	constants:
		number 0
		number 3
		number 1
	code:
		constant 0
		get_local 1
		constant 1
		less
		jump_if_false 14
		pop
		get_local 1
		print
		get_local 1
		constant 2
		add
		set_local 1
		pop
		loop 1
		pop
		nil
		return
	`
	res := interpretAsm(t, th, src)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "0\n1\n2\n", out.String())
}

func TestVMRuntimeErrorOnTypeMismatch(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	src := `
	function: <script> 0 0
	constants:
		number 1
		string "x"
	code:
		constant 0
		constant 1
		add
		return
	`
	res := interpretAsm(t, th, src)
	require.Equal(t, machine.InterpretRuntimeError, res)
	require.Contains(t, out.String(), "Operands must be two numbers or two strings.")
}
