package disasm_test

import (
	"bytes"
	"testing"

	"github.com/mna/vellum/lang/compiler"
	"github.com/mna/vellum/lang/disasm"
	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestFunctionListsConstantsAndOps(t *testing.T) {
	th := machine.NewThread()
	fn, err := compiler.Compile(th, []byte(`print 1 + 2;`))
	require.NoError(t, err)

	var out bytes.Buffer
	disasm.Function(&out, fn)

	text := out.String()
	require.Contains(t, text, "== <script> ==")
	require.Contains(t, text, "constant")
	require.Contains(t, text, "add")
	require.Contains(t, text, "print")
	require.Contains(t, text, "return")
}

func TestJumpInstructionsShowTarget(t *testing.T) {
	th := machine.NewThread()
	fn, err := compiler.Compile(th, []byte(`if (true) { print 1; } else { print 2; }`))
	require.NoError(t, err)

	var out bytes.Buffer
	disasm.Function(&out, fn)
	require.Contains(t, out.String(), "->")
}

func TestAsmRoundTripsThroughDisassembler(t *testing.T) {
	th := machine.NewThread()
	src := `
	function: adder 0 0
	constants:
		number 1
		number 2
	code:
		constant 0
		constant 1
		add
		return
	`
	fn, err := disasm.Asm(th, []byte(src))
	require.NoError(t, err)
	require.Equal(t, 0, fn.Arity)
	require.Equal(t, "adder", fn.Name.Chars)

	var out bytes.Buffer
	disasm.Function(&out, fn)
	text := out.String()
	require.Contains(t, text, "== adder ==")
	require.Contains(t, text, "constant")
	require.Contains(t, text, "add")
	require.Contains(t, text, "return")
}

func TestAsmRejectsUnknownOpcode(t *testing.T) {
	th := machine.NewThread()
	_, err := disasm.Asm(th, []byte("function: f 0 0\ncode:\n\tbogus\n"))
	require.Error(t, err)
}
