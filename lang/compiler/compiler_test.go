package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (string, machine.InterpretResult) {
	t.Helper()
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out
	res := th.Interpret([]byte(src), Compile)
	return out.String(), res
}

func TestArithmeticAndPrint(t *testing.T) {
	out, res := run(t, `print 1 + 2 * 3;`)
	require.Equal(t, machine.InterpretOK, res)
	require.Equal(t, "7\n", out)
}

func TestStringConcat(t *testing.T) {
	out, res := run(t, `print "foo" + "bar";`)
	require.Equal(t, machine.InterpretOK, res)
	require.Equal(t, "foobar\n", out)
}

func TestVariablesAndScope(t *testing.T) {
	src := `
	var a = 1;
	{
		var a = 2;
		print a;
	}
	print a;
	`
	out, res := run(t, src)
	require.Equal(t, machine.InterpretOK, res)
	require.Equal(t, "2\n1\n", out)
}

func TestClosureSharedCapture(t *testing.T) {
	src := `
	fun makeCounter() {
		var count = 0;
		fun increment() {
			count = count + 1;
			print count;
		}
		return increment;
	}
	var counter = makeCounter();
	counter();
	counter();
	`
	out, res := run(t, src)
	require.Equal(t, machine.InterpretOK, res)
	require.Equal(t, "1\n2\n", out)
}

func TestClassInitAndMethod(t *testing.T) {
	src := `
	class Counter {
		init(start) {
			this.value = start;
		}
		bump() {
			this.value = this.value + 1;
			return this.value;
		}
	}
	var c = Counter(10);
	print c.bump();
	print c.bump();
	`
	out, res := run(t, src)
	require.Equal(t, machine.InterpretOK, res)
	require.Equal(t, "11\n12\n", out)
}

func TestForLoopAccumulation(t *testing.T) {
	src := `
	var total = 0;
	for (var i = 0; i < 5; i = i + 1) {
		total = total + i;
	}
	print total;
	`
	out, res := run(t, src)
	require.Equal(t, machine.InterpretOK, res)
	require.Equal(t, "10\n", out)
}

func TestRuntimeTypeError(t *testing.T) {
	out, res := run(t, `print 1 + "x";`)
	require.Equal(t, machine.InterpretRuntimeError, res)
	require.Contains(t, out, "Operands must be two numbers or two strings.")
}

func TestOwnInitializerIsCompileError(t *testing.T) {
	out, res := run(t, `{ var a = a; }`)
	require.Equal(t, machine.InterpretCompileError, res)
	require.Contains(t, out, "own initializer")
}

func TestReturnAtTopLevelIsCompileError(t *testing.T) {
	_, res := run(t, `return 1;`)
	require.Equal(t, machine.InterpretCompileError, res)
}

func TestTooManyLocals(t *testing.T) {
	// Slot 0 of every function frame is reserved (spec §4.3 "slot zero"), so
	// a function can declare at most 255 further named locals before
	// exhausting the 256-slot frame.
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 255; i++ {
		b.WriteString("var a")
		b.WriteString(itoa(i))
		b.WriteString(" = 0;\n")
	}
	b.WriteString("}\n")
	_, res := run(t, b.String())
	require.Equal(t, machine.InterpretOK, res, "255 locals in one scope must compile")

	b.Reset()
	b.WriteString("{\n")
	for i := 0; i < 256; i++ {
		b.WriteString("var a")
		b.WriteString(itoa(i))
		b.WriteString(" = 0;\n")
	}
	b.WriteString("}\n")
	_, res = run(t, b.String())
	require.Equal(t, machine.InterpretCompileError, res, "256 locals in one scope must fail")
}

func TestTooManyParameters(t *testing.T) {
	params := make([]string, 255)
	for i := range params {
		params[i] = "p" + itoa(i)
	}
	src := "fun f(" + strings.Join(params, ",") + ") { return 0; }"
	_, res := run(t, src)
	require.Equal(t, machine.InterpretOK, res, "255 parameters must compile")

	params = append(params, "extra")
	src = "fun f(" + strings.Join(params, ",") + ") { return 0; }"
	_, res = run(t, src)
	require.Equal(t, machine.InterpretCompileError, res, "256 parameters must fail")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
