package machine_test

import (
	"bytes"
	"testing"

	"github.com/mna/vellum/lang/compiler"
	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestNativeFloorTruncatesTowardNegativeInfinity(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	res := th.Interpret([]byte(`print floor(3.7); print floor(-3.2);`), compiler.Compile)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "3\n-4\n", out.String())
}

func TestNativeFloorRejectsNonNumberArgument(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	res := th.Interpret([]byte(`floor("x");`), compiler.Compile)
	require.Equal(t, machine.InterpretRuntimeError, res)
	require.Contains(t, out.String(), "floor() argument must be a number")
}

func TestNativeClockIsMonotonicNonNegative(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	res := th.Interpret([]byte(`var a = clock(); var b = clock(); print b >= a and a >= 0;`), compiler.Compile)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "true\n", out.String())
}

func TestNativeRandomIsWithinUnitRange(t *testing.T) {
	th := machine.NewThread()
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	res := th.Interpret([]byte(`var r = random(); print r >= 0 and r < 1;`), compiler.Compile)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "true\n", out.String())
}
