package machine_test

import (
	"testing"

	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestValueTruth(t *testing.T) {
	require.False(t, machine.Nil.Truth())
	require.False(t, machine.Bool(false).Truth())
	require.True(t, machine.Bool(true).Truth())
	require.True(t, machine.Number(0).Truth())
	require.True(t, machine.Number(-1).Truth())
}

func TestValueEqual(t *testing.T) {
	require.True(t, machine.Equal(machine.Nil, machine.Nil))
	require.True(t, machine.Equal(machine.Number(1), machine.Number(1)))
	require.False(t, machine.Equal(machine.Number(1), machine.Number(2)))
	require.False(t, machine.Equal(machine.Bool(true), machine.Number(1)))
}

func TestValueStringFormatting(t *testing.T) {
	require.Equal(t, "nil", machine.Nil.String())
	require.Equal(t, "true", machine.Bool(true).String())
	require.Equal(t, "3", machine.Number(3).String())
	require.Equal(t, "3.5", machine.Number(3.5).String())
}

func TestInternedStringsShareIdentity(t *testing.T) {
	th := machine.NewThread()
	a := th.GC().NewString("hello")
	b := th.GC().NewString("hello")
	require.True(t, a == b, "identical string content must intern to the same object")
	require.True(t, machine.Equal(machine.ObjValue(a), machine.ObjValue(b)))
}
