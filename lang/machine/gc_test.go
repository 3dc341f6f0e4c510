package machine_test

import (
	"bytes"
	"testing"

	"github.com/mna/vellum/lang/compiler"
	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestGCReclaimsUnreachableStrings(t *testing.T) {
	th := machine.NewThread()
	gc := th.GC()
	gc.Stress = true

	// Allocate a string that nothing keeps reachable once this call returns.
	first := gc.NewString("garbage")

	// Stress mode forces a collection on every further allocation; nothing
	// roots "garbage" (it was never pushed/retained past its own
	// construction), so the very next allocation must sweep it and prune
	// its intern entry.
	res := th.Interpret([]byte(`var keep = "kept";`), compiler.Compile)
	require.Equal(t, machine.InterpretOK, res)

	second := gc.NewString("garbage")
	require.NotSame(t, first, second, "a collected string's intern entry must be pruned so re-interning allocates a fresh object")
}

func TestGCStressModeSurvivesAllocationHeavyProgram(t *testing.T) {
	th := machine.NewThread()
	th.GC().Stress = true
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	src := `
	fun build(n) {
		var s = "";
		for (var i = 0; i < n; i = i + 1) {
			s = s + "x";
		}
		return s;
	}
	print build(50);
	`
	res := th.Interpret([]byte(src), compiler.Compile)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, 50+1, len(out.String()), "build(50) should print 50 x's plus newline")
}

func TestGCKeepsGlobalsReachable(t *testing.T) {
	th := machine.NewThread()
	th.GC().Stress = true
	var out bytes.Buffer
	th.Stdout = &out
	th.Stderr = &out

	res := th.Interpret([]byte(`var g = "persisted"; print g;`), compiler.Compile)
	require.Equal(t, machine.InterpretOK, res, out.String())
	require.Equal(t, "persisted\n", out.String())
}
