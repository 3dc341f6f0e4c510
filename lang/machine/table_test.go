package machine_test

import (
	"testing"

	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestTableGetSetDelete(t *testing.T) {
	tbl := machine.NewTable(0)
	_, ok := tbl.Get("x")
	require.False(t, ok)

	tbl.Set("x", machine.Number(42))
	v, ok := tbl.Get("x")
	require.True(t, ok)
	require.Equal(t, 42.0, v.AsNumber())

	require.Equal(t, 1, tbl.Len())
	require.True(t, tbl.Delete("x"))
	_, ok = tbl.Get("x")
	require.False(t, ok)
}

func TestTableEachVisitsEveryEntry(t *testing.T) {
	tbl := machine.NewTable(4)
	tbl.Set("a", machine.Number(1))
	tbl.Set("b", machine.Number(2))

	seen := map[string]float64{}
	tbl.Each(func(k string, v machine.Value) {
		seen[k] = v.AsNumber()
	})
	require.Equal(t, map[string]float64{"a": 1, "b": 2}, seen)
}
