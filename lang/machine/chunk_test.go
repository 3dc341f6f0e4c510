package machine_test

import (
	"testing"

	"github.com/mna/vellum/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestChunkWriteAndConstants(t *testing.T) {
	th := machine.NewThread()
	var c machine.Chunk
	c.WriteOpcode(machine.CONSTANT, 1)
	idx, err := c.AddConstant(th, machine.Number(1.5))
	require.NoError(t, err)
	c.WriteByte(byte(idx), 1)

	require.Equal(t, []byte{byte(machine.CONSTANT), byte(idx)}, c.Code)
	require.Equal(t, []int{1, 1}, c.Lines)
	require.Equal(t, 1.5, c.Constants[idx].AsNumber())
}

func TestChunkTooManyConstants(t *testing.T) {
	th := machine.NewThread()
	var c machine.Chunk
	for i := 0; i < 256; i++ {
		_, err := c.AddConstant(th, machine.Number(float64(i)))
		require.NoError(t, err)
	}
	_, err := c.AddConstant(th, machine.Number(256))
	require.ErrorIs(t, err, machine.ErrTooManyConstants)
}
