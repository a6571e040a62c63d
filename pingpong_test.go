package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPingPong(t *testing.T) {
	var pp PingPong
	require.Equal(t, 0, pp.Readable())
	require.Equal(t, 1, pp.Writable())

	for i := 0; i < 5; i++ {
		read, write := pp.Readable(), pp.Writable()
		require.NotEqual(t, read, write, "slots never alias")
		pp.Swap()
		require.Equal(t, write, pp.Readable(), "swap promotes the written slot")
		require.Equal(t, read, pp.Writable())
	}
}
