package radio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/periph"
)

func TestFrameEncoding(t *testing.T) {
	cases := []struct {
		name  string
		frame *Frame
		bytes []byte
	}{
		{"no data", &Frame{Seq: 1, Code: CodeAck}, []byte{1, 0x05}},
		{"short", NewFrame(2, CodeData, 1, 1, 0, 2), []byte{2, 0x44, 1, 1, 0, 2}},
		{"long", NewFrame(3, CodeConnect, 2, 1, 2, 3, 4, 5, 6), []byte{3, 0x71, 7, 2, 1, 2, 3, 4, 5, 6}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := c.frame.Bytes()
			require.Equal(t, c.bytes, b)
			f, err := ParseFrame(b)
			require.NoError(t, err)
			require.Equal(t, c.frame, f)
		})
	}
}

func TestFrameAccessors(t *testing.T) {
	addr := periph.MustParseAddress("01:02:03:04:05:06")
	f := NewFrame(1, CodeConnect, 3, addr[:]...)
	require.Equal(t, 3, f.Channel())
	parsed, ok := f.Address()
	require.True(t, ok)
	require.Equal(t, addr, parsed)

	_, ok = NewFrame(1, CodeConnect, 3, 1, 2).Address()
	require.False(t, ok)
	require.Zero(t, (&Frame{}).Channel())
	require.Nil(t, (&Frame{}).Payload())
}

func TestParseFrameErrors(t *testing.T) {
	for _, b := range [][]byte{
		{1},
		{0, 0x05},
		{0xf0, 0x05},
		{1, 0x24, 1},
		{1, 0x74},
		{1, 0x74, 0x80},
		{1, 0x74, 8, 1},
	} {
		_, err := ParseFrame(b)
		require.Error(t, err, "%v", b)
	}
}

func TestSeq(t *testing.T) {
	require.Equal(t, Seq(1), Seq(0xef).Next())
	require.Equal(t, Seq(2), Seq(1).Next())
	require.True(t, NewSeq().IsValid())
	require.False(t, Seq(0).IsValid())
}
