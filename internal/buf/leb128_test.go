package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULEB128(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  uint32
		width int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"one byte max", []byte{0x7f}, 0x7f, 1},
		{"two bytes", []byte{0x80, 0x7f}, 0x3f80, 2},
		{"constructor flags", []byte{0x81, 0x80, 0x04}, 0x10001, 3},
		{"max uint32", []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff, 5},
		{"fifth byte garbage tolerated", []byte{0x80, 0x80, 0x80, 0x80, 0x7f}, 0xf0000000, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, ok := ULEB128(tt.in, 0, len(tt.in))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.width, next)
		})
	}
}

func TestULEB128Bounds(t *testing.T) {
	data := []byte{0x80, 0x80, 0x01}
	_, _, ok := ULEB128(data, 0, 2)
	assert.False(t, ok, "continuation past end must fail")

	_, _, ok = ULEB128(data, 3, len(data))
	assert.False(t, ok, "offset at end must fail")

	_, _, ok = ULEB128(data, 0, 100)
	assert.True(t, ok, "end is clamped to len(b)")

	_, _, ok = ULEB128(data, -1, len(data))
	assert.False(t, ok)
}

func TestSLEB128(t *testing.T) {
	tests := []struct {
		in   []byte
		want int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x80, 0x7f}, -128},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0x80, 0x80, 0x04}, 65536},
		{[]byte{0x80, 0x80, 0x7c}, -65536},
	}
	for _, tt := range tests {
		got, next, ok := SLEB128(tt.in, 0, len(tt.in))
		require.True(t, ok, "%x", tt.in)
		assert.Equal(t, tt.want, got, "%x", tt.in)
		assert.Equal(t, len(tt.in), next)
	}

	_, _, ok := SLEB128([]byte{0xff}, 0, 1)
	assert.False(t, ok)
}

func TestLEB128RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 1 << 21, 1<<28 - 1, 1 << 28, 0xffffffff} {
		enc := AppendULEB128(nil, v)
		got, next, ok := ULEB128(enc, 0, len(enc))
		require.True(t, ok)
		assert.Equal(t, v, got)
		assert.Equal(t, len(enc), next)
	}
	for _, v := range []int32{0, 1, -1, 63, -64, 64, -65, 65536, -65536, 1 << 30, -(1 << 31)} {
		enc := AppendSLEB128(nil, v)
		got, _, ok := SLEB128(enc, 0, len(enc))
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}
