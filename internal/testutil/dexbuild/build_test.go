package dexbuild

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dexkit/dex/verify"
	"github.com/joshuapare/dexkit/internal/format"
)

func TestHelloLayout(t *testing.T) {
	img := Hello().Build()
	b := img.Bytes
	lay := img.Layout

	// Class data sits after a 4-byte aligned (empty) annotation set
	// section, and the map list is aligned again after it.
	require.Len(t, b, 592)
	assert.Equal(t, format.HeaderSize, lay.StringIDs)
	assert.Equal(t, 260, lay.DataOff)
	assert.Equal(t, 420, lay.MapOff)
	assert.Equal(t, []int{336, 360}, lay.Code)
	assert.Equal(t, []int{392}, lay.TypeLists)
	assert.Equal(t, []int{400}, lay.ClassData)
	assert.Equal(t, []int{330}, lay.StaticValues)

	hdr, err := format.ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(b)), hdr.FileSize)
	assert.Equal(t, uint32(len(b)-lay.DataOff), hdr.Data.Size)
	assert.Equal(t, format.ComputeChecksum(b), hdr.Checksum)
	assert.Equal(t, 39, hdr.Version)

	last := lay.Sections[len(lay.Sections)-1]
	assert.Equal(t, format.TypeMapList, last.Type)
	assert.Equal(t, len(b), lay.MapOff+format.MapListHeaderSize+format.MapItemSize*len(lay.Sections))

	for i := 1; i < len(lay.Sections); i++ {
		assert.Less(t, lay.Sections[i-1].Offset, lay.Sections[i].Offset)
	}
	m, ok := lay.Section(format.TypeMapList)
	require.True(t, ok)
	assert.Equal(t, uint32(lay.MapOff), m.Offset)
	assert.Equal(t, uint32(len(lay.Sections)), binary.LittleEndian.Uint32(b[lay.MapOff:]))

	_, ok = lay.Section(format.TypeHiddenapiClassData)
	assert.False(t, ok)
}

func TestHelloVerifies(t *testing.T) {
	require.NoError(t, verify.Verify(HelloBytes(), "hello.dex", verify.Options{VerifyChecksum: true}))

	f := Hello()
	f.Version = "035"
	require.NoError(t, verify.Verify(f.Build().Bytes, "hello.dex", verify.Options{VerifyChecksum: true}))
}

func TestHelloIsFresh(t *testing.T) {
	a := Hello()
	a.Classes[0].StaticFields[0].Flags = 0
	assert.Equal(t, uint32(format.AccStatic), Hello().Classes[0].StaticFields[0].Flags)
}

func TestEncodeMUTF8(t *testing.T) {
	tests := []struct {
		in    string
		units uint32
		want  []byte
	}{
		{"", 0, nil},
		{"abc", 3, []byte("abc")},
		{"\x00", 1, []byte{0xc0, 0x80}},
		{"é", 1, []byte{0xc3, 0xa9}},
		{"€", 1, []byte{0xe2, 0x82, 0xac}},
		{"\U0001F600", 2, []byte{0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80}},
	}
	for _, tt := range tests {
		units, got := EncodeMUTF8(tt.in)
		assert.Equal(t, tt.units, units, "%q", tt.in)
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}

func TestValues(t *testing.T) {
	assert.Equal(t, []byte{0x04, 0x2a}, Int(42))
	assert.Equal(t, []byte{0x04, 0xff}, Int(-1))
	assert.Equal(t, []byte{0x24, 0x2c, 0x01}, Int(300))
	assert.Equal(t, []byte{0x23, 0x34, 0x12}, Char(0x1234))
	assert.Equal(t, []byte{0x06, 0x80}, Long(-128))
	assert.Equal(t, []byte{0x26, 0x80, 0x00}, Long(128))
	assert.Equal(t, []byte{0x17, 0x07}, String(7))
	assert.Equal(t, []byte{0x3f}, Boolean(true))
	assert.Equal(t, []byte{0x1e}, Null())
	assert.Equal(t, []byte{0x02, 0x1e, 0x1f}, Array(Null(), Boolean(false)))
	assert.Equal(t, []byte{0x1c, 0x01, 0x1e}, ArrayValue(Null()))
	assert.Equal(t, []byte{0x01, 0x01, 0x06, 0x04, 0x05}, EncodeAnnotation(1, Element{Name: 6, Value: Int(5)}))
}

func TestHandlers(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, Handlers(Handler{CatchAll: true}))
	// Two typed pairs, then a catch-all at 0x10: size is -2.
	assert.Equal(t,
		[]byte{0x02, 0x01, 0x03, 0x00, 0x7e, 0x04, 0x02, 0x05, 0x04, 0x10},
		Handlers(
			Handler{Pairs: [][2]uint32{{3, 0}}},
			Handler{Pairs: [][2]uint32{{4, 2}, {5, 4}}, CatchAll: true, CatchAllAddr: 0x10},
		))
}
