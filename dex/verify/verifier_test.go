package verify

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dexkit/internal/format"
	"github.com/joshuapare/dexkit/internal/testutil/dexbuild"
)

const testLocation = "test.dex"

// strict verifies b with checksum enforcement.
func strict(b []byte) error {
	return Verify(b, testLocation, Options{VerifyChecksum: true})
}

// mustFail verifies b and returns the validation error it must produce.
func mustFail(t *testing.T, b []byte) *ValidationError {
	t.Helper()
	err := strict(b)
	require.Error(t, err)
	verr, ok := AsValidationError(err)
	require.True(t, ok, "unexpected error type %T", err)
	assert.Equal(t, testLocation, verr.Location)
	return verr
}

// buildFail builds f and returns the validation error it must produce.
func buildFail(t *testing.T, f *dexbuild.File) *ValidationError {
	t.Helper()
	return mustFail(t, f.Build().Bytes)
}

// patch32 overwrites a little-endian u32 and reseals the image.
func patch32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
	format.Seal(b)
}

func TestVerifyHello(t *testing.T) {
	v := New(dexbuild.HelloBytes(), testLocation, Options{VerifyChecksum: true})
	require.NoError(t, v.Verify())
	assert.Empty(t, v.Warnings())
	assert.Equal(t, 39, v.Header().Version)
}

func TestVerifyIsMemoized(t *testing.T) {
	b := dexbuild.HelloBytes()
	b[format.HeaderEndianTagOffset] ^= 0xff
	format.Seal(b)

	v := New(b, testLocation, Options{})
	first := v.Verify()
	require.Error(t, first)
	assert.Same(t, first, v.Verify())
}

func TestVerifyDeterministic(t *testing.T) {
	b := dexbuild.HelloBytes()
	patch32(b, format.HeaderDataSizeOffset, 7)

	e1 := strict(b)
	e2 := strict(bytes.Clone(b))
	require.Error(t, e1)
	assert.Equal(t, e1, e2)
}

func TestValidationErrorFormat(t *testing.T) {
	err := &ValidationError{Location: "classes.dex", Category: CategoryOrder, Message: "boom"}
	assert.Equal(t, "Failure to verify dex file 'classes.dex': boom", err.Error())
	assert.Equal(t, "order", err.Category.String())
	assert.Equal(t, "category(99)", Category(99).String())

	wrapped := fmt.Errorf("loading: %w", err)
	got, ok := AsValidationError(wrapped)
	require.True(t, ok)
	assert.Same(t, err, got)

	_, ok = AsValidationError(errors.New("plain"))
	assert.False(t, ok)
}

func TestPrefixed(t *testing.T) {
	orig := &ValidationError{Location: "x", Category: CategoryEncoding, Message: "bad"}
	out, ok := AsValidationError(prefixed(orig, "ctx: "))
	require.True(t, ok)
	assert.Equal(t, "ctx: bad", out.Message)
	assert.Equal(t, "bad", orig.Message)

	plain := errors.New("plain")
	assert.Same(t, plain, prefixed(plain, "ctx: "))
}

func TestHeaderFileSize(t *testing.T) {
	b := dexbuild.HelloBytes()
	patch32(b, format.HeaderFileSizeOffset, uint32(len(b)-1))

	verr := mustFail(t, b)
	assert.Equal(t, CategoryBounds, verr.Category)
	assert.Equal(t, fmt.Sprintf("Bad file size (%d, expected %d)", len(b), len(b)-1), verr.Message)
}

func TestHeaderChecksum(t *testing.T) {
	b := dexbuild.HelloBytes()
	b[format.HeaderChecksumOffset] ^= 0x01

	verr := mustFail(t, b)
	assert.Equal(t, CategoryIntegrity, verr.Category)
	assert.True(t, strings.HasPrefix(verr.Message, "Bad checksum ("), verr.Message)

	var logs bytes.Buffer
	v := New(b, testLocation, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, v.Verify())
	require.Len(t, v.Warnings(), 1)
	assert.True(t, strings.HasPrefix(v.Warnings()[0], "Ignoring bad checksum"))
	assert.Contains(t, logs.String(), "Ignoring bad checksum")
	assert.Contains(t, logs.String(), testLocation)
}

func TestHeaderFields(t *testing.T) {
	size := len(dexbuild.HelloBytes())
	tests := []struct {
		name     string
		off      int
		val      uint32
		category Category
		message  string
	}{
		{"endian", format.HeaderEndianTagOffset, 0x78563412, CategoryEncoding, "Unexpected endian_tag: 78563412"},
		{"header size", format.HeaderHeaderSizeOffset, 0x71, CategoryBounds, "Bad header size: 113 expected 112"},
		{"map unaligned", format.HeaderMapOffOffset, 0x1a2, CategoryAlignment, "Offset(418) should be aligned by 4 for map."},
		{"link offset without size", format.HeaderLinkOffOffset, 4, CategoryBounds, "Offset(4) should be zero when size is zero for link."},
		{"type ids too many", format.HeaderTypeIDsSizeOffset, 0x10000, CategoryBounds, "Size(65536) should not exceed limit(65535) for type-ids."},
		{"string ids beyond file", format.HeaderStringIDsOffOffset, 0x10000, CategoryBounds,
			fmt.Sprintf("Offset(65536) should be within file size(%d) for string-ids.", size)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dexbuild.HelloBytes()
			require.Len(t, b, size)
			patch32(b, tt.off, tt.val)

			verr := mustFail(t, b)
			assert.Equal(t, tt.category, verr.Category)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestHeaderUnparseable(t *testing.T) {
	verr := mustFail(t, dexbuild.HelloBytes()[:40])
	assert.Equal(t, CategoryBounds, verr.Category)

	b := dexbuild.HelloBytes()
	copy(b, "zip\n")
	verr = mustFail(t, b)
	assert.Equal(t, CategoryEncoding, verr.Category)
}

func TestMapItemsWithSameOffset(t *testing.T) {
	img := dexbuild.Hello().Build()
	b := img.Bytes
	// Entries 0 and 1 are the header and string_ids; give type_ids the
	// string_ids offset.
	entry := func(i int) int { return img.Layout.MapOff + format.MapListHeaderSize + i*format.MapItemSize }
	patch32(b, entry(2)+8, uint32(img.Layout.StringIDs))

	verr := mustFail(t, b)
	assert.Equal(t, CategoryOrder, verr.Category)
	assert.Contains(t, verr.Message, "Out of order map item: 70 then 70")
}

func TestMapDuplicateSection(t *testing.T) {
	img := dexbuild.Hello().Build()
	b := img.Bytes
	entry := img.Layout.MapOff + format.MapListHeaderSize + 2*format.MapItemSize
	binary.LittleEndian.PutUint16(b[entry:], uint16(format.TypeStringIDItem))
	format.Seal(b)

	verr := mustFail(t, b)
	assert.Equal(t, CategoryDuplicate, verr.Category)
	assert.Equal(t, "Duplicate map section of type 1", verr.Message)
}

func TestMapMissingEntry(t *testing.T) {
	img := dexbuild.Hello().Build()
	b := img.Bytes
	// Turn the method_ids entry into an unused but known type.
	var idx int
	for i, s := range img.Layout.Sections {
		if s.Type == format.TypeMethodIDItem {
			idx = i
		}
	}
	entry := img.Layout.MapOff + format.MapListHeaderSize + idx*format.MapItemSize
	binary.LittleEndian.PutUint16(b[entry:], uint16(format.TypeCallSiteIDItem))
	format.Seal(b)

	verr := mustFail(t, b)
	assert.Equal(t, CategoryReference, verr.Category)
	assert.Equal(t, "Map is missing method_ids entry", verr.Message)
}

func TestTruncatedAndMutatedInputsDoNotPanic(t *testing.T) {
	orig := dexbuild.HelloBytes()

	for n := 0; n < len(orig); n++ {
		b := bytes.Clone(orig[:n])
		if n >= format.HeaderSize {
			binary.LittleEndian.PutUint32(b[format.HeaderFileSizeOffset:], uint32(n))
			format.Seal(b)
		}
		assert.NotPanics(t, func() { _ = Verify(b, testLocation, Options{}) }, "truncated to %d", n)
	}

	for i := format.HeaderFileSizeOffset; i < len(orig); i++ {
		for _, x := range []byte{0x01, 0x80, 0xff} {
			b := bytes.Clone(orig)
			b[i] ^= x
			format.Seal(b)
			assert.NotPanics(t, func() { _ = Verify(b, testLocation, Options{}) }, "byte %d ^ %x", i, x)
		}
	}
}
