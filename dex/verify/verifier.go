package verify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// Options control a verification run.
type Options struct {
	// VerifyChecksum makes a checksum mismatch fatal. When false the mismatch
	// is reported as a warning and verification continues.
	VerifyChecksum bool

	// Logger receives warnings. A nil Logger discards them.
	Logger *slog.Logger
}

// notFound marks a method-name string index that does not exist in the file.
const notFound = math.MaxUint32

// Verifier checks a single in-memory dex image. A Verifier is not safe for
// concurrent use; create one per image.
type Verifier struct {
	data     []byte
	location string
	opts     Options
	log      *slog.Logger

	hdr      format.Header
	mapItems []format.MapItem

	// ptr is the cursor into data. Failures report it as their offset.
	ptr int
	// previousItem is the offset of the previous item in the section being
	// cross-checked, or -1 at the start of a section.
	previousItem int

	offsets offsetMap

	// typeDescriptors caches the first character of each verified type
	// descriptor. Zero means not yet verified.
	typeDescriptors []byte

	definedClasses      []bool
	definedClassIndexes []uint32

	numMethodHandles uint32

	angleStart, angleEnd uint32
	initIdx, clinitIdx   uint32

	warnings []string

	done bool
	err  error
}

// New prepares a verifier for data. location names the file in messages.
func New(data []byte, location string, opts Options) *Verifier {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Verifier{
		data:         data,
		location:     location,
		opts:         opts,
		log:          log,
		previousItem: -1,
		angleStart:   notFound,
		angleEnd:     notFound,
		initIdx:      notFound,
		clinitIdx:    notFound,
	}
}

// Verify is shorthand for New(data, location, opts).Verify().
func Verify(data []byte, location string, opts Options) error {
	return New(data, location, opts).Verify()
}

// Verify runs every check and returns the first failure as a
// *ValidationError, or nil if the file is well formed. Later calls return the
// same result without re-running the checks.
func (v *Verifier) Verify() error {
	if v.done {
		return v.err
	}
	v.done = true
	v.err = v.run()
	if v.err != nil {
		v.log.Debug("dex verification failed", "location", v.location, "error", v.err)
	}
	return v.err
}

// Warnings returns the warnings produced so far, in order.
func (v *Verifier) Warnings() []string {
	return v.warnings
}

// Header returns the parsed header. It is the zero value until Verify has run
// far enough to parse it.
func (v *Verifier) Header() format.Header {
	return v.hdr
}

func (v *Verifier) run() error {
	hdr, err := format.ParseHeader(v.data)
	if err != nil {
		cat := CategoryEncoding
		if errors.Is(err, format.ErrTruncated) {
			cat = CategoryBounds
		}
		return v.failf(cat, "%v", err)
	}
	v.hdr = hdr

	if err := v.checkHeader(); err != nil {
		return err
	}
	if err := v.checkMap(); err != nil {
		return err
	}

	types := v.hdr.TypeIDs.Size
	v.typeDescriptors = make([]byte, types)
	v.definedClasses = make([]bool, types)
	v.definedClassIndexes = make([]uint32, types)

	if err := v.checkIntraSection(); err != nil {
		return err
	}
	return v.checkInterSection()
}

func (v *Verifier) failf(cat Category, format string, args ...any) error {
	return &ValidationError{
		Location: v.location,
		Category: cat,
		Offset:   v.ptr,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (v *Verifier) warn(msg string) {
	v.warnings = append(v.warnings, msg)
	v.log.Warn(msg, "location", v.location)
}

// compatOutcome is what breaking a relaxed rule means for this file: older
// formats only get a warning.
func (v *Verifier) compatOutcome() outcome {
	if v.hdr.SupportsDefaultMethods() {
		return outcomeFail
	}
	return outcomeWarn
}

// violation applies a relaxed rule's outcome. It returns a non-nil error only
// for outcomeFail.
func (v *Verifier) violation(o outcome, cat Category, format string, args ...any) error {
	switch o {
	case outcomeWarn:
		v.warn(compatWarningPrefix + fmt.Sprintf(format, args...))
	case outcomeFail:
		return v.failf(cat, format, args...)
	}
	return nil
}

// invariant panics when bytes an earlier stage accepted fail to decode.
func invariant(err error) {
	if err != nil {
		panic(fmt.Sprintf("verify: previously checked data failed to decode: %v", err))
	}
}

func (v *Verifier) dataEnd() int {
	return int(v.hdr.Data.Offset) + int(v.hdr.Data.Size)
}

// checkListSize fails unless count elements of elemSize bytes starting at
// start lie within the file.
func (v *Verifier) checkListSize(start int, count, elemSize uint64, label string) error {
	size := len(v.data)
	if start < 0 || start > size {
		return v.failf(CategoryBounds, "Offset beyond end of file for %s: %x to %x", label, start, size)
	}
	if !buf.FitsList(uint64(start), count, elemSize, uint64(size)) {
		return v.failf(CategoryBounds, "List too large for %s: %x+%d*%d > %x", label, start, count, elemSize, size)
	}
	return nil
}

// checkList validates a uint32 count at the cursor followed by that many
// elements, then moves the cursor past them.
func (v *Verifier) checkList(elemSize uint64, label string) error {
	if err := v.checkListSize(v.ptr, 1, 4, label); err != nil {
		return err
	}
	count := buf.U32At(v.data, v.ptr)
	if count > 0 {
		if err := v.checkListSize(v.ptr+4, uint64(count), elemSize, label); err != nil {
			return err
		}
	}
	v.ptr += 4 + int(count)*int(elemSize)
	return nil
}

func (v *Verifier) checkIndex(field, limit uint32, label string) error {
	if field >= limit {
		return v.failf(CategoryReference, "Bad index for %s: %x >= %x", label, field, limit)
	}
	return nil
}

func (v *Verifier) checkSizeLimit(size, limit uint32, label string) error {
	if size > limit {
		return v.failf(CategoryBounds, "Size(%d) should not exceed limit(%d) for %s.", size, limit, label)
	}
	return nil
}

func (v *Verifier) readULEB() (uint32, error) {
	val, next, ok := buf.ULEB128(v.data, v.ptr, len(v.data))
	if !ok {
		return 0, v.failf(CategoryEncoding, "Read out of bounds")
	}
	v.ptr = next
	return val, nil
}

func (v *Verifier) readSLEB() (int32, error) {
	val, next, ok := buf.SLEB128(v.data, v.ptr, len(v.data))
	if !ok {
		return 0, v.failf(CategoryEncoding, "Read out of bounds")
	}
	v.ptr = next
	return val, nil
}

// readUnsignedLE reads an n-byte little-endian value at the cursor.
func (v *Verifier) readUnsignedLE(n uint32) (uint32, error) {
	if err := v.checkListSize(v.ptr, uint64(n), 1, "encoded_value"); err != nil {
		return 0, err
	}
	var val uint32
	for i := uint32(0); i < n; i++ {
		val |= uint32(v.data[v.ptr]) << (8 * i)
		v.ptr++
	}
	return val, nil
}

// skip moves the cursor past n bytes of an encoded value payload.
func (v *Verifier) skip(n uint32) error {
	if err := v.checkListSize(v.ptr, uint64(n), 1, "encoded_value"); err != nil {
		return err
	}
	v.ptr += int(n)
	return nil
}
