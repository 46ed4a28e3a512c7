// Package mmfile maps input files read-only for the verifier. On platforms
// without mmap the file is read into memory instead.
package mmfile

import (
	"errors"
	"fmt"
	"os"
)

// MaxSize is the largest file Open accepts. A dex header stores file_size as
// a uint32, so nothing larger can be valid.
const MaxSize = 1<<32 - 1

// ErrTooLarge is returned for files larger than MaxSize.
var ErrTooLarge = errors.New("mmfile: file too large")

// File is a read-only view of a file's contents.
type File struct {
	data   []byte
	unmap  func([]byte) error
	closed bool
}

// Bytes returns the file contents. The slice must not be written to and is
// invalid after Close.
func (f *File) Bytes() []byte { return f.data }

// Len returns the file size in bytes.
func (f *File) Len() int { return len(f.data) }

// Close releases the mapping. Calling Close more than once is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	data := f.data
	f.data = nil
	if f.unmap == nil || len(data) == 0 {
		return nil
	}
	return f.unmap(data)
}

// statSize returns the size of an open file, rejecting anything over MaxSize.
func statSize(fd *os.File) (int, error) {
	info, err := fd.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("mmfile: %s is not a regular file", fd.Name())
	}
	size := info.Size()
	if size > MaxSize || size > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, fd.Name(), size)
	}
	return int(size), nil
}
