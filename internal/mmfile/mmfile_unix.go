//go:build unix

package mmfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open maps the file at path into memory.
func Open(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close() // the mapping outlives the descriptor

	size, err := statSize(fd)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return &File{data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(fd.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	// Verification touches every page; advice failures are harmless.
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
	return &File{data: data, unmap: unix.Munmap}, nil
}
