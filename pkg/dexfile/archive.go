package dexfile

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/joshuapare/dexkit/internal/mmfile"
)

// ErrNoDex is returned when an archive holds no classes*.dex entry.
var ErrNoDex = errors.New("dexfile: archive contains no classes*.dex entries")

// zipMagic is the local file header signature every APK, JAR and ZIP starts with.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// dexEntry matches the dex members of an APK: classes.dex, classes2.dex, ...
var dexEntry = regexp.MustCompile(`^classes(\d*)\.dex$`)

// IsArchive reports whether the file at path starts with a zip signature.
func IsArchive(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, zipMagic), nil
}

// dexOrdinal returns the multidex position of an entry name: 1 for
// classes.dex, n for classesN.dex.
func dexOrdinal(name string) (int, bool) {
	m := dexEntry.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	if m[1] == "" {
		return 1, true
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// VerifyArchive verifies every classes*.dex entry at the root of the
// APK/JAR/ZIP at path. Entries are checked concurrently, at most opts.Jobs at
// a time, and results come back in multidex order. The error covers opening
// the archive and reading entries; a malformed dex lands in its Result.
func VerifyArchive(ctx context.Context, path string, opts *Options) ([]Result, error) {
	opts = opts.orDefault()
	return verifyArchive(ctx, path, opts, semaphore.NewWeighted(int64(opts.workers())))
}

// verifyArchive holds one slot of sem while an entry is read and verified.
func verifyArchive(ctx context.Context, path string, opts *Options, sem *semaphore.Weighted) ([]Result, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("dexfile: open archive %s: %w", path, err)
	}
	defer z.Close()

	type entry struct {
		file    *zip.File
		ordinal int
	}
	var entries []entry
	for _, f := range z.File {
		if n, ok := dexOrdinal(f.Name); ok {
			entries = append(entries, entry{file: f, ordinal: n})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDex, path)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ordinal < entries[j].ordinal })

	opts.logger().Debug("verifying archive", "path", path, "entries", len(entries), "jobs", opts.workers())

	results := make([]Result, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	var acquireErr error
	for i, e := range entries {
		if acquireErr = sem.Acquire(gctx, 1); acquireErr != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			data, err := readEntry(e.file)
			if err != nil {
				return fmt.Errorf("dexfile: read %s!%s: %w", path, e.file.Name, err)
			}
			results[i] = VerifyBytes(data, path+"!"+e.file.Name, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if acquireErr != nil {
		return nil, acquireErr
	}
	return results, nil
}

// entryGrowLimit caps how much buffer a declared entry size can reserve up
// front. The rest grows as bytes actually arrive.
const entryGrowLimit = 1 << 20

// readEntry reads a whole archive member. The declared size is only trusted
// as an upper bound.
func readEntry(f *zip.File) ([]byte, error) {
	declared := f.UncompressedSize64
	if declared > mmfile.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", mmfile.ErrTooLarge, declared)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var b bytes.Buffer
	b.Grow(int(min(declared, entryGrowLimit)))
	if _, err := b.ReadFrom(io.LimitReader(rc, int64(declared)+1)); err != nil {
		return nil, err
	}
	if uint64(b.Len()) != declared {
		return nil, fmt.Errorf("%w: entry holds %d bytes, header declares %d", zip.ErrFormat, b.Len(), declared)
	}
	return b.Bytes(), nil
}

// VerifyPath verifies path as an archive if it starts with a zip signature,
// otherwise as a single dex file.
func VerifyPath(ctx context.Context, path string, opts *Options) ([]Result, error) {
	opts = opts.orDefault()
	return verifyPath(ctx, path, opts, semaphore.NewWeighted(int64(opts.workers())))
}

func verifyPath(ctx context.Context, path string, opts *Options, sem *semaphore.Weighted) ([]Result, error) {
	archive, err := IsArchive(path)
	if err != nil {
		return nil, fmt.Errorf("dexfile: %w", err)
	}
	if archive {
		return verifyArchive(ctx, path, opts, sem)
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sem.Release(1)
	res, err := VerifyFile(path, opts)
	if err != nil {
		return nil, err
	}
	return []Result{res}, nil
}

// VerifyPaths runs VerifyPath over paths and flattens the results in
// argument order. Loose files and archive entries share one pool of
// opts.Jobs verification slots. A path that cannot be read yields a single
// Result whose Err is the I/O error, so one bad argument does not hide the
// others. Only context cancellation aborts the run.
func VerifyPaths(ctx context.Context, paths []string, opts *Options) ([]Result, error) {
	opts = opts.orDefault()
	return verifyPaths(ctx, paths, opts, semaphore.NewWeighted(int64(opts.workers())))
}

func verifyPaths(ctx context.Context, paths []string, opts *Options, sem *semaphore.Weighted) ([]Result, error) {
	perPath := make([][]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := verifyPath(ctx, p, opts, sem)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res = []Result{{Location: p, Err: err}}
			}
			perPath[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Result
	for _, res := range perPath {
		out = append(out, res...)
	}
	return out, nil
}
