package dexfile

import (
	"io"
	"log/slog"
	"runtime"
)

// Options controls verification. A nil *Options behaves like DefaultOptions().
type Options struct {
	// VerifyChecksum makes an adler32 mismatch fatal. When false the
	// mismatch is only reported as a warning.
	VerifyChecksum bool

	// Jobs bounds how many dex images (loose files or archive entries) are
	// verified at once. Zero or less means runtime.NumCPU().
	Jobs int

	// Logger receives verifier warnings. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{VerifyChecksum: true}
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return DefaultOptions()
	}
	return o
}

func (o *Options) workers() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.NumCPU()
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
