package dexfile

import (
	"fmt"

	"github.com/joshuapare/dexkit/dex/verify"
	"github.com/joshuapare/dexkit/internal/mmfile"
)

// Result is the outcome of verifying one dex image.
type Result struct {
	// Location names the image: a path, or "archive!entry" for archive members.
	Location string `json:"location"`
	// Size is the image length in bytes.
	Size int `json:"size"`
	// Version is the numeric dex version, or 0 if the header did not parse.
	Version int `json:"version,omitempty"`
	// Err is nil for a well-formed image, otherwise a *verify.ValidationError.
	Err error `json:"-"`
	// Warnings lists the compatibility warnings raised during the run.
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether the image verified cleanly.
func (r Result) OK() bool { return r.Err == nil }

// ValidationError returns Err as a *verify.ValidationError, or nil.
func (r Result) ValidationError() *verify.ValidationError {
	if ve, ok := verify.AsValidationError(r.Err); ok {
		return ve
	}
	return nil
}

// VerifyBytes verifies an in-memory dex image. location is used in messages.
func VerifyBytes(data []byte, location string, opts *Options) Result {
	opts = opts.orDefault()
	log := opts.logger()

	v := verify.New(data, location, verify.Options{
		VerifyChecksum: opts.VerifyChecksum,
		Logger:         log,
	})
	err := v.Verify()
	res := Result{
		Location: location,
		Size:     len(data),
		Version:  v.Header().Version,
		Err:      err,
		Warnings: v.Warnings(),
	}
	if err != nil {
		log.Debug("verify failed", "location", location, "error", err)
	} else {
		log.Debug("verify ok", "location", location, "size", len(data), "warnings", len(res.Warnings))
	}
	return res
}

// VerifyFile maps path read-only and verifies it. The returned error covers
// opening the file; verification failures are reported in Result.Err.
func VerifyFile(path string, opts *Options) (Result, error) {
	f, err := mmfile.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("dexfile: open %s: %w", path, err)
	}
	defer f.Close()

	return VerifyBytes(f.Bytes(), path, opts), nil
}
