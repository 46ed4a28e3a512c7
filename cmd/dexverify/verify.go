package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dexkit/internal/logger"
	"github.com/joshuapare/dexkit/pkg/dexfile"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file|apk>...",
		Short: "Verify dex files and the dex entries of archives",
		Long: `The verify command checks each argument. A file starting with a zip
signature is treated as an APK/JAR/ZIP and every classes*.dex entry at its
root is verified; anything else is verified as a single dex file.

The first broken rule in each file is reported. The command fails if any
file fails.

Example:
  dexverify verify classes.dex
  dexverify verify app.apk --jobs 4
  dexverify verify --checksum=false classes.dex classes2.dex
  dexverify verify app.apk --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), args)
		},
	}
	return cmd
}

// verifyRecord is the JSON form of one result.
type verifyRecord struct {
	Location string   `json:"location"`
	Valid    bool     `json:"valid"`
	Size     int      `json:"size,omitempty"`
	Version  int      `json:"version,omitempty"`
	Category string   `json:"category,omitempty"`
	Offset   *int     `json:"offset,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func newVerifyRecord(r dexfile.Result) verifyRecord {
	rec := verifyRecord{
		Location: r.Location,
		Valid:    r.OK(),
		Size:     r.Size,
		Version:  r.Version,
		Warnings: r.Warnings,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	if ve := r.ValidationError(); ve != nil {
		rec.Category = ve.Category.String()
		off := ve.Offset
		rec.Offset = &off
	}
	return rec
}

func runVerify(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := &dexfile.Options{
		VerifyChecksum: cfg.VerifyChecksum,
		Jobs:           cfg.Jobs,
		Logger:         logger.L,
	}

	printVerbose("Verifying %d path(s) with %d worker(s)\n", len(args), cfg.Workers())

	results, err := dexfile.VerifyPaths(ctx, args, opts)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	if jsonOut {
		records := make([]verifyRecord, len(results))
		for i, r := range results {
			records[i] = newVerifyRecord(r)
		}
		if err := printJSON(records); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(r)
		}
		printInfo("\n%d checked, %d failed\n", len(results), failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d dex file(s) failed verification", failed, len(results))
	}
	return nil
}

func printResult(r dexfile.Result) {
	if r.OK() {
		printInfo("✓ %s\n", r.Location)
	} else if ve := r.ValidationError(); ve != nil {
		printInfo("✗ %s\n    [%s at 0x%x] %s\n", r.Location, ve.Category, ve.Offset, ve.Message)
	} else {
		printInfo("✗ %s\n    %v\n", r.Location, r.Err)
	}

	if r.Version != 0 {
		printVerbose("    version %03d, %d bytes\n", r.Version, r.Size)
	}
	for _, w := range r.Warnings {
		printVerbose("    warning: %s\n", w)
	}
}
