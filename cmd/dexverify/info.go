package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dexkit/internal/mmfile"
	"github.com/joshuapare/dexkit/pkg/dexfile"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <dex>",
		Short: "Show the header and map list of a dex file",
		Long: `The info command decodes the header and map list of a dex file without
verifying it, which helps when looking at a file that fails verification.
The stored checksum and signature are compared with the file contents.

Example:
  dexverify info classes.dex
  dexverify info classes.dex --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

func runInfo(args []string) error {
	path := args[0]

	printVerbose("Opening dex: %s\n", path)

	f, err := mmfile.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := dexfile.ReadInfo(f.Bytes())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nDex Information:\n")
	printInfo("  File: %s\n", path)
	printInfo("  Magic: %s\n", info.Magic)
	printInfo("  File size: %d (actual %d)\n", info.FileSize, info.ActualSize)
	printInfo("  Header size: 0x%x\n", info.HeaderSize)
	printInfo("  Endian tag: 0x%08x\n", info.EndianTag)
	printInfo("  Checksum: %08x %s\n", info.Checksum, mark(info.ChecksumOK()))
	if !info.ChecksumOK() {
		printInfo("    computed %08x\n", info.ComputedChecksum)
	}
	printInfo("  Signature: %s %s\n", info.Signature, mark(info.SignatureOK()))
	if !info.SignatureOK() {
		printInfo("    computed %s\n", info.ComputedSignature)
	}

	printInfo("\nSections:\n")
	for _, s := range info.Sections {
		printInfo("  %-12s size %-8d offset 0x%x\n", s.Name, s.Size, s.Offset)
	}

	printInfo("\nMap (at 0x%x):\n", info.MapOff)
	if info.MapError != "" {
		printInfo("  ✗ %s\n", info.MapError)
		return nil
	}
	for _, m := range info.Map {
		printInfo("  %-28s size %-8d offset 0x%x\n", m.Type, m.Size, m.Offset)
	}
	return nil
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
