package main

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/dexkit/internal/format"
	"github.com/joshuapare/dexkit/internal/testutil/dexbuild"
)

func badChecksumDex() []byte {
	b := dexbuild.HelloBytes()
	b[format.HeaderChecksumOffset] ^= 0xff
	return b
}

func writeAPK(t *testing.T, entries map[string][]byte, order ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.apk")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

func TestVerifyCommand(t *testing.T) {
	good := writeTemp(t, "classes.dex", dexbuild.HelloBytes())
	bad := writeTemp(t, "bad.dex", badChecksumDex())
	apk := writeAPK(t, map[string][]byte{
		"classes.dex":  dexbuild.HelloBytes(),
		"classes2.dex": dexbuild.HelloBytes(),
	}, "classes.dex", "classes2.dex")

	tests := []struct {
		name           string
		args           []string
		verbose        bool
		noChecksum     bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "valid dex",
			args:        []string{good},
			wantContain: []string{"✓ " + good, "1 checked, 0 failed"},
		},
		{
			name:        "bad checksum",
			args:        []string{bad},
			wantErr:     true,
			wantContain: []string{"✗ " + bad, "[integrity at 0x", "Bad checksum"},
		},
		{
			name:           "bad checksum ignored",
			args:           []string{bad},
			noChecksum:     true,
			wantContain:    []string{"✓ " + bad},
			wantNotContain: []string{"warning:"},
		},
		{
			name:        "bad checksum ignored verbose",
			args:        []string{bad},
			noChecksum:  true,
			verbose:     true,
			wantContain: []string{"✓ " + bad, "warning: Ignoring bad checksum", fmt.Sprintf("version 039, %d bytes", len(dexbuild.HelloBytes()))},
		},
		{
			name:        "archive",
			args:        []string{apk},
			wantContain: []string{"✓ " + apk + "!classes.dex", "✓ " + apk + "!classes2.dex", "2 checked, 0 failed"},
		},
		{
			name:        "mixed",
			args:        []string{good, bad, filepath.Join(t.TempDir(), "missing.dex")},
			wantErr:     true,
			wantContain: []string{"3 checked, 2 failed", "no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals()
			verbose = tt.verbose
			cfg.VerifyChecksum = !tt.noChecksum

			output, err := captureOutput(t, func() error {
				return runVerify(context.Background(), tt.args)
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runVerify() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestVerifyCommandJSON(t *testing.T) {
	resetGlobals()
	jsonOut = true

	good := writeTemp(t, "classes.dex", dexbuild.HelloBytes())
	bad := writeTemp(t, "bad.dex", badChecksumDex())

	output, err := captureOutput(t, func() error {
		return runVerify(context.Background(), []string{good, bad})
	})
	if err == nil {
		t.Fatal("expected an error for the bad file")
	}
	assertJSON(t, output)

	var records []verifyRecord
	if err := json.Unmarshal([]byte(output), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if !records[0].Valid || records[0].Version != 39 || records[0].Offset != nil {
		t.Errorf("unexpected record for valid file: %+v", records[0])
	}
	if records[1].Valid || records[1].Category != "integrity" || records[1].Offset == nil {
		t.Errorf("unexpected record for bad file: %+v", records[1])
	}
}

func TestVerifyCommandQuiet(t *testing.T) {
	resetGlobals()
	quiet = true

	good := writeTemp(t, "classes.dex", dexbuild.HelloBytes())
	output, err := captureOutput(t, func() error {
		return runVerify(context.Background(), []string{good})
	})
	if err != nil {
		t.Fatalf("runVerify: %v", err)
	}
	if output != "" {
		t.Errorf("expected no output in quiet mode, got %q", output)
	}
}
