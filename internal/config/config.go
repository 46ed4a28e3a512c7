// Package config loads the optional .dexverify.toml file that supplies
// defaults for the dexverify command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/dexkit/internal/logger"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = ".dexverify.toml"

// Config holds settings that command-line flags may override.
type Config struct {
	// VerifyChecksum makes checksum mismatches fatal.
	VerifyChecksum bool `toml:"verify_checksum"`
	// Jobs bounds how many dex files are verified at once. Zero means one per
	// CPU.
	Jobs int `toml:"jobs"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// JSON selects JSON output.
	JSON bool `toml:"json"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		VerifyChecksum: true,
		LogLevel:       "warn",
	}
}

// Load reads the TOML file at path on top of Default. Unknown keys are an
// error so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir looking for FileName and loads the first
// one found. Without a file it returns Default.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			logger.Debug("loading config", "path", path)
			return Load(path)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Workers returns the effective worker count for Jobs.
func (c *Config) Workers() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}
