package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joshuapare/dexkit/internal/config"
	"github.com/joshuapare/dexkit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	logLevel   string
	checksum   bool
	jobs       int

	// cfg is the configuration file merged with explicit flags. It is set
	// before any subcommand runs.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "dexverify",
	Short: "Verify the structure of Android dex files",
	Long: `dexverify checks dex files, and the classes*.dex entries of APK, JAR
and ZIP archives, against the structural rules of the dex format: header,
map list, every data item and the cross references between them.

Defaults are read from .dexverify.toml in the working directory or any parent,
or from the file named by --config. Flags override the file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: search for "+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level for stderr diagnostics (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&checksum, "checksum", true, "Treat a checksum mismatch as a failure")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Files verified in parallel (0 = one per CPU)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads the configuration file, applies explicitly set flags
// on top of it and initialises the logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := applyFlags(cfg, cmd.Flags()); err != nil {
		return err
	}
	jsonOut = cfg.JSON

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		level = slog.LevelDebug
	}
	if quiet && level < slog.LevelError {
		level = slog.LevelError
	}
	logger.Init(logger.Options{Enabled: true, Level: level, JSON: jsonOut})
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

// applyFlags copies the flags the user set explicitly into c.
func applyFlags(c *config.Config, flags *pflag.FlagSet) error {
	if flags.Changed("checksum") {
		c.VerifyChecksum = checksum
	}
	if flags.Changed("jobs") {
		c.Jobs = jobs
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("json") {
		c.JSON = jsonOut
	}
	return c.Validate()
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
