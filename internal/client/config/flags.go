package config

import (
	"flag"
	"io"
	"time"

	"github.com/hitbim/bimio/internal/flagx"
)

// parseFlags populates selected Config fields from the global flags:
//
//	-v          debug logging
//	-t int      request timeout in seconds
//	-d string   project directory
//
// Command names and command flags are skipped with flagx.SplitArgs, so the
// global flags may appear anywhere on the line. Parse errors panic.
func parseFlags(cfg *Config, args []string) {
	matched, _ := flagx.SplitArgs(args, []string{"-t", "-d"}, globalBoolFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	verbose := fs.Bool("v", false, "verbose output")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.ProjectDir, "d", cfg.ProjectDir, "project directory")

	if err := fs.Parse(matched); err != nil {
		panic(err)
	}

	if *verbose {
		cfg.LogLevel = "debug"
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
