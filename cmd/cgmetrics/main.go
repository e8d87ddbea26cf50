// Package main provides the cgmetrics munin plugin entry point.
// cgmetrics polls a cgminer compatible mining daemon once per invocation
// and prints hashrate, utility, temperature and share counters as munin
// multigraphs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sbaerlocher/cgmetrics/internal/cgminer"
	"github.com/sbaerlocher/cgmetrics/internal/config"
	"github.com/sbaerlocher/cgmetrics/internal/errors"
	"github.com/sbaerlocher/cgmetrics/internal/munin"
	"github.com/sbaerlocher/cgmetrics/internal/plugin"
	"github.com/sbaerlocher/cgmetrics/pkg/device"
)

const (
	modeFetch    = "fetch"
	modeConfig   = "config"
	modeAutoconf = "autoconf"
)

// setupLogger routes all diagnostics to stderr. Munin reads the protocol
// from stdout, so nothing else may write there.
func setupLogger(cfg config.Config) {
	var logger zerolog.Logger

	if cfg.LogFormat == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	log.Logger = logger.Level(level).With().Timestamp().Logger()
}

func parseMode(args []string) (string, error) {
	if len(args) == 0 {
		return modeFetch, nil
	}
	if len(args) > 1 {
		return "", fmt.Errorf("too many arguments: %v", args)
	}

	switch args[0] {
	case modeConfig:
		return modeConfig, nil
	case modeAutoconf:
		return modeAutoconf, nil
	default:
		return "", fmt.Errorf("unknown argument %q", args[0])
	}
}

func printVersion() {
	fmt.Printf("cgmetrics %s (commit: %s)\n", versioninfo.Version, versioninfo.Revision)
	if !versioninfo.LastCommit.IsZero() {
		fmt.Printf("commit time: %s\n", versioninfo.LastCommit.Format(time.RFC3339))
	}
	fmt.Printf("go version: %s\n", runtime.Version())
}

func printHelp() {
	fmt.Printf("cgmetrics - munin multigraph plugin for cgminer compatible daemons\n\n")
	fmt.Printf("Usage: cgmetrics [options] [config|autoconf]\n\n")
	fmt.Printf("Modes:\n")
	fmt.Printf("  (none)    print current values for all graphs\n")
	fmt.Printf("  config    print graph and data-source declarations\n")
	fmt.Printf("  autoconf  report whether the daemon is reachable\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nEnvironment variables:\n")
	fmt.Printf("  host        daemon API host (default: localhost)\n")
	fmt.Printf("  port        daemon API port (default: 4028)\n")
	fmt.Printf("  timeout     request timeout, Go duration or seconds (default: 10s)\n")
	fmt.Printf("  LOG_LEVEL   log level: debug, info, warn, error (default: info)\n")
	fmt.Printf("  LOG_FORMAT  log format: text, json (default: text)\n")
	fmt.Printf("\nFor more information, visit: https://github.com/sbaerlocher/cgmetrics\n")
}

func main() {
	os.Exit(run())
}

func run() int {
	var showVersion bool
	var showHelp bool

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&showHelp, "help", false, "show help information")
	flag.Parse()

	if showVersion {
		printVersion()
		return errors.ExitOK
	}

	if showHelp {
		printHelp()
		return errors.ExitOK
	}

	// A .env next to the plugin is a development convenience; real
	// deployments get their environment from munin plugin-conf.
	_ = godotenv.Load()

	cfg := config.Load()

	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Configuration validation failed")
		return errors.ExitCode(err)
	}

	mode, err := parseMode(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "cgmetrics: %v\nusage: cgmetrics [config|autoconf]\n", err)
		return errors.ExitUsage
	}

	log.Debug().
		Str("mode", mode).
		Str("daemon", cfg.Addr()).
		Dur("timeout", cfg.Timeout).
		Msg("Starting plugin run")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client := cgminer.NewClient(cfg.Addr(), cfg.Timeout)
	runner := plugin.NewRunner(client, device.DefaultRegistry())

	switch mode {
	case modeAutoconf:
		// The verdict line is the answer, reachable or not.
		if err := runner.Autoconf(ctx, os.Stdout); err != nil {
			log.Error().Err(err).Msg("Autoconf failed")
			return errors.ExitInternal
		}
		return errors.ExitOK
	case modeConfig:
		err = runner.Run(ctx, munin.Config, os.Stdout)
	default:
		err = runner.Run(ctx, munin.Fetch, os.Stdout)
	}

	if err != nil {
		log.Error().Err(err).Msg("Plugin run failed")
		return errors.ExitCode(err)
	}

	return errors.ExitOK
}
