package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/rill/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flagSet := pflag.NewFlagSet("rill", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "config file path (default ~/.config/rill/config.toml)")
	endpoint := flagSet.StringP("endpoint", "e", "", `log stream URL, host:port, file path or "-" for stdin`)
	capacity := flagSet.IntP("capacity", "n", 0, "lines to retain (default 1000)")
	flushInterval := flagSet.Duration("flush-interval", 0, `publication interval; "0s" publishes every chunk (default 100ms)`)
	printMode := flagSet.BoolP("print", "p", false, "read until the stream ends, then print retained lines without the UI")
	logFile := flagSet.String("log-file", "", `log file path; "" discards (default ~/.local/state/rill/rill.log)`)
	logLevel := flagSet.String("log-level", "info", "log level: debug, info, warn, error")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  rill [flags] [endpoint]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "rill: %v\n", err)
		return 2
	}

	opts := app.Options{
		ConfigPath: *configPath,
		Endpoint:   *endpoint,
		Capacity:   *capacity,
		LogLevel:   *logLevel,
		Print:      *printMode,
		Stdout:     os.Stdout,
	}
	switch rest := flagSet.Args(); {
	case len(rest) > 1:
		fmt.Fprintf(os.Stderr, "rill: unexpected argument: %s\n", rest[1])
		return 2
	case len(rest) == 1 && opts.Endpoint == "":
		opts.Endpoint = rest[0]
	}
	if flagSet.Changed("flush-interval") {
		opts.FlushInterval = flushInterval
	}
	if flagSet.Changed("log-file") {
		opts.LogFile = logFile
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "rill: %v\n", err)
		return 1
	}
	return 0
}
