package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rill/internal/config"
	"github.com/five82/rill/internal/ingest"
	"github.com/five82/rill/internal/logbuf"
	"github.com/five82/rill/internal/prefs"
	"github.com/five82/rill/internal/source"
	"github.com/five82/rill/internal/state"
	"github.com/five82/rill/internal/ui"
)

// Options configure the rill application. Zero or nil override fields
// leave the config file value in place.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/rill/prefs.toml

	Endpoint      string
	Capacity      int
	FlushInterval *time.Duration
	LogFile       *string // "" discards logs
	LogLevel      string  // debug, info, warn, error; empty is info

	// Print runs without a terminal UI: ingest until the stream ends, then
	// write the retained lines to Stdout.
	Print  bool
	Stdout io.Writer
}

// Run boots rill until the stream ends (print mode), the user quits or the
// context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)

	logger, closeLog, err := newLogger(cfg.LogFile, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	src, err := source.Parse(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	buf := logbuf.New(cfg.Capacity)
	store := &state.Store{}
	notify := newNotifier()

	ingOpts := ingest.Options{
		Buffer:        buf,
		Status:        store,
		Logger:        logger,
		FlushInterval: cfg.FlushInterval,
		ChunkSize:     cfg.ChunkSize,
		Encoding:      cfg.Encoding,
		TrimCR:        cfg.TrimCR,
		MaxLineBytes:  cfg.MaxLineBytes,
	}
	if !opts.Print {
		ingOpts.Notify = notify.Notify
	}
	in, err := ingest.New(ingOpts)
	if err != nil {
		return fmt.Errorf("init ingest: %w", err)
	}
	defer in.Stop()

	logger.Info("starting",
		"source", src.String(),
		"capacity", buf.Cap(),
		"flush_interval", cfg.FlushInterval,
		"print", opts.Print,
	)
	if err := in.Start(ctx, src); err != nil {
		return fmt.Errorf("start ingest: %w", err)
	}

	if opts.Print {
		return printBuffer(ctx, in, buf, opts.Stdout)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()

	uiOpts := ui.Options{
		Context:    ctx,
		Lines:      buf,
		Status:     store,
		Restart:    restartFunc(ctx, in, src, logger),
		Logger:     logger,
		RowHeight:  cfg.RowHeight,
		Follow:     userPrefs.Follow,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  prefsPath,
		ShowMemory: cfg.ShowMemory,
	}
	err = ui.Run(uiOpts, func(p *tea.Program) {
		go notify.run(pumpCtx, p.Send)
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return err
}

// restartFunc returns the UI's restart action, or nil when src is consumed
// by its first session (stdin, pipes).
func restartFunc(ctx context.Context, in *ingest.Ingestor, src source.Source, logger *slog.Logger) func() error {
	if !source.CanReopen(src) {
		logger.Debug("restart disabled", "reason", "one-shot source")
		return nil
	}
	return func() error { return in.Start(ctx, src) }
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}
	if opts.Capacity > 0 {
		cfg.Capacity = opts.Capacity
	}
	if opts.FlushInterval != nil && *opts.FlushInterval >= 0 {
		cfg.FlushInterval = *opts.FlushInterval
	}
	if opts.LogFile != nil {
		cfg.LogFile = *opts.LogFile
		if expanded, err := config.ExpandPath(cfg.LogFile); err == nil {
			cfg.LogFile = expanded
		}
	}
}

// printBuffer waits for the session to finish and writes what is retained.
// A failed stream still prints its lines before the error is returned.
func printBuffer(ctx context.Context, in *ingest.Ingestor, buf *logbuf.Buffer, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	select {
	case <-in.Done():
	case <-ctx.Done():
		in.Stop()
	}

	for _, line := range buf.Snapshot() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	snap := in.Status().Snapshot()
	if snap.Phase == state.PhaseFailed {
		return fmt.Errorf("stream %s: %w", snap.Source, snap.LastError)
	}
	return nil
}

// newLogger opens path for append and returns a text logger at level. An
// empty path discards records.
func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	return logger, func() { _ = f.Close() }, nil
}
