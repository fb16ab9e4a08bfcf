// Command csvex is an interactive terminal viewer for delimited text
// files: it opens a file (or captures stdin), auto-detects the delimiter
// and header row, and lets the user filter, navigate, resize and
// histogram columns without loading the whole file into memory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/csvquery/csvex/internal/app"
	"github.com/csvquery/csvex/internal/config"
	"github.com/csvquery/csvex/internal/logx"
	"github.com/csvquery/csvex/internal/source"
	"github.com/csvquery/csvex/internal/term"
)

// Version information.
const (
	Version   = "0.1.0"
	BuildDate = "2026-07-31"
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2) // flag.ContinueOnError already printed usage
	}
	logx.SetDebug(cfg.Debug)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "csvex: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logx.Infof("received shutdown signal")
		cancel()
	}()

	src, err := source.Open(cfg.Path)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	if cfg.Separator != 0 {
		src.SetDelimiter(byte(cfg.Separator))
	}
	if cfg.HasHeaderSet {
		src.SetHasHeader(cfg.HasHeader)
	}

	canvas, err := term.NewTcellCanvas()
	if err != nil {
		src.Close()
		return errors.Wrap(err, "init terminal")
	}

	a, err := app.New(ctx, canvas, src)
	if err != nil {
		canvas.Close()
		src.Close()
		return errors.Wrap(err, "start viewer")
	}
	defer a.Close()

	a.Run()
	return nil
}
