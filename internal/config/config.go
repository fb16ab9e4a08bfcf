// Package config parses the command-line flags csvex accepts, using a
// single flag.FlagSet for this single-command viewer rather than a
// per-subcommand set.
package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Config holds the parsed command-line configuration for one run.
type Config struct {
	// Path is the CSV file to open, or "" to read from stdin.
	Path string
	// Separator overrides delimiter sniffing when non-zero.
	Separator rune
	// HasHeader forces the first-row-is-header decision when Set; when
	// unset, the source package sniffs it.
	HasHeader    bool
	HasHeaderSet bool
	Debug        bool
}

// Parse parses args (typically os.Args[1:]) into a Config. It writes usage
// output to out on error or -h/-help.
func Parse(args []string, out io.Writer) (Config, error) {
	fs := flag.NewFlagSet("csvex", flag.ContinueOnError)
	fs.SetOutput(out)

	sep := fs.String("sep", "", "field separator (single character); sniffed from the file when omitted")
	header := fs.Bool("header", false, "treat the first row as a header")
	noHeader := fs.Bool("no-header", false, "treat every row as data, even the first")
	debug := fs.Bool("debug", false, "enable verbose logging to stderr")

	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: csvex [flags] [path]")
		fmt.Fprintln(out, "Reads path, or stdin when omitted.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	fail := func(err error) (Config, error) {
		fmt.Fprintln(out, err)
		fs.Usage()
		return Config{}, err
	}

	if *header && *noHeader {
		return fail(errors.New("-header and -no-header are mutually exclusive"))
	}

	cfg := Config{Debug: *debug}
	if *header {
		cfg.HasHeader, cfg.HasHeaderSet = true, true
	}
	if *noHeader {
		cfg.HasHeader, cfg.HasHeaderSet = false, true
	}

	if *sep != "" {
		r := []rune(*sep)
		if len(r) != 1 {
			return fail(errors.Errorf("-sep must be a single character, got %q", *sep))
		}
		cfg.Separator = r[0]
	}

	switch fs.NArg() {
	case 0:
		cfg.Path = ""
	case 1:
		cfg.Path = fs.Arg(0)
	default:
		return fail(errors.Errorf("unexpected arguments: %v", fs.Args()[1:]))
	}

	return cfg, nil
}
