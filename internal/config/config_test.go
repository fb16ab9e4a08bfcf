package config

import (
	"bytes"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Path != "" || cfg.HasHeaderSet || cfg.Separator != 0 || cfg.Debug {
		t.Fatalf("defaults = %+v, want zero value", cfg)
	}
}

func TestParsePositionalPath(t *testing.T) {
	cfg, err := Parse([]string{"data.csv"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Path != "data.csv" {
		t.Fatalf("Path = %q, want data.csv", cfg.Path)
	}
}

func TestParseHeaderFlags(t *testing.T) {
	cfg, err := Parse([]string{"-header", "data.csv"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.HasHeaderSet || !cfg.HasHeader {
		t.Fatalf("cfg = %+v, want HasHeaderSet=true HasHeader=true", cfg)
	}

	cfg, err = Parse([]string{"-no-header", "data.csv"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.HasHeaderSet || cfg.HasHeader {
		t.Fatalf("cfg = %+v, want HasHeaderSet=true HasHeader=false", cfg)
	}
}

func TestParseRejectsConflictingHeaderFlags(t *testing.T) {
	if _, err := Parse([]string{"-header", "-no-header"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for mutually exclusive flags")
	}
}

func TestParseSeparatorMustBeSingleRune(t *testing.T) {
	cfg, err := Parse([]string{"-sep", ";"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Separator != ';' {
		t.Fatalf("Separator = %q, want ';'", cfg.Separator)
	}

	if _, err := Parse([]string{"-sep", ";;"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for a multi-character -sep")
	}
}

func TestParseRejectsExtraArguments(t *testing.T) {
	if _, err := Parse([]string{"a.csv", "b.csv"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for extra positional arguments")
	}
}
