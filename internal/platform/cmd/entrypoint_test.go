package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Roster  string `env:"CMD_TEST_ROSTER" envDefault:"roster.json"`
	Battles int    `env:"CMD_TEST_BATTLES" envDefault:"10"`
}

func TestParseConfigReadsEnvThenFlags(t *testing.T) {
	t.Setenv("SKIRMISH_CMD_TEST_ROSTER", "env.yaml")
	t.Setenv("SKIRMISH_CMD_TEST_BATTLES", "20")

	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Roster, "roster", cfg.Roster, "roster")
	fs.IntVar(&cfg.Battles, "battles", cfg.Battles, "battles")

	if err := ParseArgs(fs, []string{"-roster", "flag.lua"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Roster != "flag.lua" {
		t.Fatalf("expected flag roster, got %q", cfg.Roster)
	}
	if cfg.Battles != 20 {
		t.Fatalf("expected env battles, got %d", cfg.Battles)
	}
}

func TestParseConfigRejectsNil(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParserAndPositionals(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := ParseArgs(fs, []string{"stray"}); err == nil {
		t.Fatal("expected positional argument error")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceSkirmish, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("SKIRMISH_OTEL_ENDPOINT", "")
	boom := errors.New("boom")
	called := false
	err := RunWithTelemetry(context.Background(), ServiceSkirmish, func(context.Context) error {
		called = true
		return boom
	})
	if !called {
		t.Fatal("expected run to be called")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
