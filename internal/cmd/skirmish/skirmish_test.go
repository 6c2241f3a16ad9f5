package skirmish

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/louisbranch/skirmish/internal/batch"
	"github.com/louisbranch/skirmish/internal/sink/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("skirmish", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Battles != 1000 || cfg.FlushEvery != batch.DefaultFlushEvery || cfg.MaxTurns != 10000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Initiative != "battle" || cfg.OutDir != "output" || cfg.QueueSize != 64 || cfg.TraceBattles != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Roster != "" || cfg.DBPath != "" || cfg.CombatLog != "" {
		t.Fatalf("optional paths should default to empty: %+v", cfg)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SKIRMISH_BATTLES", "50")
	t.Setenv("SKIRMISH_SEED", "9")
	t.Setenv("SKIRMISH_INITIATIVE", "batch")
	fs := flag.NewFlagSet("skirmish", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-battles", "75", "-workers", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Battles != 75 || cfg.Workers != 3 || cfg.Seed != 9 || cfg.Initiative != "batch" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseConfigRejectsInvalidValues(t *testing.T) {
	tests := [][]string{
		{"-battles", "-1"},
		{"-workers", "-2"},
		{"-initiative", "round"},
		{"-queue-size", "-1"},
		{"-unknown"},
	}
	for _, args := range tests {
		fs := flag.NewFlagSet("skirmish", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		if _, err := ParseConfig(fs, args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestRunWritesEverySink(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Battles:       200,
		Workers:       2,
		Seed:          11,
		FlushEvery:    30,
		MaxTurns:      10000,
		Initiative:    "battle",
		OutDir:        filepath.Join(dir, "out"),
		SummaryFile:   "summary.csv",
		HistogramFile: "histogram.csv",
		DBPath:        filepath.Join(dir, "skirmish.db"),
		CombatLog:     filepath.Join(dir, "combat.log"),
		TraceBattles:  1,
		QueueSize:     4,
	}
	t.Setenv("SKIRMISH_OTEL_ENDPOINT", "")

	var out, errOut bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run: %v\n%s", err, errOut.String())
	}

	report := out.String()
	for _, want := range []string{"battles: 200\n", "seed: 11\n", "arena summaries stored: 2\n"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}

	summary := readFile(t, filepath.Join(cfg.OutDir, "summary.csv"))
	// 100 battles per arena flushed every 30: four lines each.
	if lines := strings.Count(summary, "\n"); lines != 8 {
		t.Fatalf("summary lines = %d, want 8:\n%s", lines, summary)
	}
	if readFile(t, filepath.Join(cfg.OutDir, "histogram.csv")) == "" {
		t.Fatal("expected histogram lines")
	}
	if !strings.Contains(readFile(t, cfg.CombatLog), "battle over") {
		t.Fatal("expected combat log narrative")
	}

	match := regexp.MustCompile(`run id: ([a-z2-7]{26})`).FindStringSubmatch(report)
	if match == nil {
		t.Fatalf("report missing run id:\n%s", report)
	}
	store, err := sqlite.Open(context.Background(), cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	totals, err := store.HistogramTotals(context.Background(), match[1])
	if err != nil {
		t.Fatalf("histogram totals: %v", err)
	}
	count := 0
	for _, entry := range totals {
		count += entry.Count
	}
	if count != 200 {
		t.Fatalf("stored histogram counts = %d, want 200", count)
	}
}

func TestRunLoadsRosterFile(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "duel.yaml")
	content := "- {name: A, armour_class: 5, to_hit: 20, weapon: 1d8, team: red, hit_points: 8}\n" +
		"- {name: B, armour_class: 5, to_hit: 20, weapon: 1d8, team: blue, hit_points: 8}\n"
	if err := os.WriteFile(rosterPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	t.Setenv("SKIRMISH_OTEL_ENDPOINT", "")

	var out bytes.Buffer
	cfg := Config{Roster: rosterPath, Battles: 40, Workers: 1, Seed: 3, Initiative: "batch", OutDir: dir}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "wins blue:") && !strings.Contains(out.String(), "wins red:") {
		t.Fatalf("report missing team wins:\n%s", out.String())
	}
}

func TestRunFailsOnBadRoster(t *testing.T) {
	t.Setenv("SKIRMISH_OTEL_ENDPOINT", "")
	cfg := Config{Roster: filepath.Join(t.TempDir(), "missing.json"), Battles: 1, OutDir: t.TempDir()}
	if err := Run(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected roster load error")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
