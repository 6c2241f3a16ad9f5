package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/skirmish/internal/aggregate"
)

func sampleSnapshot(arena int) aggregate.Snapshot {
	return aggregate.Snapshot{
		Summary: aggregate.Summary{Arena: arena, Battles: 3, TotalTurns: 10, MaxTurns: 5},
		Histogram: []aggregate.HistogramEntry{
			{HistogramKey: aggregate.HistogramKey{Turns: 2, Label: "heroes*"}, Count: 1},
			{HistogramKey: aggregate.HistogramKey{Turns: 5, Label: "villains"}, Count: 2},
		},
	}
}

func TestFileSinkAppendsLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	cfg := FileConfig{Dir: dir}

	for round := 0; round < 2; round++ {
		fs, err := OpenFiles(cfg)
		if err != nil {
			t.Fatalf("open files: %v", err)
		}
		if err := fs.Write(context.Background(), sampleSnapshot(round)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := fs.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	summary := readLines(t, cfg.SummaryPath())
	wantSummary := []string{"0,3,10,3.333,5", "1,3,10,3.333,5"}
	if strings.Join(summary, "|") != strings.Join(wantSummary, "|") {
		t.Fatalf("summary lines = %q, want %q", summary, wantSummary)
	}

	histogram := readLines(t, cfg.HistogramPath())
	wantHistogram := []string{"0,2,heroes*,1", "0,5,villains,2", "1,2,heroes*,1", "1,5,villains,2"}
	if strings.Join(histogram, "|") != strings.Join(wantHistogram, "|") {
		t.Fatalf("histogram lines = %q, want %q", histogram, wantHistogram)
	}
}

func TestFileConfigDefaults(t *testing.T) {
	cfg := FileConfig{Dir: "./output"}
	if cfg.SummaryPath() != filepath.Join("output", DefaultSummaryFile) {
		t.Fatalf("summary path = %q", cfg.SummaryPath())
	}
	cfg.HistogramFile = "hist.out"
	if cfg.HistogramPath() != filepath.Join("output", "hist.out") {
		t.Fatalf("histogram path = %q", cfg.HistogramPath())
	}
}

func TestFileSinkWriteAfterClose(t *testing.T) {
	fs, err := OpenFiles(FileConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open files: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := fs.Write(context.Background(), sampleSnapshot(0)); err != ErrClosed {
		t.Fatalf("write after close = %v, want %v", err, ErrClosed)
	}
}

func TestOpenFilesFailsOnUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if _, err := OpenFiles(FileConfig{Dir: filepath.Join(blocker, "nested")}); err == nil {
		t.Fatal("expected error for directory under a regular file")
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
