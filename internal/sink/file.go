// Package sink implements aggregate.Sink destinations: append-only text files,
// fan-out, and a single-consumer queue shared by concurrent arenas.
package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/louisbranch/skirmish/internal/aggregate"
)

// Default output file names.
const (
	DefaultSummaryFile   = "summary.csv"
	DefaultHistogramFile = "histogram.csv"
)

// ErrClosed is returned by writes to a closed sink.
var ErrClosed = errors.New("sink is closed")

// FileConfig locates the two output files.
type FileConfig struct {
	Dir           string
	SummaryFile   string
	HistogramFile string
}

// SummaryPath returns the full path of the summary file.
func (c FileConfig) SummaryPath() string {
	return filepath.Join(c.Dir, orDefault(c.SummaryFile, DefaultSummaryFile))
}

// HistogramPath returns the full path of the histogram file.
func (c FileConfig) HistogramPath() string {
	return filepath.Join(c.Dir, orDefault(c.HistogramFile, DefaultHistogramFile))
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// FileSink appends summary and histogram lines to two text files. It is not
// safe for concurrent use; wrap it in a Queue when arenas share it.
//
// Summary lines: arenaId,battleCount,totalTurnsRun,averageTurnsRun,maxTurnsRun
// Histogram lines: arenaId,turnsRun,winnerLabel,count
type FileSink struct {
	summary   *os.File
	histogram *os.File
}

// OpenFiles opens (creating if needed) both files in append mode.
func OpenFiles(cfg FileConfig) (*FileSink, error) {
	if dir := strings.TrimSpace(cfg.Dir); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	summary, err := openAppend(cfg.SummaryPath())
	if err != nil {
		return nil, err
	}
	histogram, err := openAppend(cfg.HistogramPath())
	if err != nil {
		_ = summary.Close()
		return nil, err
	}
	return &FileSink{summary: summary, histogram: histogram}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Write appends one summary line and one line per histogram bucket.
func (s *FileSink) Write(ctx context.Context, snapshot aggregate.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.summary == nil {
		return ErrClosed
	}
	arena := strconv.Itoa(snapshot.Summary.Arena)

	if err := writeRecords(s.summary, [][]string{SummaryRecord(snapshot.Summary)}); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	records := make([][]string, 0, len(snapshot.Histogram))
	for _, entry := range snapshot.Histogram {
		records = append(records, []string{
			arena,
			strconv.Itoa(entry.Turns),
			entry.Label,
			strconv.Itoa(entry.Count),
		})
	}
	if err := writeRecords(s.histogram, records); err != nil {
		return fmt.Errorf("write histogram: %w", err)
	}
	return nil
}

// SummaryRecord formats a summary as its CSV fields.
func SummaryRecord(summary aggregate.Summary) []string {
	return []string{
		strconv.Itoa(summary.Arena),
		strconv.Itoa(summary.Battles),
		strconv.Itoa(summary.TotalTurns),
		strconv.FormatFloat(summary.Average(), 'f', 3, 64),
		strconv.Itoa(summary.MaxTurns),
	}
}

func writeRecords(f *os.File, records [][]string) error {
	if len(records) == 0 {
		return nil
	}
	buf := bufio.NewWriter(f)
	w := csv.NewWriter(buf)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return buf.Flush()
}

// Close closes both files.
func (s *FileSink) Close() error {
	if s == nil || s.summary == nil {
		return nil
	}
	err := errors.Join(s.summary.Close(), s.histogram.Close())
	s.summary, s.histogram = nil, nil
	return err
}

var _ aggregate.Sink = (*FileSink)(nil)
