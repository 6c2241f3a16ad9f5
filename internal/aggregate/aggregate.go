// Package aggregate folds battle records into bounded-memory batch statistics
// and hands periodic snapshots to a Sink.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/louisbranch/skirmish/internal/combat"
)

// Histogram labels for battles without a winning team.
const (
	LabelNoWinner  = "none"
	LabelStalemate = "stalemate"
	// InitiativeMarker is appended to a winner label when the winning team
	// also held initiative.
	InitiativeMarker = "*"
)

// Summary is the running summary of an aggregation interval.
type Summary struct {
	Arena      int
	Battles    int
	TotalTurns int
	MaxTurns   int
}

// Average returns the mean turns per battle, or zero when empty.
func (s Summary) Average() float64 {
	if s.Battles == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(s.Battles)
}

// Merge adds other into s. Arena is left unchanged.
func (s Summary) Merge(other Summary) Summary {
	s.Battles += other.Battles
	s.TotalTurns += other.TotalTurns
	if other.MaxTurns > s.MaxTurns {
		s.MaxTurns = other.MaxTurns
	}
	return s
}

// HistogramKey groups battles by turns run and outcome label.
type HistogramKey struct {
	Turns int
	Label string
}

// HistogramEntry is one histogram bucket and its count.
type HistogramEntry struct {
	HistogramKey
	Count int
}

// Snapshot is what an Aggregator hands to a Sink on flush.
type Snapshot struct {
	Summary   Summary
	Histogram []HistogramEntry
}

// Sink receives aggregate snapshots.
type Sink interface {
	Write(ctx context.Context, snapshot Snapshot) error
}

// Label returns the histogram label for a battle record.
func Label(record combat.BattleRecord) string {
	switch {
	case record.Stalemate:
		return LabelStalemate
	case !record.HasWinner():
		return LabelNoWinner
	case record.WinnerHadInitiative:
		return record.Winner.String() + InitiativeMarker
	default:
		return record.Winner.String()
	}
}

// Aggregator accumulates battle records for one arena. It is not safe for
// concurrent use.
type Aggregator struct {
	summary   Summary
	histogram map[HistogramKey]int
}

// New returns an empty Aggregator for arena.
func New(arena int) *Aggregator {
	return &Aggregator{
		summary:   Summary{Arena: arena},
		histogram: map[HistogramKey]int{},
	}
}

// Absorb folds one battle record into the running statistics. The record is
// not retained.
func (a *Aggregator) Absorb(record combat.BattleRecord) {
	a.summary.Battles++
	a.summary.TotalTurns += record.Turns
	if record.Turns > a.summary.MaxTurns {
		a.summary.MaxTurns = record.Turns
	}
	a.histogram[HistogramKey{Turns: record.Turns, Label: Label(record)}]++
}

// Summarize returns the current summary.
func (a *Aggregator) Summarize() Summary {
	return a.summary
}

// Histogram returns the buckets sorted by turns, then label.
func (a *Aggregator) Histogram() []HistogramEntry {
	entries := make([]HistogramEntry, 0, len(a.histogram))
	for key, count := range a.histogram {
		entries = append(entries, HistogramEntry{HistogramKey: key, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Turns != entries[j].Turns {
			return entries[i].Turns < entries[j].Turns
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Snapshot returns the current summary and histogram.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{Summary: a.Summarize(), Histogram: a.Histogram()}
}

// Empty reports whether nothing has been absorbed since the last reset.
func (a *Aggregator) Empty() bool {
	return a.summary.Battles == 0
}

// Reset clears the statistics, keeping the arena.
func (a *Aggregator) Reset() {
	a.summary = Summary{Arena: a.summary.Arena}
	clear(a.histogram)
}

// FlushAndReset writes the current snapshot to sink and then resets. On a
// write error the statistics are kept.
func (a *Aggregator) FlushAndReset(ctx context.Context, sink Sink) error {
	if sink == nil {
		return fmt.Errorf("sink is required")
	}
	if err := sink.Write(ctx, a.Snapshot()); err != nil {
		return err
	}
	a.Reset()
	return nil
}
