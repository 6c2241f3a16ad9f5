package batch

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/skirmish/internal/aggregate"
	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/combatlog"
	"github.com/louisbranch/skirmish/internal/core/dice"
	"github.com/louisbranch/skirmish/internal/random"
)

const tracerName = "github.com/louisbranch/skirmish/internal/batch"

// Pool splits a batch across Workers arenas and runs them concurrently.
type Pool struct {
	// Workers defaults to runtime.NumCPU().
	Workers        int
	Battles        int
	Seed           int64
	FlushEvery     int
	MaxTurns       int
	InitiativeMode InitiativeMode
	// Sink receives every arena's flushes and must be safe for concurrent
	// use (see sink.Queue).
	Sink         aggregate.Sink
	CombatLog    *combatlog.Logger
	TraceBattles int
	// Tracer defaults to the global OpenTelemetry provider.
	Tracer trace.Tracer
}

// Split divides battles into workers contiguous shares. The first
// battles%workers shares get one extra battle.
func Split(battles, workers int) []int {
	if workers <= 0 {
		return nil
	}
	shares := make([]int, workers)
	if battles <= 0 {
		return shares
	}
	base, extra := battles/workers, battles%workers
	for i := range shares {
		shares[i] = base
		if i < extra {
			shares[i]++
		}
	}
	return shares
}

// Run simulates the batch over roster. The first arena to fail cancels the
// rest and its error is returned.
func (p Pool) Run(ctx context.Context, roster []combat.Character) (Totals, error) {
	if len(roster) == 0 {
		return Totals{}, combat.ErrEmptyRoster
	}
	if p.Battles < 0 {
		return Totals{}, fmt.Errorf("battles must be non-negative, got %d", p.Battles)
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	tracer := p.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	shares := Split(p.Battles, workers)
	results := make([]Totals, len(shares))
	g, gctx := errgroup.WithContext(ctx)
	for id, battles := range shares {
		if battles == 0 {
			continue
		}
		arena := &Arena{
			ID:             id,
			Roster:         append([]combat.Character(nil), roster...),
			Battles:        battles,
			Source:         dice.NewSource(random.ArenaSeed(p.Seed, id)),
			Aggregator:     aggregate.New(id),
			Sink:           p.Sink,
			FlushEvery:     p.FlushEvery,
			MaxTurns:       p.MaxTurns,
			InitiativeMode: p.InitiativeMode,
			CombatLog:      p.CombatLog,
			TraceBattles:   p.TraceBattles,
		}
		g.Go(func() error {
			ctx, span := tracer.Start(gctx, "batch.arena", trace.WithAttributes(
				attribute.Int("arena.id", arena.ID),
				attribute.Int("arena.battles", arena.Battles),
			))
			defer span.End()

			totals, err := arena.Run(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			span.SetAttributes(
				attribute.Int("arena.total_turns", totals.Summary.TotalTurns),
				attribute.Int("arena.max_turns", totals.Summary.MaxTurns),
			)
			results[arena.ID] = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Totals{}, err
	}

	var totals Totals
	for _, t := range results {
		totals = totals.Merge(t)
	}
	totals.Summary.Arena = 0
	return totals, nil
}
