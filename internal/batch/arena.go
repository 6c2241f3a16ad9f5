// Package batch runs many independent battles, split across arenas that
// execute in parallel and flush their statistics to a shared sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/skirmish/internal/aggregate"
	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/combatlog"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

// DefaultFlushEvery is the number of battles an arena aggregates before
// flushing to its sink.
const DefaultFlushEvery = 50000

var (
	// ErrInvariantViolation wraps a panic raised while simulating a battle.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrSinkWrite wraps a failure to flush statistics.
	ErrSinkWrite = errors.New("sink write failed")
	// ErrInvalidInitiativeMode is returned for an unknown initiative mode.
	ErrInvalidInitiativeMode = errors.New("invalid initiative mode")
)

// InitiativeMode selects how often initiative is rolled.
type InitiativeMode string

const (
	// InitiativePerBattle rolls a new order for every battle.
	InitiativePerBattle InitiativeMode = "battle"
	// InitiativePerBatch rolls once per arena and replays that order.
	InitiativePerBatch InitiativeMode = "batch"
)

// ParseInitiativeMode parses a mode name. Empty means InitiativePerBattle.
func ParseInitiativeMode(value string) (InitiativeMode, error) {
	switch mode := InitiativeMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "", InitiativePerBattle:
		return InitiativePerBattle, nil
	case InitiativePerBatch:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInitiativeMode, value)
	}
}

// Arena runs a contiguous share of a batch on one goroutine. It owns its
// roster, chance source and aggregator; only the sink may be shared.
type Arena struct {
	ID         int
	Roster     []combat.Character
	Battles    int
	Source     dice.Source
	Aggregator *aggregate.Aggregator
	Sink       aggregate.Sink
	// FlushEvery defaults to DefaultFlushEvery.
	FlushEvery     int
	MaxTurns       int
	InitiativeMode InitiativeMode
	CombatLog      *combatlog.Logger
	// TraceBattles is how many leading battles keep a turn log and are
	// narrated to CombatLog. Negative traces every battle.
	TraceBattles int
}

// Run simulates the arena's battles, flushing every FlushEvery battles and
// once more at the end for the remainder.
func (a *Arena) Run(ctx context.Context) (totals Totals, err error) {
	if len(a.Roster) == 0 {
		return totals, combat.ErrEmptyRoster
	}
	if a.Source == nil {
		return totals, fmt.Errorf("arena %d: chance source is required", a.ID)
	}
	if a.Sink == nil {
		return totals, fmt.Errorf("arena %d: sink is required", a.ID)
	}
	if a.Aggregator == nil {
		a.Aggregator = aggregate.New(a.ID)
	}
	flushEvery := a.FlushEvery
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: arena %d: %v", ErrInvariantViolation, a.ID, r)
		}
	}()

	var order combat.Order
	for i := 1; i <= a.Battles; i++ {
		if err := ctx.Err(); err != nil {
			return totals, err
		}
		order, err = a.nextOrder(order, i)
		if err != nil {
			return totals, err
		}

		traced := a.traced(i)
		battle := combat.NewBattle(order, a.Source, combat.Options{
			MaxTurns:    a.MaxTurns,
			SkipTurnLog: !traced,
		})
		record := battle.Run()
		record.ID = i
		record.Arena = a.ID

		a.Aggregator.Absorb(record)
		totals.Absorb(record)
		if traced {
			a.CombatLog.Battle(record)
		}

		if a.Aggregator.Summarize().Battles >= flushEvery {
			if err := a.flush(ctx); err != nil {
				return totals, err
			}
		}
	}
	if !a.Aggregator.Empty() {
		if err := a.flush(ctx); err != nil {
			return totals, err
		}
	}
	totals.Summary.Arena = a.ID
	return totals, nil
}

func (a *Arena) nextOrder(previous combat.Order, battle int) (combat.Order, error) {
	if a.InitiativeMode == InitiativePerBatch && battle > 1 {
		previous.Reset(a.Roster)
		return previous, nil
	}
	return combat.RollInitiative(a.Source, a.Roster)
}

func (a *Arena) traced(battle int) bool {
	if !a.CombatLog.Enabled() {
		return false
	}
	return a.TraceBattles < 0 || battle <= a.TraceBattles
}

func (a *Arena) flush(ctx context.Context) error {
	if err := a.Aggregator.FlushAndReset(ctx, a.Sink); err != nil {
		return fmt.Errorf("%w: arena %d: %w", ErrSinkWrite, a.ID, err)
	}
	return nil
}
