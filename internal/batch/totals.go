package batch

import (
	"github.com/louisbranch/skirmish/internal/aggregate"
	"github.com/louisbranch/skirmish/internal/combat"
)

// Totals accumulates whole-run statistics for the final report. Unlike an
// Aggregator it is never reset by flushing.
type Totals struct {
	Summary        aggregate.Summary
	Wins           map[combat.Team]int
	InitiativeWins int
	NoWinner       int
	Stalemates     int
}

// Absorb counts one battle.
func (t *Totals) Absorb(record combat.BattleRecord) {
	t.Summary.Battles++
	t.Summary.TotalTurns += record.Turns
	if record.Turns > t.Summary.MaxTurns {
		t.Summary.MaxTurns = record.Turns
	}
	switch {
	case record.Stalemate:
		t.Stalemates++
	case !record.HasWinner():
		t.NoWinner++
	default:
		if t.Wins == nil {
			t.Wins = make(map[combat.Team]int)
		}
		t.Wins[record.Winner]++
		if record.WinnerHadInitiative {
			t.InitiativeWins++
		}
	}
}

// Merge returns t with other added to it.
func (t Totals) Merge(other Totals) Totals {
	merged := Totals{
		Summary:        t.Summary.Merge(other.Summary),
		InitiativeWins: t.InitiativeWins + other.InitiativeWins,
		NoWinner:       t.NoWinner + other.NoWinner,
		Stalemates:     t.Stalemates + other.Stalemates,
	}
	for _, wins := range []map[combat.Team]int{t.Wins, other.Wins} {
		for team, n := range wins {
			if merged.Wins == nil {
				merged.Wins = make(map[combat.Team]int)
			}
			merged.Wins[team] += n
		}
	}
	return merged
}
