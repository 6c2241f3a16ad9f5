package combat

import (
	"errors"
	"sort"

	"github.com/louisbranch/skirmish/internal/core/dice"
)

// InitiativeDie is the die rolled by every combatant to set turn order.
const InitiativeDie = 20

// ErrEmptyRoster indicates a battle was requested with no combatants.
var ErrEmptyRoster = errors.New("roster must contain at least one combatant")

// Slot pairs a rolled initiative value with the battle's own copy of a
// combatant. RosterIndex points back at the roster entry it was copied from.
type Slot struct {
	Initiative  int
	RosterIndex int
	Character   Character
}

// Order is a roster sorted into turn order.
type Order struct {
	Slots []Slot
}

// RollInitiative rolls 1d20 for each combatant in roster order and sorts the
// copies by roll, highest first. Ties keep roster order.
func RollInitiative(src dice.Source, roster []Character) (Order, error) {
	if len(roster) == 0 {
		return Order{}, ErrEmptyRoster
	}
	slots := make([]Slot, len(roster))
	for i, c := range roster {
		slots[i] = Slot{
			Initiative:  dice.RollDie(src, InitiativeDie),
			RosterIndex: i,
			Character:   c,
		}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Initiative > slots[j].Initiative
	})
	return Order{Slots: slots}, nil
}

// Winner returns the slot that holds initiative: the highest roll, earliest
// in the roster on ties.
func (o Order) Winner() Slot {
	if len(o.Slots) == 0 {
		return Slot{}
	}
	return o.Slots[0]
}

// Reset re-seats fresh copies of roster into the existing order without
// rolling again. roster must be the roster the order was rolled from.
func (o Order) Reset(roster []Character) {
	for i := range o.Slots {
		o.Slots[i].Character = roster[o.Slots[i].RosterIndex]
	}
}
