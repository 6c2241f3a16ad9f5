package combat

import (
	"github.com/louisbranch/skirmish/internal/core/check"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

// DefaultMaxTurns caps a battle when Options.MaxTurns is unset.
const DefaultMaxTurns = 10000

// State is the battle lifecycle.
type State int

const (
	StateInProgress State = iota
	StateDecided
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateDecided:
		return "decided"
	default:
		return "unknown"
	}
}

// Options tunes a battle.
type Options struct {
	// MaxTurns ends the battle as a stalemate once reached. Zero means
	// DefaultMaxTurns.
	MaxTurns int
	// SkipTurnLog drops per-turn action records from the BattleRecord.
	SkipTurnLog bool
}

// Battle runs one encounter over an initiative order. It owns the order's
// slots until it is decided.
type Battle struct {
	slots     []Slot
	src       dice.Source
	opts      Options
	turn      int
	turnsRun  int
	state     State
	stalemate bool
	log       []TurnRecord
}

// NewBattle prepares a battle. The initial state is decided already when the
// order holds at most one side.
func NewBattle(order Order, src dice.Source, opts Options) *Battle {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	b := &Battle{
		slots: order.Slots,
		src:   src,
		opts:  opts,
		turn:  1,
		state: StateInProgress,
	}
	if b.IsThereAWinner() {
		b.state = StateDecided
	}
	return b
}

// State returns the current lifecycle state.
func (b *Battle) State() State {
	return b.state
}

// Run steps the battle until it is decided and returns its record.
func (b *Battle) Run() BattleRecord {
	for b.Step() {
	}
	return b.Record()
}

// Step runs one full turn and then evaluates the win condition. It returns
// false once the battle is decided.
func (b *Battle) Step() bool {
	if b.state == StateDecided {
		return false
	}

	record := TurnRecord{Turn: b.turn}
	for i := range b.slots {
		if !b.slots[i].Character.IsConscious() {
			continue
		}
		record.Actions = b.act(i, record.Actions)
	}
	if !b.opts.SkipTurnLog {
		b.log = append(b.log, record)
	}
	b.turnsRun = b.turn

	switch {
	case b.IsThereAWinner():
		b.state = StateDecided
	case b.turnsRun >= b.opts.MaxTurns:
		b.state = StateDecided
		b.stalemate = true
	default:
		b.turn++
	}
	return b.state == StateInProgress
}

func (b *Battle) act(actor int, actions []ActionRecord) []ActionRecord {
	attacker := b.slots[actor].Character
	for n := 0; n < attacker.actions(); n++ {
		target, ok := b.Target(actor)
		if !ok {
			actions = append(actions, ActionRecord{
				Actor:     actor,
				ActorName: attacker.Name,
				Kind:      ActionAttack,
			})
			continue
		}
		actions = append(actions, b.attack(actor, target))
	}
	return actions
}

func (b *Battle) attack(actor, target int) ActionRecord {
	attacker := b.slots[actor].Character
	defender := &b.slots[target].Character

	roll := dice.RollDie(b.src, attacker.ToHit)
	result := check.Check(roll, defender.ArmourClass)
	damage := 0
	if result.Success {
		damage = attacker.Weapon.Roll(b.src)
		defender.TakeDamage(damage)
	}
	return ActionRecord{
		Actor:        actor,
		ActorName:    attacker.Name,
		Target:       defender.Name,
		Kind:         ActionAttack,
		Roll:         roll,
		Hit:          result.Success,
		Margin:       result.Margin,
		Damage:       damage,
		TargetHealth: defender.Health,
	}
}

// Target returns the first conscious slot, in initiative order, that belongs
// to a different team than actor.
func (b *Battle) Target(actor int) (int, bool) {
	team := b.slots[actor].Character.Team
	for i := range b.slots {
		c := b.slots[i].Character
		if c.Team != team && c.IsConscious() {
			return i, true
		}
	}
	return 0, false
}

// IsThereAWinner reports whether every conscious combatant is on one team,
// including the case where nobody is conscious.
func (b *Battle) IsThereAWinner() bool {
	var team Team
	seen := false
	for i := range b.slots {
		c := b.slots[i].Character
		if !c.IsConscious() {
			continue
		}
		if !seen {
			team, seen = c.Team, true
			continue
		}
		if c.Team != team {
			return false
		}
	}
	return true
}

// Record summarizes the battle. Winner is empty while in progress, after a
// mutual wipe, and for stalemates.
func (b *Battle) Record() BattleRecord {
	record := BattleRecord{
		Turns:     b.turnsRun,
		Stalemate: b.stalemate,
		TurnLog:   b.log,
	}
	if len(b.slots) > 0 {
		record.InitiativeTeam = b.slots[0].Character.Team
	}
	if b.state != StateDecided || b.stalemate {
		return record
	}
	for i := range b.slots {
		c := b.slots[i].Character
		if c.IsConscious() {
			snapshot := c
			record.Winner = c.Team
			record.WinningCharacter = &snapshot
			record.WinnerHadInitiative = c.Team == record.InitiativeTeam
			break
		}
	}
	return record
}
