package combat

import "fmt"

// OverkillThreshold is the damage an incapacitated combatant must take in a
// single hit, exceeded strictly, to die.
const OverkillThreshold = 10

// Condition names the variant of a HealthState.
type Condition int

const (
	ConditionDead Condition = iota
	ConditionIncapacitated
	ConditionAlive
)

func (c Condition) String() string {
	switch c {
	case ConditionDead:
		return "dead"
	case ConditionIncapacitated:
		return "ko"
	case ConditionAlive:
		return "alive"
	default:
		return "unknown"
	}
}

// HealthState is the combatant health state machine: Dead, Incapacitated, or
// Alive with a positive number of hit points. The zero value is Dead.
type HealthState struct {
	condition Condition
	hitPoints int
}

// Dead returns the absorbing terminal state.
func Dead() HealthState {
	return HealthState{condition: ConditionDead}
}

// Incapacitated returns the knocked-out state.
func Incapacitated() HealthState {
	return HealthState{condition: ConditionIncapacitated}
}

// Alive returns a conscious state with hp hit points. hp must be positive;
// Alive(0) does not exist and panics.
func Alive(hp int) HealthState {
	if hp <= 0 {
		panic(fmt.Sprintf("combat: Alive(%d) violates hit points > 0", hp))
	}
	return HealthState{condition: ConditionAlive, hitPoints: hp}
}

// HealthFromHitPoints maps a raw hit point total onto a state: negative is
// Dead, zero is Incapacitated, anything else Alive.
func HealthFromHitPoints(hp int) HealthState {
	switch {
	case hp < 0:
		return Dead()
	case hp == 0:
		return Incapacitated()
	default:
		return Alive(hp)
	}
}

// Condition reports which variant h is.
func (h HealthState) Condition() Condition {
	return h.condition
}

// HitPoints returns the remaining hit points; zero unless Alive.
func (h HealthState) HitPoints() int {
	return h.hitPoints
}

// IsConscious reports whether h is Alive.
func (h HealthState) IsConscious() bool {
	return h.condition == ConditionAlive
}

// IsDead reports whether h is Dead.
func (h HealthState) IsDead() bool {
	return h.condition == ConditionDead
}

// ApplyDamage returns the state after taking amount damage.
//
// An incapacitated combatant only dies from a single hit larger than
// OverkillThreshold, regardless of how far below zero it went when it dropped.
// Negative amounts count as zero.
func (h HealthState) ApplyDamage(amount int) HealthState {
	if amount < 0 {
		amount = 0
	}
	switch h.condition {
	case ConditionDead:
		return h
	case ConditionIncapacitated:
		if amount > OverkillThreshold {
			return Dead()
		}
		return h
	case ConditionAlive:
		return HealthFromHitPoints(h.hitPoints - amount)
	default:
		panic(fmt.Sprintf("combat: unknown health condition %d", h.condition))
	}
}

func (h HealthState) String() string {
	if h.condition == ConditionAlive {
		return fmt.Sprintf("alive(%d)", h.hitPoints)
	}
	return h.condition.String()
}
