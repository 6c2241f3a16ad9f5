package combat

import "github.com/louisbranch/skirmish/internal/core/dice"

// Character is one combatant's sheet.
type Character struct {
	Name            string
	ArmourClass     int
	ToHit           int
	Weapon          dice.Expression
	ActionsPerRound int
	Team            Team
	Health          HealthState
}

// IsConscious reports whether the character can act.
func (c Character) IsConscious() bool {
	return c.Health.IsConscious()
}

// TakeDamage applies amount to the character's health.
func (c *Character) TakeDamage(amount int) {
	c.Health = c.Health.ApplyDamage(amount)
}

func (c Character) actions() int {
	if c.ActionsPerRound < 1 {
		return 1
	}
	return c.ActionsPerRound
}
