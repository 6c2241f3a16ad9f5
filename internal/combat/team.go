package combat

// Team labels one side of a battle. Combatants with equal labels fight
// together; any number of distinct labels may take part.
type Team string

// Teams used by the default roster.
const (
	TeamHeroes   Team = "heroes"
	TeamVillains Team = "villains"
)

func (t Team) String() string {
	return string(t)
}
