package combat

// ActionKind identifies what a combatant did with an action. Only attacks
// exist today.
type ActionKind int

const (
	ActionAttack ActionKind = iota
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	default:
		return "unknown"
	}
}

// ActionRecord is one resolved action. Target is empty when the actor found
// nobody to attack. Margin is the roll minus the target's armour class.
type ActionRecord struct {
	Actor        int
	ActorName    string
	Target       string
	Kind         ActionKind
	Roll         int
	Hit          bool
	Margin       int
	Damage       int
	TargetHealth HealthState
}

// HasTarget reports whether the action was aimed at someone.
func (a ActionRecord) HasTarget() bool {
	return a.Target != ""
}

// TurnRecord lists the actions taken during one turn, in initiative order.
type TurnRecord struct {
	Turn    int
	Actions []ActionRecord
}

// BattleRecord is the outcome of one battle.
type BattleRecord struct {
	ID                  int
	Arena               int
	Turns               int
	Winner              Team
	WinningCharacter    *Character
	InitiativeTeam      Team
	WinnerHadInitiative bool
	Stalemate           bool
	TurnLog             []TurnRecord
}

// HasWinner reports whether a team won; false for mutual wipes and stalemates.
func (r BattleRecord) HasWinner() bool {
	return r.Winner != ""
}
