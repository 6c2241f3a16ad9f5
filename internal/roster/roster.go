// Package roster loads combatant definitions from JSON, YAML or Lua files
// and turns them into combat characters.
package roster

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

var (
	// ErrInvalidRoster wraps every validation failure.
	ErrInvalidRoster = errors.New("invalid roster")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported roster format")
)

// Health states accepted in a health block.
const (
	StateAlive = "alive"
	StateKO    = "ko"
	StateDead  = "dead"
)

// Record is one combatant as written in a roster file. Exactly one of
// HitPoints and Health must be set.
type Record struct {
	Name            string        `json:"name" yaml:"name"`
	ArmourClass     int           `json:"armour_class" yaml:"armour_class"`
	ToHit           int           `json:"to_hit" yaml:"to_hit"`
	Weapon          string        `json:"weapon" yaml:"weapon"`
	ActionsPerRound int           `json:"actions_per_round,omitempty" yaml:"actions_per_round,omitempty"`
	Team            string        `json:"team" yaml:"team"`
	HitPoints       *int          `json:"hit_points,omitempty" yaml:"hit_points,omitempty"`
	Health          *HealthRecord `json:"health,omitempty" yaml:"health,omitempty"`
}

// HealthRecord spells out a starting health state.
type HealthRecord struct {
	State     string `json:"state" yaml:"state"`
	HitPoints int    `json:"hit_points,omitempty" yaml:"hit_points,omitempty"`
}

// Load reads the roster at path, choosing the decoder from its extension,
// and converts it to characters.
func Load(path string) ([]combat.Character, error) {
	var (
		records []Record
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		records, err = loadJSON(path)
	case ".yaml", ".yml":
		records, err = loadYAML(path)
	case ".lua":
		records, err = loadLua(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	characters, err := ToCharacters(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return characters, nil
}

// ToCharacters validates records and builds characters in the same order.
// Malformed weapon dice terms are logged and roll as zero.
func ToCharacters(records []Record) ([]combat.Character, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no combatants", ErrInvalidRoster)
	}
	seen := make(map[string]struct{}, len(records))
	characters := make([]combat.Character, 0, len(records))
	for i, record := range records {
		character, err := record.Character()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidRoster, i+1, err)
		}
		if _, dup := seen[character.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRoster, character.Name)
		}
		seen[character.Name] = struct{}{}
		if bad := character.Weapon.Errors(); len(bad) > 0 {
			log.Printf("roster: %s weapon %q has malformed terms %q; they roll as zero", character.Name, character.Weapon.String(), bad)
		}
		characters = append(characters, character)
	}
	return characters, nil
}

// Character validates one record and converts it.
func (r Record) Character() (combat.Character, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return combat.Character{}, errors.New("name is required")
	}
	if r.ArmourClass < 0 {
		return combat.Character{}, fmt.Errorf("%s: armour_class must be non-negative", name)
	}
	if r.ToHit < 1 {
		return combat.Character{}, fmt.Errorf("%s: to_hit must be at least 1", name)
	}
	if r.ActionsPerRound < 0 {
		return combat.Character{}, fmt.Errorf("%s: actions_per_round must be non-negative", name)
	}
	team := strings.TrimSpace(r.Team)
	if team == "" {
		return combat.Character{}, fmt.Errorf("%s: team is required", name)
	}
	health, err := r.health()
	if err != nil {
		return combat.Character{}, fmt.Errorf("%s: %w", name, err)
	}
	actions := r.ActionsPerRound
	if actions == 0 {
		actions = 1
	}
	return combat.Character{
		Name:            name,
		ArmourClass:     r.ArmourClass,
		ToHit:           r.ToHit,
		Weapon:          dice.Parse(r.Weapon),
		ActionsPerRound: actions,
		Team:            combat.Team(team),
		Health:          health,
	}, nil
}

func (r Record) health() (combat.HealthState, error) {
	switch {
	case r.HitPoints != nil && r.Health != nil:
		return combat.HealthState{}, errors.New("set either hit_points or health, not both")
	case r.HitPoints != nil:
		return combat.HealthFromHitPoints(*r.HitPoints), nil
	case r.Health == nil:
		return combat.HealthState{}, errors.New("hit_points or health is required")
	}
	switch strings.ToLower(strings.TrimSpace(r.Health.State)) {
	case StateAlive:
		if r.Health.HitPoints <= 0 {
			return combat.HealthState{}, errors.New("alive requires positive hit_points")
		}
		return combat.Alive(r.Health.HitPoints), nil
	case StateKO:
		return combat.Incapacitated(), nil
	case StateDead:
		return combat.Dead(), nil
	default:
		return combat.HealthState{}, fmt.Errorf("unknown health state %q", r.Health.State)
	}
}

// Default returns the built-in roster: one hero against two villains.
func Default() []combat.Character {
	hp := func(n int) *int { return &n }
	records := []Record{
		{Name: "Hero", ArmourClass: 12, ToHit: 20, Weapon: "1d6", Team: string(combat.TeamHeroes), HitPoints: hp(10)},
		{Name: "Villain-A", ArmourClass: 10, ToHit: 20, Weapon: "1d4", Team: string(combat.TeamVillains), HitPoints: hp(6)},
		{Name: "Villain-B", ArmourClass: 10, ToHit: 20, Weapon: "1d4", Team: string(combat.TeamVillains), HitPoints: hp(6)},
	}
	characters, err := ToCharacters(records)
	if err != nil {
		panic(err)
	}
	return characters
}
