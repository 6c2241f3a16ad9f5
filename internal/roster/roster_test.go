package roster

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/skirmish/internal/combat"
)

const jsonRoster = `[
  {"name": "Hero", "armour_class": 12, "to_hit": 20, "weapon": "2d4+1", "team": "heroes", "hit_points": 10, "actions_per_round": 2},
  {"name": "Villain", "armour_class": 10, "to_hit": 20, "weapon": "1d4", "team": "villains", "health": {"state": "alive", "hit_points": 6}},
  {"name": "Minion", "armour_class": 8, "to_hit": 12, "weapon": "1d6", "team": "villains", "health": {"state": "ko"}}
]`

const yamlRoster = `
- name: Hero
  armour_class: 12
  to_hit: 20
  weapon: 2d4+1
  team: heroes
  hit_points: 10
  actions_per_round: 2
- name: Villain
  armour_class: 10
  to_hit: 20
  weapon: 1d4
  team: villains
  health:
    state: alive
    hit_points: 6
- name: Minion
  armour_class: 8
  to_hit: 12
  weapon: 1d6
  team: villains
  health:
    state: ko
`

const luaRoster = `
local function villain(name, ac, weapon, health)
  return { name = name, armour_class = ac, to_hit = 20, weapon = weapon, team = "villains", health = health }
end

return {
  { name = "Hero", armour_class = 12, to_hit = 20, weapon = "2d4+1", team = "heroes", hit_points = 10, actions_per_round = 2 },
  villain("Villain", 10, "1d4", { state = "alive", hit_points = 6 }),
  { name = "Minion", armour_class = 8, to_hit = 12, weapon = "1d6", team = "villains", health = { state = "ko" } },
}
`

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{file: "roster.json", content: jsonRoster},
		{file: "roster.yaml", content: yamlRoster},
		{file: "roster.YML", content: yamlRoster},
		{file: "roster.lua", content: luaRoster},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			characters, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(characters) != 3 {
				t.Fatalf("characters = %d, want 3", len(characters))
			}
			hero, villain, minion := characters[0], characters[1], characters[2]
			if hero.Name != "Hero" || hero.ArmourClass != 12 || hero.ToHit != 20 || hero.Team != combat.TeamHeroes {
				t.Fatalf("hero = %+v", hero)
			}
			if hero.ActionsPerRound != 2 || hero.Weapon.Max() != 9 || hero.Health.HitPoints() != 10 {
				t.Fatalf("hero actions=%d weapon max=%d hp=%d", hero.ActionsPerRound, hero.Weapon.Max(), hero.Health.HitPoints())
			}
			if villain.ActionsPerRound != 1 || villain.Health != combat.Alive(6) || villain.Team != combat.TeamVillains {
				t.Fatalf("villain = %+v", villain)
			}
			if minion.Health != combat.Incapacitated() || minion.IsConscious() {
				t.Fatalf("minion health = %v", minion.Health)
			}
		})
	}
}

func TestLoadRejectsInvalidRosters(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "json unknown field", file: "r.json", content: `[{"name":"A","armour_class":1,"to_hit":2,"weapon":"1d4","team":"x","hit_points":1,"mana":3}]`},
		{name: "json duplicate name", file: "r.json", content: `[{"name":"A","to_hit":2,"team":"x","hit_points":1},{"name":"A","to_hit":2,"team":"y","hit_points":1}]`},
		{name: "json empty", file: "r.json", content: `[]`},
		{name: "json to_hit zero", file: "r.json", content: `[{"name":"A","to_hit":0,"team":"x","hit_points":1}]`},
		{name: "json negative armour", file: "r.json", content: `[{"name":"A","armour_class":-1,"to_hit":2,"team":"x","hit_points":1}]`},
		{name: "json missing team", file: "r.json", content: `[{"name":"A","to_hit":2,"hit_points":1}]`},
		{name: "json missing health", file: "r.json", content: `[{"name":"A","to_hit":2,"team":"x"}]`},
		{name: "json both health forms", file: "r.json", content: `[{"name":"A","to_hit":2,"team":"x","hit_points":1,"health":{"state":"ko"}}]`},
		{name: "json alive without hit points", file: "r.json", content: `[{"name":"A","to_hit":2,"team":"x","health":{"state":"alive"}}]`},
		{name: "json unknown state", file: "r.json", content: `[{"name":"A","to_hit":2,"team":"x","health":{"state":"asleep"}}]`},
		{name: "yaml unknown field", file: "r.yaml", content: "- name: A\n  to_hit: 2\n  team: x\n  hit_points: 1\n  speed: 3\n"},
		{name: "yaml empty", file: "r.yaml", content: ""},
		{name: "lua not an array", file: "r.lua", content: `return { name = "A" }`},
		{name: "lua unknown field", file: "r.lua", content: `return { { name = "A", to_hit = 2, team = "x", hit_points = 1, speed = 4 } }`},
		{name: "lua fractional hit points", file: "r.lua", content: `return { { name = "A", to_hit = 2, team = "x", hit_points = 1.5 } }`},
		{name: "lua string armour", file: "r.lua", content: `return { { name = "A", to_hit = 2, team = "x", armour_class = "high", hit_points = 1 } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, ErrInvalidRoster) {
				t.Fatalf("load = %v, want ErrInvalidRoster", err)
			}
		})
	}
}

func TestLoadFailures(t *testing.T) {
	if _, err := Load(writeFile(t, "roster.toml", "")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("toml = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "broken.lua", "return {")); err == nil {
		t.Fatal("expected error for lua syntax error")
	}
	if _, err := Load(writeFile(t, "raise.lua", `error("nope")`)); err == nil {
		t.Fatal("expected error for lua runtime error")
	}
}

func TestMalformedWeaponIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	characters, err := Load(writeFile(t, "r.json", `[{"name":"A","to_hit":2,"weapon":"1d6+oops","team":"x","hit_points":1}]`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if characters[0].Weapon.Valid() {
		t.Fatal("expected weapon to carry an error term")
	}
	if !strings.Contains(buf.String(), "oops") {
		t.Fatalf("log = %q, want mention of the bad term", buf.String())
	}
}

func TestDefault(t *testing.T) {
	characters := Default()
	if len(characters) != 3 {
		t.Fatalf("default roster = %d characters, want 3", len(characters))
	}
	want := []struct {
		name string
		ac   int
		hp   int
		team combat.Team
	}{
		{"Hero", 12, 10, combat.TeamHeroes},
		{"Villain-A", 10, 6, combat.TeamVillains},
		{"Villain-B", 10, 6, combat.TeamVillains},
	}
	for i, w := range want {
		c := characters[i]
		if c.Name != w.name || c.ArmourClass != w.ac || c.Health.HitPoints() != w.hp || c.Team != w.team || c.ToHit != 20 {
			t.Fatalf("characters[%d] = %+v", i, c)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
