package roster

import (
	"fmt"
	"math"

	"github.com/Shopify/go-lua"
)

// loadLua runs a script that returns an array of character tables, e.g.
//
//	return {
//	  { name = "Hero", armour_class = 12, to_hit = 20, weapon = "1d6",
//	    team = "heroes", hit_points = 10 },
//	}
func loadLua(path string) ([]Record, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	defer state.Pop(1)

	entries, ok := tableToGo(state, -1).([]any)
	if !ok {
		return nil, fmt.Errorf("%w: roster script must return an array of tables", ErrInvalidRoster)
	}
	records := make([]Record, 0, len(entries))
	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d is not a table", ErrInvalidRoster, i+1)
		}
		record, err := recordFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidRoster, i+1, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func recordFromFields(fields map[string]any) (Record, error) {
	var record Record
	for key, value := range fields {
		var err error
		switch key {
		case "name":
			record.Name, err = stringField(key, value)
		case "armour_class":
			record.ArmourClass, err = intField(key, value)
		case "to_hit":
			record.ToHit, err = intField(key, value)
		case "weapon":
			record.Weapon, err = stringField(key, value)
		case "actions_per_round":
			record.ActionsPerRound, err = intField(key, value)
		case "team":
			record.Team, err = stringField(key, value)
		case "hit_points":
			var hp int
			hp, err = intField(key, value)
			record.HitPoints = &hp
		case "health":
			record.Health, err = healthField(value)
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return Record{}, err
		}
	}
	return record, nil
}

func healthField(value any) (*HealthRecord, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("health must be a table")
	}
	health := &HealthRecord{}
	for key, v := range fields {
		var err error
		switch key {
		case "state":
			health.State, err = stringField("health.state", v)
		case "hit_points":
			health.HitPoints, err = intField("health.hit_points", v)
		default:
			err = fmt.Errorf("unknown field health.%s", key)
		}
		if err != nil {
			return nil, err
		}
	}
	return health, nil
}

func stringField(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func intField(key string, value any) (int, error) {
	n, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo returns a []any for sequence tables and a map otherwise.
func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex, count := 0, 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
