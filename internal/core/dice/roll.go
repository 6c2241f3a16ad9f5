package dice

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Sides int
	Count int
}

// Roll captures the results for a single Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result captures the results from rolling multiple specs.
type Result struct {
	Rolls []Roll
	Total int
}

// RollWithSource rolls dice against the provided source.
//
// # Ordering
//
// Specs are processed in slice order and the resulting Roll entries in
// Result.Rolls appear in the same order.
//
// # Totals
//
// Each Roll.Total is the sum of its Results. Result.Total is the sum of every
// Roll.Total.
//
// # Errors
//
//   - At least one Spec must be provided, otherwise ErrMissingDice.
//   - Each Spec must have Sides > 0 and Count > 0, otherwise ErrInvalidDiceSpec.
func RollWithSource(src Source, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0

	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := RollDie(src, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}
