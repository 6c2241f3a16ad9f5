// Package check resolves a rolled total against a target number.
package check

// Exceeds reports whether total is strictly greater than target. An attack
// roll hits only when it beats the defender's armour class outright.
func Exceeds(total, target int) bool {
	return total > target
}

// Margin calculates the margin of success or failure.
// Positive values indicate success, zero or negative indicate failure.
func Margin(total, target int) int {
	return total - target
}

// Result represents the outcome of a check.
type Result struct {
	Success bool
	Margin  int
}

// Check performs a strict check of total against target and returns the result.
func Check(total, target int) Result {
	return Result{
		Success: Exceeds(total, target),
		Margin:  Margin(total, target),
	}
}
