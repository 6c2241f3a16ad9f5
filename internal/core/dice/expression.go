package dice

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TermKind identifies what an expression term contributes to a roll.
type TermKind int

const (
	// TermModifier is a flat non-negative integer.
	TermModifier TermKind = iota
	// TermDice is an [N]dM group of dice.
	TermDice
	// TermInvalid is a term that could not be parsed; it contributes zero.
	TermInvalid
)

func (k TermKind) String() string {
	switch k {
	case TermModifier:
		return "modifier"
	case TermDice:
		return "dice"
	case TermInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Term is one "+"-separated piece of an expression.
type Term struct {
	Kind  TermKind
	Spec  Spec
	Value int
	Raw   string
}

// Limits on a single term. Larger terms parse as TermInvalid.
const (
	MaxDiceCount = 100
	MaxDiceSides = 1000
	MaxModifier  = 10000
)

// Expression is a parsed dice expression such as "2d6+1d4+3".
type Expression struct {
	raw      string
	terms    []Term
	dice     []Spec
	modifier int
}

// Parse parses a dice expression. Whitespace is ignored and terms are split on
// "+". A term is either a non-negative integer or [N]dM with N defaulting to 1.
// Terms that match neither form are kept as TermInvalid and roll to zero, so
// Parse never fails; callers inspect Errors to report them.
func Parse(expr string) Expression {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expr)

	parsed := Expression{raw: compact}
	if compact == "" {
		return parsed
	}
	for _, raw := range strings.Split(compact, "+") {
		term := parseTerm(raw)
		switch term.Kind {
		case TermModifier:
			parsed.modifier += term.Value
		case TermDice:
			parsed.dice = append(parsed.dice, term.Spec)
		}
		parsed.terms = append(parsed.terms, term)
	}
	return parsed
}

func parseTerm(raw string) Term {
	invalid := Term{Kind: TermInvalid, Raw: raw}
	parts := strings.Split(strings.ToLower(raw), "d")
	switch len(parts) {
	case 1:
		value, err := strconv.Atoi(parts[0])
		if err != nil || value < 0 || value > MaxModifier {
			return invalid
		}
		return Term{Kind: TermModifier, Value: value, Raw: raw}
	case 2:
		count := 1
		if parts[0] != "" {
			n, err := strconv.Atoi(parts[0])
			if err != nil || n <= 0 || n > MaxDiceCount {
				return invalid
			}
			count = n
		}
		sides, err := strconv.Atoi(parts[1])
		if err != nil || sides <= 0 || sides > MaxDiceSides {
			return invalid
		}
		return Term{Kind: TermDice, Spec: Spec{Sides: sides, Count: count}, Raw: raw}
	default:
		return invalid
	}
}

// Terms returns a copy of the parsed terms in expression order.
func (e Expression) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

// Errors returns the raw text of every term that failed to parse.
func (e Expression) Errors() []string {
	var bad []string
	for _, term := range e.terms {
		if term.Kind == TermInvalid {
			bad = append(bad, term.Raw)
		}
	}
	return bad
}

// Valid reports whether every term parsed.
func (e Expression) Valid() bool {
	return len(e.Errors()) == 0
}

// Roll evaluates the expression against src, rolling dice groups in
// expression order. Invalid terms add nothing.
func (e Expression) Roll(src Source) int {
	if len(e.dice) == 0 {
		return e.modifier
	}
	result, err := RollWithSource(src, e.dice)
	if err != nil {
		panic(fmt.Sprintf("dice: parsed expression %q holds an invalid spec: %v", e.raw, err))
	}
	return result.Total + e.modifier
}

// Min returns the smallest value Roll can produce.
func (e Expression) Min() int {
	total := 0
	for _, term := range e.terms {
		switch term.Kind {
		case TermModifier:
			total += term.Value
		case TermDice:
			total += term.Spec.Count
		}
	}
	return total
}

// Max returns the largest value Roll can produce.
func (e Expression) Max() int {
	total := 0
	for _, term := range e.terms {
		switch term.Kind {
		case TermModifier:
			total += term.Value
		case TermDice:
			total += term.Spec.Count * term.Spec.Sides
		}
	}
	return total
}

// String returns the expression with whitespace removed.
func (e Expression) String() string {
	return e.raw
}

// MarshalText implements encoding.TextMarshaler.
func (e Expression) MarshalText() ([]byte, error) {
	return []byte(e.raw), nil
}
