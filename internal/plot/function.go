// Package plot builds quest structure backward from a victory condition.
// Nodes are instantiated narrative functions; edges mean "must occur
// first". Requirements and provisions are predicate bitmasks drawn from a
// shared vocabulary.
package plot

import (
	"fmt"
	"strings"

	"github.com/oisee/emergent-adventure/internal/bitset"
)

// Function is one of the eight essential narrative functions, after
// Propp's morphology.
type Function int

const (
	Lack        Function = iota // something missing or wrong, the inciting incident
	Departure                   // hero sets out
	DonorTest                   // prove worthiness
	Acquisition                 // gain item, ally, or knowledge
	Guidance                    // travel to the goal
	Struggle                    // face the villain
	Victory                     // defeat the villain
	Return                      // come home changed

	NumFunctions = 8
)

// String returns the canonical upper-case name of a Function.
func (f Function) String() string {
	switch f {
	case Lack:
		return "LACK"
	case Departure:
		return "DEPARTURE"
	case DonorTest:
		return "DONOR_TEST"
	case Acquisition:
		return "ACQUISITION"
	case Guidance:
		return "GUIDANCE"
	case Struggle:
		return "STRUGGLE"
	case Victory:
		return "VICTORY"
	case Return:
		return "RETURN"
	default:
		return "UNKNOWN"
	}
}

// ParseFunction resolves a function name, case-insensitively, with or
// without underscores.
func ParseFunction(name string) (Function, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	for f := Function(0); f < NumFunctions; f++ {
		if f.String() == normalized {
			return f, nil
		}
	}
	return 0, fmt.Errorf("plot: unknown function %q", name)
}

// Repeatable reports whether a story may contain more than one node of
// this function. Only donor tests and acquisitions repeat naturally.
func (f Function) Repeatable() bool {
	return f == DonorTest || f == Acquisition
}

// World-state predicates. The baseline vocabulary is eight bits with one
// extension bit; the Mask type leaves room to widen.
const (
	HeroExists = iota // story has a protagonist
	HasWeapon         // combat capability
	HasKey            // access item
	HasInfo           // knowledge gained
	HasAlly           // helper joined
	HasAccess         // can reach distant locations
	VillainWeak       // vulnerability known
	AtGoal            // reached the destination
	QuestComplete

	NumPredicates = 9
)

var predicateNames = [NumPredicates]string{
	"HERO_EXISTS", "HAS_WEAPON", "HAS_KEY", "HAS_INFO", "HAS_ALLY",
	"HAS_ACCESS", "VILLAIN_WEAK", "AT_GOAL", "QUEST_COMPLETE",
}

// PredicateName returns the name of predicate bit i.
func PredicateName(i int) string {
	if i < 0 || i >= NumPredicates {
		return "UNKNOWN"
	}
	return predicateNames[i]
}

// PredicateNames expands a predicate mask to its bit names in bit order.
func PredicateNames(m bitset.Mask) []string {
	var out []string
	for _, i := range m.Bits() {
		out = append(out, PredicateName(i))
	}
	return out
}

// P builds a predicate mask from bit indices.
func P(bits ...int) bitset.Mask {
	var m bitset.Mask
	for _, b := range bits {
		m = m.Set(b)
	}
	return m
}
