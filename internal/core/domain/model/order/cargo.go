package order

import (
	"slices"
	"strings"

	"freightdispatch/internal/pkg/errs"
)

// Cargo describes what is being moved, as far as lane matching cares.
type Cargo struct {
	cargoType   string
	constraints []string
	weightKg    float64
	description string
}

// NewCargo normalizes the cargo type and constraints to trimmed lower case
// and drops duplicate constraints.
func NewCargo(cargoType string, constraints []string, weightKg float64, description string) (Cargo, error) {
	if weightKg < 0 {
		return Cargo{}, errs.NewValueIsOutOfRangeError("weightKg", weightKg, 0, "unbounded")
	}

	normalized := make([]string, 0, len(constraints))
	for _, c := range constraints {
		c = NormalizeTag(c)
		if c == "" || slices.Contains(normalized, c) {
			continue
		}
		normalized = append(normalized, c)
	}
	slices.Sort(normalized)

	return Cargo{
		cargoType:   NormalizeTag(cargoType),
		constraints: normalized,
		weightKg:    weightKg,
		description: strings.TrimSpace(description),
	}, nil
}

func (c Cargo) Type() string        { return c.cargoType }
func (c Cargo) WeightKg() float64   { return c.weightKg }
func (c Cargo) Description() string { return c.description }

// Constraints returns a copy of the normalized constraint list.
func (c Cargo) Constraints() []string {
	return slices.Clone(c.constraints)
}

// HasConstraint reports whether the cargo declares the given constraint.
func (c Cargo) HasConstraint(constraint string) bool {
	return slices.Contains(c.constraints, NormalizeTag(constraint))
}

// NormalizeTag is the comparison form of cargo types and constraints.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
