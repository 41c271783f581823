package core

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Wildcard is the textual form of an open Bound.
const Wildcard = "*"

// Bound is an integer extent that may be left open with the "*" wildcard.
// An open bound is resolved against a context-dependent fallback
// (the canvas size, or the number of slices in the loaded atlas).
type Bound struct {
	Open  bool
	Value int
}

// Fixed returns a closed bound.
func Fixed(v int) Bound { return Bound{Value: v} }

// Open returns the wildcard bound.
func Open() Bound { return Bound{Open: true} }

// Resolve returns the explicit value, or fallback when the bound is open.
func (b Bound) Resolve(fallback int) int {
	if b.Open {
		return fallback
	}
	return b.Value
}

func (b Bound) String() string {
	if b.Open {
		return Wildcard
	}
	return strconv.Itoa(b.Value)
}

// ParseBound accepts "*" or a decimal integer.
func ParseBound(s string) (Bound, error) {
	if s == Wildcard {
		return Open(), nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Bound{}, fmt.Errorf("bound %q: expected integer or %q: %w", s, Wildcard, err)
	}
	return Fixed(v), nil
}

func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bound must be a scalar", node.Line)
	}
	parsed, err := ParseBound(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = parsed
	return nil
}

func (b Bound) MarshalYAML() (interface{}, error) {
	if b.Open {
		return Wildcard, nil
	}
	return b.Value, nil
}
