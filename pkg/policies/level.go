package policies

import (
	"fmt"
)

// CanonicalLevel is one tier of the fixed 5-point unified risk scale
// every lab's native levels are aligned onto. The scale is defined once
// at process start and never mutated; the spellings are part of the
// interchange contract.
type CanonicalLevel int

// The canonical scale, ordered Minimal < Emerging < Significant <
// Severe < Critical.
const (
	LevelMinimal CanonicalLevel = iota + 1
	LevelEmerging
	LevelSignificant
	LevelSevere
	LevelCritical
)

// canonicalNames is keyed by CanonicalLevel - 1.
var canonicalNames = [...]string{
	"Minimal",
	"Emerging",
	"Significant",
	"Severe",
	"Critical",
}

// canonicalDescriptions document the intent of each tier.
var canonicalDescriptions = map[CanonicalLevel]string{
	LevelMinimal:     "Systems posing no meaningful incremental risk beyond widely available tools",
	LevelEmerging:    "Early signs of dangerous capabilities, but no significant uplift beyond existing resources",
	LevelSignificant: "Substantially increases risk of catastrophic misuse, requires robust mitigations",
	LevelSevere:      "High-risk capabilities requiring maximum safeguards and potential deployment restrictions",
	LevelCritical:    "Capabilities that could contribute to existential risks, may require development pause",
}

// CanonicalLevels returns the full scale in ascending order.
func CanonicalLevels() []CanonicalLevel {
	return []CanonicalLevel{LevelMinimal, LevelEmerging, LevelSignificant, LevelSevere, LevelCritical}
}

// Valid reports whether the level is within the 5-point scale.
func (cl CanonicalLevel) Valid() bool {
	return cl >= LevelMinimal && cl <= LevelCritical
}

// String returns the contract spelling of the level.
func (cl CanonicalLevel) String() string {
	if !cl.Valid() {
		return fmt.Sprintf("CanonicalLevel(%d)", int(cl))
	}
	return canonicalNames[cl-1]
}

// Description returns the documented intent of the level.
func (cl CanonicalLevel) Description() string {
	return canonicalDescriptions[cl]
}

// ParseCanonicalLevel parses a contract spelling back into a level.
func ParseCanonicalLevel(s string) (CanonicalLevel, error) {
	for i, name := range canonicalNames {
		if name == s {
			return CanonicalLevel(i + 1), nil
		}
	}
	return 0, fmt.Errorf("unknown canonical level %q", s)
}

// MarshalJSON encodes the level using its contract spelling.
func (cl CanonicalLevel) MarshalJSON() ([]byte, error) {
	if !cl.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid canonical level %d", int(cl))
	}
	return []byte(`"` + cl.String() + `"`), nil
}

// UnmarshalJSON decodes a contract spelling into a level.
func (cl *CanonicalLevel) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("canonical level must be a JSON string, got %s", s)
	}
	parsed, err := ParseCanonicalLevel(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*cl = parsed
	return nil
}

// MarshalYAML encodes the level using its contract spelling.
func (cl CanonicalLevel) MarshalYAML() (any, error) {
	if !cl.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid canonical level %d", int(cl))
	}
	return cl.String(), nil
}

// UnmarshalYAML decodes a contract spelling into a level.
func (cl *CanonicalLevel) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseCanonicalLevel(s)
	if err != nil {
		return err
	}
	*cl = parsed
	return nil
}
