// Package recommend turns a detected gap set into a prioritized,
// deduplicated sequence of harmonization recommendations. Generation is
// template-driven: gaps are grouped, each group instantiates the fixed
// template for its gap type, and recommendation identifiers derive from
// the contributing gap identifiers so re-generation reproduces them.
package recommend

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Category classifies a recommendation. The spellings are part of the
// interchange contract.
type Category string

// String returns the string representation of a Category.
func (c Category) String() string {
	return string(c)
}

// Recommendation categories, one per gap type.
const (
	CategoryTerminology Category = "Terminology"
	CategoryThreshold   Category = "Threshold"
	CategorySafeguard   Category = "Safeguard"
	CategoryProcess     Category = "Process"
)

// precedence returns the fixed category ordering used within a
// priority band.
func (c Category) precedence() int {
	switch c {
	case CategoryTerminology:
		return 0
	case CategoryThreshold:
		return 1
	case CategorySafeguard:
		return 2
	case CategoryProcess:
		return 3
	default:
		return 4
	}
}

// Priority ranks a recommendation. Only two bands exist: everything a
// regulator should act on first is High, the rest Medium.
type Priority string

// String returns the string representation of a Priority.
func (p Priority) String() string {
	return string(p)
}

// Priority bands.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
)

// rank returns the numeric ordering of a priority, High highest.
func (p Priority) rank() int {
	if p == PriorityHigh {
		return 2
	}
	return 1
}

// Recommendation is one proposed harmonization standard, derived from a
// group of gaps. The DerivedFromGapIDs set is never empty and every ID
// in it refers to a gap in the input set.
type Recommendation struct {
	ID                  string   `json:"recommendation_id" yaml:"recommendation_id"`
	Category            Category `json:"category" yaml:"category"`
	Priority            Priority `json:"priority" yaml:"priority"`
	Title               string   `json:"title" yaml:"title"`
	CurrentStateSummary string   `json:"current_state_summary" yaml:"current_state_summary"`
	ProposedStandard    string   `json:"proposed_standard" yaml:"proposed_standard"`
	Rationale           string   `json:"rationale" yaml:"rationale"`
	ApplicableAudiences []string `json:"applicable_audiences" yaml:"applicable_audiences"`
	DerivedFromGapIDs   []string `json:"derived_from_gap_ids" yaml:"derived_from_gap_ids"`
}

// recommendationID derives the stable identifier from the sorted gap
// IDs the recommendation addresses.
func recommendationID(sortedGapIDs []string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(sortedGapIDs, ",")))
	return fmt.Sprintf("HARM-%08x", h.Sum64()&0xffffffff)
}
