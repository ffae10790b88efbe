// Package gaps runs a fixed battery of comparison rules over validated
// policy records and their terminology mapping, producing typed,
// severity-scored gap records. Detection is a deterministic pure
// function: the same input snapshot always yields the same gap set,
// including gap identifiers.
package gaps

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/policyscale/rspmap/pkg/policies"
)

// Type classifies a detected gap. The spellings are part of the
// interchange contract.
type Type string

// String returns the string representation of a Type.
func (t Type) String() string {
	return string(t)
}

// Gap types. The set is closed: each type has exactly one detection
// rule, so adding a type is a compile-time extension.
const (
	TypeThreshold   Type = "Threshold"   // Labs trigger the same domain at different tiers
	TypeCoverage    Type = "Coverage"    // A domain some labs cover fully and others not at all
	TypeDefinition  Type = "Definition"  // Same concept, diverging definitions or unresolved alignment
	TypeTerminology Type = "Terminology" // Inconsistent naming schemes for equivalent levels
)

// prefix returns the gap ID prefix for a type.
func (t Type) prefix() string {
	switch t {
	case TypeThreshold:
		return "THR"
	case TypeCoverage:
		return "COV"
	case TypeDefinition:
		return "DEF"
	case TypeTerminology:
		return "TERM"
	default:
		return "GAP"
	}
}

// order returns the fixed precedence used for stable output ordering.
func (t Type) order() int {
	switch t {
	case TypeTerminology:
		return 0
	case TypeThreshold:
		return 1
	case TypeCoverage:
		return 2
	case TypeDefinition:
		return 3
	default:
		return 4
	}
}

// Severity scores a gap. The spellings are part of the interchange
// contract.
type Severity string

// String returns the string representation of a Severity.
func (s Severity) String() string {
	return string(s)
}

// Severity levels.
const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Rank returns the numeric ordering of a severity, Low lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Gap is one detected inconsistency between labs' policies. Gaps are
// immutable once produced and carry a stable identifier derived from
// their content, never from randomness.
type Gap struct {
	ID                 string             `json:"gap_id" yaml:"gap_id"`
	Type               Type               `json:"type" yaml:"type"`
	Severity           Severity           `json:"severity" yaml:"severity"`
	AffectedLabIDs     []string           `json:"affected_lab_ids" yaml:"affected_lab_ids"`
	Domain             policies.DomainTag `json:"domain,omitempty" yaml:"domain,omitempty"`
	Key                string             `json:"key" yaml:"key"`
	Description        string             `json:"description" yaml:"description"`
	RecommendationHint string             `json:"recommendation_hint,omitempty" yaml:"recommendation_hint,omitempty"`
}

// newGap assembles a gap with its derived identifier. affected must
// already be sorted; the ID hashes type, labs, and key so re-detection
// on the same input reproduces it exactly.
func newGap(t Type, severity Severity, affected []string, domain policies.DomainTag, key, description, hint string) Gap {
	return Gap{
		ID:                 gapID(t, affected, key),
		Type:               t,
		Severity:           severity,
		AffectedLabIDs:     affected,
		Domain:             domain,
		Key:                key,
		Description:        description,
		RecommendationHint: hint,
	}
}

// gapID derives the stable identifier: the type prefix plus an FNV-1a
// digest of (type, sorted affected labs, key).
func gapID(t Type, sortedLabs []string, key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(t)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.Join(sortedLabs, ",")))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%s-%08x", t.prefix(), h.Sum64()&0xffffffff)
}
