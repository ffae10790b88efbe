// Package terminology aligns each lab's native risk levels onto the
// canonical 5-point scale. Alignment is driven by a configurable keyword
// table; ambiguous alignments are flagged for the gap detector rather
// than silently resolved.
package terminology

import (
	"github.com/policyscale/rspmap/pkg/policies"
)

// Entry is one row of the terminology mapping: a lab's native level
// name at a canonical tier, or an explicit absence. Absence is a
// meaningful value (the lab defines no level at that tier) and is
// distinct from an unresolved alignment, which is flagged.
type Entry struct {
	Level      policies.CanonicalLevel `json:"canonical_level" yaml:"canonical_level"`
	LabID      string                  `json:"lab_id" yaml:"lab_id"`
	NativeName string                  `json:"native_level_name,omitempty" yaml:"native_level_name,omitempty"`
	Absent     bool                    `json:"absent" yaml:"absent"`
	Unresolved bool                    `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// Ambiguity records an alignment the keyword table could not resolve.
// Ambiguities are never fatal: the gap detector converts each one into
// a Definition gap so the analysis keeps a complete audit trail.
type Ambiguity struct {
	LabID      string `json:"lab_id" yaml:"lab_id"`
	NativeName string `json:"native_level_name" yaml:"native_level_name"`
	Reason     string `json:"reason" yaml:"reason"`
}

// entryKey indexes entries by (level, lab).
type entryKey struct {
	level policies.CanonicalLevel
	labID string
}

// nativeKey indexes assigned tiers by (lab, original native name).
type nativeKey struct {
	labID string
	name  string
}

// Mapping is the complete cross-lab terminology relation. It contains
// exactly one Entry per (canonical level, lab) pair — never a missing
// row — ordered Minimal→Critical, labs in the stable caller-supplied
// order. Built once per analysis run and read-only afterward.
type Mapping struct {
	labs        []string
	entries     []Entry
	ambiguities []Ambiguity
	byKey       map[entryKey]Entry
	tierByLevel map[nativeKey]policies.CanonicalLevel
}

// Labs returns the lab ordering the mapping was built with.
func (m *Mapping) Labs() []string {
	return m.labs
}

// Entries returns all rows, canonical levels ascending, labs in order.
func (m *Mapping) Entries() []Entry {
	return m.entries
}

// Entry returns the row for a (level, lab) pair.
func (m *Mapping) Entry(level policies.CanonicalLevel, labID string) (Entry, bool) {
	entry, ok := m.byKey[entryKey{level: level, labID: labID}]
	return entry, ok
}

// TierOf returns the canonical tier an original native level name was
// assigned to. Merged levels report the tier of their merged entry.
func (m *Mapping) TierOf(labID, nativeName string) (policies.CanonicalLevel, bool) {
	tier, ok := m.tierByLevel[nativeKey{labID: labID, name: nativeName}]
	return tier, ok
}

// Ambiguities returns the alignments the keyword table could not
// resolve, in lab order.
func (m *Mapping) Ambiguities() []Ambiguity {
	return m.ambiguities
}

// NamesAt returns the distinct native names present at a canonical
// tier, in lab order. Absent entries contribute nothing.
func (m *Mapping) NamesAt(level policies.CanonicalLevel) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, labID := range m.labs {
		entry, ok := m.Entry(level, labID)
		if !ok || entry.Absent || entry.NativeName == "" {
			continue
		}
		if _, dup := seen[entry.NativeName]; dup {
			continue
		}
		seen[entry.NativeName] = struct{}{}
		names = append(names, entry.NativeName)
	}
	return names
}
