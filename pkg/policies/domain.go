package policies

import (
	"sort"
)

// DomainTag identifies a risk domain for compile-time safety.
// Tags are open-ended but every record must draw them from a shared
// Registry so cross-lab comparison is well-defined.
type DomainTag string

// String returns the string representation of a DomainTag.
func (dt DomainTag) String() string {
	return string(dt)
}

// Domain tag constants for the shared registry.
const (
	DomainCBRN         DomainTag = "cbrn"
	DomainCyber        DomainTag = "cyber"
	DomainAutonomy     DomainTag = "autonomy"
	DomainPersuasion   DomainTag = "persuasion"
	DomainAIRD         DomainTag = "ai_rd"
	DomainDeception    DomainTag = "deception"
	DomainBiosecurity  DomainTag = "biosecurity"
	DomainChemical     DomainTag = "chemical"
	DomainRadiological DomainTag = "radiological"
	DomainNuclear      DomainTag = "nuclear"
	DomainOther        DomainTag = "other"
)

// HighConsequence reports whether the domain is treated as
// highest-consequence by policy convention. Threshold and definition
// divergence on these domains escalates to High severity.
func (dt DomainTag) HighConsequence() bool {
	return dt == DomainCBRN || dt == DomainAutonomy
}

// Registry is the shared set of recognized domain tags. Records that
// reference a tag outside the registry fail schema validation.
type Registry struct {
	tags map[DomainTag]struct{}
}

// DefaultRegistry returns a registry with the standard risk domains.
func DefaultRegistry() *Registry {
	return NewRegistry(
		DomainCBRN,
		DomainCyber,
		DomainAutonomy,
		DomainPersuasion,
		DomainAIRD,
		DomainDeception,
		DomainBiosecurity,
		DomainChemical,
		DomainRadiological,
		DomainNuclear,
		DomainOther,
	)
}

// NewRegistry creates a registry containing the given tags.
func NewRegistry(tags ...DomainTag) *Registry {
	r := &Registry{tags: make(map[DomainTag]struct{}, len(tags))}
	for _, tag := range tags {
		r.tags[tag] = struct{}{}
	}
	return r
}

// Contains reports whether the tag is part of the registry.
func (r *Registry) Contains(tag DomainTag) bool {
	_, ok := r.tags[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []DomainTag {
	tags := make([]DomainTag, 0, len(r.tags))
	for tag := range r.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Coverage represents how thoroughly a lab's framework addresses a
// risk domain. The spellings are part of the interchange contract.
type Coverage string

// String returns the string representation of a Coverage.
func (c Coverage) String() string {
	return string(c)
}

// Coverage statuses.
const (
	CoverageFull    Coverage = "Full"
	CoveragePartial Coverage = "Partial"
	CoverageNone    Coverage = "None"
)

// Valid reports whether the coverage value is one of the known statuses.
func (c Coverage) Valid() bool {
	switch c {
	case CoverageFull, CoveragePartial, CoverageNone:
		return true
	}
	return false
}
