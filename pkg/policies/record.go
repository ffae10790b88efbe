package policies

import (
	"sort"
)

// PolicyRecord is the normalized extraction of one lab's published
// risk-governance policy. Records are supplied by the upstream
// extraction collaborator and validated here before any analysis.
type PolicyRecord struct {
	LabID            string                `json:"lab_id" yaml:"lab_id"`                       // Unique lab identifier
	FrameworkName    string                `json:"framework_name" yaml:"framework_name"`       // Official framework/document name
	FrameworkVersion string                `json:"framework_version" yaml:"framework_version"` // Published version
	Levels           []LevelDefinition     `json:"levels" yaml:"levels"`                       // Ordered native risk levels (ordinal strictly increasing)
	Coverage         map[DomainTag]Coverage `json:"coverage" yaml:"coverage"`                  // Per-domain coverage status
}

// LevelDefinition is one native risk level within a lab's framework.
type LevelDefinition struct {
	NativeLevelName       string      `json:"native_level_name" yaml:"native_level_name"`           // Lab's own name for the level (e.g. "ASL-3")
	OrdinalPosition       int         `json:"ordinal_position" yaml:"ordinal_position"`             // Position in the lab's ordering, ascending
	TriggeringCapabilities []DomainTag `json:"triggering_capabilities" yaml:"triggering_capabilities"` // Domains whose capabilities trigger this level
	SafeguardDescription  string      `json:"safeguard_description" yaml:"safeguard_description"`   // Free-text safeguard requirements
}

// Triggers reports whether the level is triggered by the given domain.
func (ld LevelDefinition) Triggers(tag DomainTag) bool {
	for _, t := range ld.TriggeringCapabilities {
		if t == tag {
			return true
		}
	}
	return false
}

// TriggerSet returns the level's triggering domains as a sorted,
// deduplicated slice. Used when comparing adjacent levels for merging.
func (ld LevelDefinition) TriggerSet() []DomainTag {
	set := make(map[DomainTag]struct{}, len(ld.TriggeringCapabilities))
	for _, t := range ld.TriggeringCapabilities {
		set[t] = struct{}{}
	}
	tags := make([]DomainTag, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// CoverageFor returns the lab's coverage status for a domain. Domains
// missing from the coverage map report CoverageNone.
func (pr PolicyRecord) CoverageFor(tag DomainTag) Coverage {
	if c, ok := pr.Coverage[tag]; ok {
		return c
	}
	return CoverageNone
}

// Domains returns the sorted set of domains the record mentions, in
// either its coverage map or its level triggers.
func (pr PolicyRecord) Domains() []DomainTag {
	set := make(map[DomainTag]struct{})
	for tag := range pr.Coverage {
		set[tag] = struct{}{}
	}
	for _, level := range pr.Levels {
		for _, tag := range level.TriggeringCapabilities {
			set[tag] = struct{}{}
		}
	}
	tags := make([]DomainTag, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
