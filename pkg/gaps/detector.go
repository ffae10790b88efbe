package gaps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
	"github.com/policyscale/rspmap/pkg/terminology"
)

// Option configures a Detector.
type Option func(*Detector)

// WithDivergenceVocabulary overrides the keyword-divergence vocabulary
// used by the Definition rule.
func WithDivergenceVocabulary(vocab *DivergenceVocabulary) Option {
	return func(d *Detector) {
		d.vocabulary = vocab
	}
}

// Detector runs the fixed rule battery. Each rule is independent, all
// rules always run, and their results are unioned.
type Detector struct {
	vocabulary *DivergenceVocabulary
}

// NewDetector creates a detector with the default configuration.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		vocabulary: DefaultDivergenceVocabulary(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// rule is one detection function in the closed battery.
type rule func(*Detector, *policies.Snapshot, *terminology.Mapping) []Gap

// battery is the closed set of rules, one per gap type. Adding a gap
// type means adding a rule here, checked at compile time.
var battery = []rule{
	(*Detector).terminologyRule,
	(*Detector).thresholdRule,
	(*Detector).coverageRule,
	(*Detector).definitionRule,
}

// Detect runs every rule over the snapshot and mapping and returns the
// union of their gaps in a stable order. It is a pure function: no I/O,
// no shared state, and identical inputs produce identical output
// including gap IDs. Calling it without a validated snapshot is a
// caller contract violation and fails with PrecedingValidationError.
func (d *Detector) Detect(snap *policies.Snapshot, mapping *terminology.Mapping) ([]Gap, error) {
	if !snap.Validated() {
		return nil, errors.NewPrecedingValidationError("gap detector",
			"records must pass schema validation before detection")
	}
	if mapping == nil {
		return nil, errors.NewPrecedingValidationError("gap detector",
			"terminology mapping must be built before detection")
	}

	var gaps []Gap
	for _, r := range battery {
		gaps = append(gaps, r(d, snap, mapping)...)
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Type.order() != gaps[j].Type.order() {
			return gaps[i].Type.order() < gaps[j].Type.order()
		}
		if gaps[i].Key != gaps[j].Key {
			return gaps[i].Key < gaps[j].Key
		}
		return gaps[i].ID < gaps[j].ID
	})
	return gaps, nil
}

// terminologyRule emits a single gap when labs use distinct naming
// schemes for the same canonical tier.
func (d *Detector) terminologyRule(snap *policies.Snapshot, mapping *terminology.Mapping) []Gap {
	maxDistinct := 0
	for _, level := range policies.CanonicalLevels() {
		if n := len(mapping.NamesAt(level)); n > maxDistinct {
			maxDistinct = n
		}
	}
	if maxDistinct < 2 {
		return nil
	}

	severity := SeverityMedium
	if maxDistinct >= 3 {
		severity = SeverityHigh
	}

	affected := sortedLabs(snap.LabIDs())
	description := fmt.Sprintf(
		"Labs use %d distinct naming schemes for equivalent risk levels, making cross-framework comparison difficult.",
		maxDistinct)
	hint := "Adopt a unified 5-tier naming scheme: Minimal, Emerging, Significant, Severe, Critical."

	return []Gap{newGap(TypeTerminology, severity, affected, "", "risk-level-naming", description, hint)}
}

// thresholdRule compares, per domain, the canonical tier at which each
// lab's levels first trigger that domain.
func (d *Detector) thresholdRule(snap *policies.Snapshot, mapping *terminology.Mapping) []Gap {
	var gaps []Gap
	for _, domain := range snap.Domains() {
		type labTier struct {
			labID string
			tier  policies.CanonicalLevel
		}
		var tiers []labTier

		for _, labID := range snap.LabIDs() {
			record, _ := snap.Record(labID)
			tier, ok := firstTriggerTier(record, domain, mapping)
			if !ok {
				continue
			}
			tiers = append(tiers, labTier{labID: labID, tier: tier})
		}
		if len(tiers) < 2 {
			continue
		}

		lowest, highest := tiers[0].tier, tiers[0].tier
		affected := make([]string, 0, len(tiers))
		for _, lt := range tiers {
			if lt.tier < lowest {
				lowest = lt.tier
			}
			if lt.tier > highest {
				highest = lt.tier
			}
			affected = append(affected, lt.labID)
		}
		spread := int(highest - lowest)
		if spread == 0 {
			continue
		}

		severity := SeverityLow
		if spread >= 2 {
			severity = SeverityMedium
			if domain.HighConsequence() {
				severity = SeverityHigh
			}
		}

		affected = sortedLabs(affected)
		description := fmt.Sprintf(
			"Labs first address %s at canonical tiers ranging from %s to %s, a spread of %d tiers.",
			domain, lowest, highest, spread)
		hint := fmt.Sprintf("Define a standardized %s capability threshold with measurable criteria.", domain)

		gaps = append(gaps, newGap(TypeThreshold, severity, affected, domain, domain.String(), description, hint))
	}
	return gaps
}

// firstTriggerTier finds the canonical tier of the lowest native level
// whose trigger set contains the domain.
func firstTriggerTier(record policies.PolicyRecord, domain policies.DomainTag, mapping *terminology.Mapping) (policies.CanonicalLevel, bool) {
	for _, level := range record.Levels {
		if !level.Triggers(domain) {
			continue
		}
		if tier, ok := mapping.TierOf(record.LabID, level.NativeLevelName); ok {
			return tier, true
		}
	}
	return 0, false
}

// coverageRule flags domains that at least one lab covers fully while
// at least one other does not cover at all.
func (d *Detector) coverageRule(snap *policies.Snapshot, mapping *terminology.Mapping) []Gap {
	var gaps []Gap
	for _, domain := range snap.Domains() {
		var full, none []string
		for _, labID := range snap.LabIDs() {
			record, _ := snap.Record(labID)
			switch record.CoverageFor(domain) {
			case policies.CoverageFull:
				full = append(full, labID)
			case policies.CoverageNone:
				none = append(none, labID)
			}
		}
		if len(full) == 0 || len(none) == 0 {
			continue
		}

		severity := SeverityMedium
		if len(none) >= 3 {
			severity = SeverityHigh
		}

		affected := sortedLabs(append(append([]string{}, full...), none...))
		description := fmt.Sprintf(
			"%d lab(s) report full %s coverage while %d report none (%s).",
			len(full), domain, len(none), strings.Join(none, ", "))
		hint := fmt.Sprintf("Ensure every framework explicitly addresses the %s risk domain.", domain)

		gaps = append(gaps, newGap(TypeCoverage, severity, affected, domain, domain.String(), description, hint))
	}
	return gaps
}

// definitionRule converts unresolved terminology alignments into gaps
// and runs the configured keyword-divergence check over safeguard
// descriptions at the same domain and tier.
func (d *Detector) definitionRule(snap *policies.Snapshot, mapping *terminology.Mapping) []Gap {
	var gaps []Gap

	// Unresolved alignments surfaced by the mapper are never dropped;
	// each one becomes a first-class gap.
	for _, amb := range mapping.Ambiguities() {
		affected := []string{amb.LabID}
		key := "alignment/" + amb.LabID + "/" + amb.NativeName
		description := fmt.Sprintf(
			"Level %q of lab %s could not be aligned to the canonical scale: %s.",
			amb.NativeName, amb.LabID, amb.Reason)
		hint := "Publish an explicit mapping from this level to the unified 5-tier scale."

		gaps = append(gaps, newGap(TypeDefinition, SeverityMedium, affected, "", key, description, hint))
	}

	// Keyword divergence: same domain and tier, different configured
	// vocabulary group.
	type slot struct {
		domain policies.DomainTag
		tier   policies.CanonicalLevel
	}
	matches := make(map[slot]map[string]string) // slot -> lab -> group
	for _, labID := range snap.LabIDs() {
		record, _ := snap.Record(labID)
		for _, level := range record.Levels {
			tier, ok := mapping.TierOf(labID, level.NativeLevelName)
			if !ok {
				continue
			}
			group := d.vocabulary.Match(level.SafeguardDescription)
			if group == "" {
				continue
			}
			for _, domain := range level.TriggerSet() {
				s := slot{domain: domain, tier: tier}
				if matches[s] == nil {
					matches[s] = make(map[string]string)
				}
				if _, exists := matches[s][labID]; !exists {
					matches[s][labID] = group
				}
			}
		}
	}

	slots := make([]slot, 0, len(matches))
	for s := range matches {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].domain != slots[j].domain {
			return slots[i].domain < slots[j].domain
		}
		return slots[i].tier < slots[j].tier
	})

	for _, s := range slots {
		byLab := matches[s]
		groups := make(map[string]struct{})
		affected := make([]string, 0, len(byLab))
		for labID, group := range byLab {
			groups[group] = struct{}{}
			affected = append(affected, labID)
		}
		if len(groups) < 2 {
			continue
		}

		severity := SeverityMedium
		if s.domain.HighConsequence() {
			severity = SeverityHigh
		}

		affected = sortedLabs(affected)
		key := fmt.Sprintf("%s@%s", s.domain, s.tier)
		description := fmt.Sprintf(
			"Labs define %s safeguards at the %s tier using %d divergent vocabularies.",
			s.domain, s.tier, len(groups))
		hint := fmt.Sprintf("Agree a common baseline and vocabulary for %s at equivalent risk levels.", s.domain)

		gaps = append(gaps, newGap(TypeDefinition, severity, affected, s.domain, key, description, hint))
	}

	return gaps
}

// sortedLabs returns a sorted, deduplicated copy of lab IDs.
func sortedLabs(labs []string) []string {
	set := make(map[string]struct{}, len(labs))
	for _, lab := range labs {
		set[lab] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for lab := range set {
		out = append(out, lab)
	}
	sort.Strings(out)
	return out
}
