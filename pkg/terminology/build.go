package terminology

import (
	"strings"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
)

// Option configures mapping construction.
type Option func(*builder)

// WithLabOrder overrides the stable lab ordering (default: record order).
func WithLabOrder(labs []string) Option {
	return func(b *builder) {
		b.labOrder = labs
	}
}

// WithAlignmentTable overrides the keyword alignment table.
func WithAlignmentTable(table *AlignmentTable) Option {
	return func(b *builder) {
		b.table = table
	}
}

type builder struct {
	labOrder []string
	table    *AlignmentTable
}

// BuildMapping aligns every lab's native levels onto the canonical scale
// using best-fit ordinal alignment:
//
//   - exactly 5 levels map tier-for-tier;
//   - fewer than 5 anchor the topmost level at the tier named by the
//     keyword table, filling lower tiers consecutively and marking the
//     rest absent; an unresolvable anchor is flagged as an Ambiguity and
//     falls back to the positional rule (Critical when the lab has at
//     least 4 levels, else Severe);
//   - more than 5 merge adjacent levels with identical trigger sets
//     before aligning; any remainder past five is collapsed into Minimal
//     and flagged.
//
// The result contains exactly one entry per (tier, lab) pair.
func BuildMapping(snap *policies.Snapshot, opts ...Option) (*Mapping, error) {
	if !snap.Validated() {
		return nil, errors.NewPrecedingValidationError("terminology mapper",
			"records must pass schema validation before mapping")
	}

	b := &builder{
		labOrder: snap.LabIDs(),
		table:    DefaultAlignmentTable(),
	}
	for _, opt := range opts {
		opt(b)
	}

	mapping := &Mapping{
		labs:        b.labOrder,
		byKey:       make(map[entryKey]Entry),
		tierByLevel: make(map[nativeKey]policies.CanonicalLevel),
	}

	aligned := make(map[string]map[policies.CanonicalLevel]alignedLevel, len(b.labOrder))
	for _, labID := range b.labOrder {
		record, ok := snap.Record(labID)
		if !ok {
			return nil, errors.NewValidationError("lab_order", labID,
				"lab order references a lab with no policy record")
		}
		labLevels, ambiguities := b.alignRecord(record)
		aligned[labID] = labLevels
		mapping.ambiguities = append(mapping.ambiguities, ambiguities...)

		for tier, al := range labLevels {
			for _, name := range al.constituents {
				mapping.tierByLevel[nativeKey{labID: labID, name: name}] = tier
			}
		}
	}

	// Emit rows Minimal→Critical, labs in stable order; absent tiers get
	// an explicit row so the relation is always complete.
	for _, level := range policies.CanonicalLevels() {
		for _, labID := range b.labOrder {
			entry := Entry{Level: level, LabID: labID, Absent: true}
			if al, ok := aligned[labID][level]; ok {
				entry.Absent = false
				entry.NativeName = al.name
				entry.Unresolved = al.unresolved
			}
			mapping.entries = append(mapping.entries, entry)
			mapping.byKey[entryKey{level: level, labID: labID}] = entry
		}
	}

	return mapping, nil
}

// alignedLevel is a native level (possibly merged) placed at a tier.
type alignedLevel struct {
	name         string   // display name, merged names joined with " / "
	constituents []string // original native names folded into this entry
	unresolved   bool
}

// mergedLevel is an intermediate unit of alignment.
type mergedLevel struct {
	name         string
	constituents []string
	description  string
}

// alignRecord places one lab's levels onto the canonical scale.
func (b *builder) alignRecord(record policies.PolicyRecord) (map[policies.CanonicalLevel]alignedLevel, []Ambiguity) {
	var ambiguities []Ambiguity

	merged := mergeAdjacent(record.Levels)
	n := len(merged)
	out := make(map[policies.CanonicalLevel]alignedLevel, n)

	switch {
	case n == 5:
		for i, ml := range merged {
			out[policies.CanonicalLevel(i+1)] = alignedLevel{name: ml.name, constituents: ml.constituents}
		}

	case n < 5:
		top := merged[n-1]
		anchor, matched, conflict := b.table.Resolve(top.description)
		unresolved := false
		if !matched || conflict {
			reason := "no alignment keyword matched in safeguard description"
			if conflict {
				reason = "conflicting alignment keywords in safeguard description"
			}
			ambiguities = append(ambiguities, Ambiguity{
				LabID:      record.LabID,
				NativeName: top.name,
				Reason:     reason,
			})
			// Positional fallback; the entries stay flagged so the gap
			// detector records the ambiguity.
			if n >= 4 {
				anchor = policies.LevelCritical
			} else {
				anchor = policies.LevelSevere
			}
			unresolved = true
		}
		// Raise the anchor when the span would underflow below Minimal.
		if int(anchor) < n {
			anchor = policies.CanonicalLevel(n)
		}
		for i, ml := range merged {
			tier := anchor - policies.CanonicalLevel(n-1-i)
			out[tier] = alignedLevel{name: ml.name, constituents: ml.constituents, unresolved: unresolved}
		}

	default: // n > 5 even after merging
		ambiguities = append(ambiguities, Ambiguity{
			LabID:      record.LabID,
			NativeName: merged[n-6].name,
			Reason:     "more than five levels remain after merging identical trigger sets",
		})
		// Top five fill the scale downward from Critical; everything
		// below collapses into the Minimal entry, flagged.
		for i := 0; i < 5; i++ {
			ml := merged[n-1-i]
			tier := policies.LevelCritical - policies.CanonicalLevel(i)
			out[tier] = alignedLevel{name: ml.name, constituents: ml.constituents}
		}
		overflow := merged[:n-5]
		base := out[policies.LevelMinimal]
		names := make([]string, 0, len(overflow)+1)
		constituents := make([]string, 0, len(overflow)+len(base.constituents))
		for _, ml := range overflow {
			names = append(names, ml.name)
			constituents = append(constituents, ml.constituents...)
		}
		base.name = strings.Join(append(names, base.name), " / ")
		base.constituents = append(constituents, base.constituents...)
		base.unresolved = true
		out[policies.LevelMinimal] = base
	}

	return out, ambiguities
}

// mergeAdjacent folds neighboring levels with identical trigger sets
// into one unit. Merging only applies when a lab defines more than five
// levels; otherwise levels pass through unchanged.
func mergeAdjacent(levels []policies.LevelDefinition) []mergedLevel {
	out := make([]mergedLevel, 0, len(levels))
	for _, level := range levels {
		out = append(out, mergedLevel{
			name:         level.NativeLevelName,
			constituents: []string{level.NativeLevelName},
			description:  level.SafeguardDescription,
		})
	}
	if len(levels) <= 5 {
		return out
	}

	merged := []mergedLevel{out[0]}
	keys := make([]string, len(levels))
	for i, level := range levels {
		keys[i] = triggerKey(level)
	}
	for i := 1; i < len(out); i++ {
		last := &merged[len(merged)-1]
		if keys[i] == keys[i-1] {
			last.name += " / " + out[i].name
			last.constituents = append(last.constituents, out[i].constituents...)
			last.description += " " + out[i].description
			continue
		}
		merged = append(merged, out[i])
	}
	return merged
}

// triggerKey canonicalizes a level's trigger set for comparison.
func triggerKey(level policies.LevelDefinition) string {
	tags := level.TriggerSet()
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = tag.String()
	}
	return strings.Join(parts, ",")
}
