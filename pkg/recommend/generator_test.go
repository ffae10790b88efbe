package recommend

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscale/rspmap/pkg/gaps"
	"github.com/policyscale/rspmap/pkg/policies"
)

func sampleGaps() []gaps.Gap {
	return []gaps.Gap{
		{
			ID:             "TERM-0a1b2c3d",
			Type:           gaps.TypeTerminology,
			Severity:       gaps.SeverityHigh,
			AffectedLabIDs: []string{"alpha", "beta", "gamma"},
			Key:            "risk-level-naming",
			Description:    "Labs use 3 distinct naming schemes for equivalent risk levels.",
		},
		{
			ID:             "THR-11111111",
			Type:           gaps.TypeThreshold,
			Severity:       gaps.SeverityMedium,
			AffectedLabIDs: []string{"alpha", "beta"},
			Domain:         policies.DomainCyber,
			Key:            "cyber",
			Description:    "Labs first address cyber at tiers ranging from Significant to Critical.",
		},
		{
			ID:             "THR-22222222",
			Type:           gaps.TypeThreshold,
			Severity:       gaps.SeverityHigh,
			AffectedLabIDs: []string{"alpha", "gamma"},
			Domain:         policies.DomainCBRN,
			Key:            "cbrn",
			Description:    "Labs first address cbrn at tiers ranging from Emerging to Critical.",
		},
		{
			ID:             "DEF-33333333",
			Type:           gaps.TypeDefinition,
			Severity:       gaps.SeverityMedium,
			AffectedLabIDs: []string{"beta"},
			Key:            "alignment/beta/Red",
			Description:    "Level \"Red\" of lab beta could not be aligned to the canonical scale.",
		},
		{
			ID:             "DEF-44444444",
			Type:           gaps.TypeDefinition,
			Severity:       gaps.SeverityMedium,
			AffectedLabIDs: []string{"alpha", "beta"},
			Domain:         policies.DomainCBRN,
			Key:            "cbrn@Significant",
			Description:    "Labs define cbrn safeguards at the Significant tier using 2 divergent vocabularies.",
		},
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	assert.Empty(t, NewGenerator().Generate(nil))
	assert.Empty(t, NewGenerator().Generate([]gaps.Gap{}))
}

func TestGenerateReferentialIntegrity(t *testing.T) {
	input := sampleGaps()
	known := make(map[string]struct{}, len(input))
	for _, gap := range input {
		known[gap.ID] = struct{}{}
	}

	recs := NewGenerator().Generate(input)
	require.NotEmpty(t, recs)

	for _, rec := range recs {
		require.NotEmpty(t, rec.DerivedFromGapIDs)
		for _, gapID := range rec.DerivedFromGapIDs {
			_, ok := known[gapID]
			assert.True(t, ok, "recommendation %s references unknown gap %s", rec.ID, gapID)
		}
		assert.Regexp(t, `^HARM-[0-9a-f]{8}$`, rec.ID)
	}
}

func TestGenerateGrouping(t *testing.T) {
	recs := NewGenerator().Generate(sampleGaps())

	// One terminology group, two threshold groups (cbrn, cyber), two
	// definition groups (general, cbrn).
	require.Len(t, recs, 5)

	counts := make(map[Category]int)
	for _, rec := range recs {
		counts[rec.Category]++
	}
	assert.Equal(t, 1, counts[CategoryTerminology])
	assert.Equal(t, 2, counts[CategoryThreshold])
	assert.Equal(t, 2, counts[CategoryProcess])

	// Domain-scoped threshold groups stay separate.
	var thresholdSets [][]string
	for _, rec := range recs {
		if rec.Category == CategoryThreshold {
			thresholdSets = append(thresholdSets, rec.DerivedFromGapIDs)
		}
	}
	require.Len(t, thresholdSets, 2)
	assert.NotEqual(t, thresholdSets[0], thresholdSets[1])
}

func TestGenerateNoDuplicateGapSets(t *testing.T) {
	recs := NewGenerator().Generate(sampleGaps())

	seen := make(map[string]bool)
	for _, rec := range recs {
		key := ""
		for _, gapID := range rec.DerivedFromGapIDs {
			key += gapID + ","
		}
		assert.False(t, seen[key], "duplicate derived-gap set %q", key)
		seen[key] = true
	}
}

func TestGeneratePriority(t *testing.T) {
	tests := []struct {
		name      string
		gap       gaps.Gap
		opts      []Option
		wantBand  Priority
	}{
		{
			name: "high severity gap escalates",
			gap: gaps.Gap{
				ID: "THR-aaaa0001", Type: gaps.TypeThreshold, Severity: gaps.SeverityHigh,
				AffectedLabIDs: []string{"alpha"}, Domain: policies.DomainCBRN, Key: "cbrn",
			},
			opts:     []Option{WithKnownLabs([]string{"alpha", "beta"})},
			wantBand: PriorityHigh,
		},
		{
			name: "full population escalates",
			gap: gaps.Gap{
				ID: "COV-aaaa0002", Type: gaps.TypeCoverage, Severity: gaps.SeverityMedium,
				AffectedLabIDs: []string{"alpha", "beta"}, Domain: policies.DomainCyber, Key: "cyber",
			},
			opts:     []Option{WithKnownLabs([]string{"alpha", "beta"})},
			wantBand: PriorityHigh,
		},
		{
			name: "partial population medium gap stays medium",
			gap: gaps.Gap{
				ID: "COV-aaaa0003", Type: gaps.TypeCoverage, Severity: gaps.SeverityMedium,
				AffectedLabIDs: []string{"alpha"}, Domain: policies.DomainCyber, Key: "cyber",
			},
			opts:     []Option{WithKnownLabs([]string{"alpha", "beta"})},
			wantBand: PriorityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := NewGenerator(tt.opts...).Generate([]gaps.Gap{tt.gap})
			require.Len(t, recs, 1)
			assert.Equal(t, tt.wantBand, recs[0].Priority)
		})
	}
}

func TestGenerateOrdering(t *testing.T) {
	recs := NewGenerator(WithKnownLabs([]string{"alpha", "beta", "gamma", "delta"})).
		Generate(sampleGaps())
	require.NotEmpty(t, recs)

	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if prev.Priority != cur.Priority {
			assert.Equal(t, PriorityHigh, prev.Priority)
			assert.Equal(t, PriorityMedium, cur.Priority)
			continue
		}
		assert.LessOrEqual(t, prev.Category.precedence(), cur.Category.precedence())
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first := NewGenerator().Generate(sampleGaps())
	second := NewGenerator().Generate(sampleGaps())
	assert.Empty(t, cmp.Diff(first, second))
}

func TestGenerateDomainSubstitution(t *testing.T) {
	recs := NewGenerator().Generate([]gaps.Gap{{
		ID: "THR-bbbb0001", Type: gaps.TypeThreshold, Severity: gaps.SeverityMedium,
		AffectedLabIDs: []string{"alpha", "beta"}, Domain: policies.DomainAIRD, Key: "ai_rd",
	}})
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Title, "ai_rd")
	assert.NotContains(t, recs[0].Title, "{domain}")
	assert.NotContains(t, recs[0].ProposedStandard, "{domain}")
}
