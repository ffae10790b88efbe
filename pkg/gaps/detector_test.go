package gaps

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
	"github.com/policyscale/rspmap/pkg/terminology"
)

// fiveLevels builds a record with five named levels and no triggers.
func fiveLevels(labID string, names [5]string) policies.PolicyRecord {
	levels := make([]policies.LevelDefinition, len(names))
	for i, name := range names {
		levels[i] = policies.LevelDefinition{
			NativeLevelName: name,
			OrdinalPosition: i + 1,
		}
	}
	return policies.PolicyRecord{
		LabID:            labID,
		FrameworkName:    labID + " Framework",
		FrameworkVersion: "1.0",
		Levels:           levels,
	}
}

func mustAnalysisInput(t *testing.T, records []policies.PolicyRecord) (*policies.Snapshot, *terminology.Mapping) {
	t.Helper()
	snap, err := policies.Validate(records, nil)
	require.NoError(t, err)
	mapping, err := terminology.BuildMapping(snap)
	require.NoError(t, err)
	return snap, mapping
}

func gapsOfType(gaps []Gap, t Type) []Gap {
	var out []Gap
	for _, g := range gaps {
		if g.Type == t {
			out = append(out, g)
		}
	}
	return out
}

func TestDetectRequiresValidatedInput(t *testing.T) {
	detector := NewDetector()

	_, err := detector.Detect(&policies.Snapshot{}, &terminology.Mapping{})
	require.Error(t, err)
	assert.True(t, errors.IsUnvalidatedInput(err))

	snap, _ := mustAnalysisInput(t, []policies.PolicyRecord{
		fiveLevels("alpha", [5]string{"L1", "L2", "L3", "L4", "L5"}),
	})

	_, err = detector.Detect(snap, nil)
	require.Error(t, err)
	assert.True(t, errors.IsUnvalidatedInput(err))
}

func TestDetectEmptyWhenLabsAgree(t *testing.T) {
	// Two labs with identical level names, triggers, safeguards, and
	// coverage disagree on nothing.
	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}
	a := fiveLevels("alpha", names)
	b := fiveLevels("beta", names)
	for _, record := range []*policies.PolicyRecord{&a, &b} {
		record.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCyber}
		record.Levels[2].SafeguardDescription = "uplift beyond web search for attack planning"
		record.Coverage = map[policies.DomainTag]policies.Coverage{
			policies.DomainCyber: policies.CoverageFull,
		}
	}

	snap, mapping := mustAnalysisInput(t, []policies.PolicyRecord{a, b})
	gaps, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestDetectDeterministic(t *testing.T) {
	a := fiveLevels("alpha", [5]string{"ASL-1", "ASL-2", "ASL-3", "ASL-4", "ASL-5"})
	a.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}
	a.Coverage = map[policies.DomainTag]policies.Coverage{policies.DomainAutonomy: policies.CoverageFull}

	b := fiveLevels("beta", [5]string{"Low", "Medium", "High", "Severe", "Extreme"})
	b.Levels[4].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}
	b.Coverage = map[policies.DomainTag]policies.Coverage{policies.DomainAutonomy: policies.CoverageNone}

	snap, mapping := mustAnalysisInput(t, []policies.PolicyRecord{a, b})

	first, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))

	// Output is ordered by type precedence.
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Type.order(), first[i].Type.order())
	}
}

func TestTerminologyRule(t *testing.T) {
	tests := []struct {
		name         string
		names        [][5]string
		wantGap      bool
		wantSeverity Severity
	}{
		{
			name: "shared naming scheme",
			names: [][5]string{
				{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"},
				{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"},
			},
			wantGap: false,
		},
		{
			name: "two distinct schemes",
			names: [][5]string{
				{"ASL-1", "ASL-2", "ASL-3", "ASL-4", "ASL-5"},
				{"Low", "Medium", "High", "Severe", "Extreme"},
			},
			wantGap:      true,
			wantSeverity: SeverityMedium,
		},
		{
			name: "three distinct schemes",
			names: [][5]string{
				{"ASL-1", "ASL-2", "ASL-3", "ASL-4", "ASL-5"},
				{"Low", "Medium", "High", "Severe", "Extreme"},
				{"CL-0", "CL-1", "CL-2", "CL-3", "CL-4"},
			},
			wantGap:      true,
			wantSeverity: SeverityHigh,
		},
	}

	labIDs := []string{"alpha", "beta", "gamma"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []policies.PolicyRecord
			for i, names := range tt.names {
				records = append(records, fiveLevels(labIDs[i], names))
			}
			snap, mapping := mustAnalysisInput(t, records)

			gaps, err := NewDetector().Detect(snap, mapping)
			require.NoError(t, err)

			termGaps := gapsOfType(gaps, TypeTerminology)
			if !tt.wantGap {
				assert.Empty(t, termGaps)
				return
			}
			require.Len(t, termGaps, 1)
			gap := termGaps[0]
			assert.Equal(t, tt.wantSeverity, gap.Severity)
			assert.Equal(t, "risk-level-naming", gap.Key)
			assert.Equal(t, labIDs[:len(tt.names)], gap.AffectedLabIDs)
			assert.Regexp(t, `^TERM-[0-9a-f]{8}$`, gap.ID)
		})
	}
}

func TestThresholdRule(t *testing.T) {
	tests := []struct {
		name         string
		domain       policies.DomainTag
		triggerAt    [2]int // level index per lab
		wantGap      bool
		wantSeverity Severity
	}{
		{name: "same tier", domain: policies.DomainCyber, triggerAt: [2]int{2, 2}, wantGap: false},
		{name: "one tier apart", domain: policies.DomainCyber, triggerAt: [2]int{2, 3}, wantGap: true, wantSeverity: SeverityLow},
		{name: "wide spread ordinary domain", domain: policies.DomainCyber, triggerAt: [2]int{2, 4}, wantGap: true, wantSeverity: SeverityMedium},
		{name: "wide spread high-consequence domain", domain: policies.DomainCBRN, triggerAt: [2]int{2, 4}, wantGap: true, wantSeverity: SeverityHigh},
	}

	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := fiveLevels("alpha", names)
			a.Levels[tt.triggerAt[0]].TriggeringCapabilities = []policies.DomainTag{tt.domain}
			b := fiveLevels("beta", names)
			b.Levels[tt.triggerAt[1]].TriggeringCapabilities = []policies.DomainTag{tt.domain}

			snap, mapping := mustAnalysisInput(t, []policies.PolicyRecord{a, b})
			gaps, err := NewDetector().Detect(snap, mapping)
			require.NoError(t, err)

			thresholdGaps := gapsOfType(gaps, TypeThreshold)
			if !tt.wantGap {
				assert.Empty(t, thresholdGaps)
				return
			}
			require.Len(t, thresholdGaps, 1)
			gap := thresholdGaps[0]
			assert.Equal(t, tt.wantSeverity, gap.Severity)
			assert.Equal(t, tt.domain, gap.Domain)
			assert.Equal(t, tt.domain.String(), gap.Key)
			assert.Equal(t, []string{"alpha", "beta"}, gap.AffectedLabIDs)
			assert.Regexp(t, `^THR-[0-9a-f]{8}$`, gap.ID)
		})
	}
}

func TestCoverageRuleFourLabScenario(t *testing.T) {
	// Three labs report full autonomy coverage, one reports none: the
	// battery yields exactly one coverage gap for autonomy touching all
	// four labs.
	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}
	var records []policies.PolicyRecord
	for _, labID := range []string{"alpha", "beta", "gamma"} {
		record := fiveLevels(labID, names)
		record.Coverage = map[policies.DomainTag]policies.Coverage{
			policies.DomainAutonomy: policies.CoverageFull,
		}
		records = append(records, record)
	}
	records = append(records, fiveLevels("delta", names))

	snap, mapping := mustAnalysisInput(t, records)
	gaps, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)

	coverageGaps := gapsOfType(gaps, TypeCoverage)
	require.Len(t, coverageGaps, 1)
	gap := coverageGaps[0]
	assert.Equal(t, policies.DomainAutonomy, gap.Domain)
	assert.GreaterOrEqual(t, gap.Severity.Rank(), SeverityMedium.Rank())
	assert.Equal(t, []string{"alpha", "beta", "delta", "gamma"}, gap.AffectedLabIDs)
	assert.Regexp(t, `^COV-[0-9a-f]{8}$`, gap.ID)
}

func TestCoverageRuleSeverityGrowsWithMissingLabs(t *testing.T) {
	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}

	build := func(noneLabs []string) []policies.PolicyRecord {
		full := fiveLevels("alpha", names)
		full.Coverage = map[policies.DomainTag]policies.Coverage{
			policies.DomainCyber: policies.CoverageFull,
		}
		records := []policies.PolicyRecord{full}
		for _, labID := range noneLabs {
			records = append(records, fiveLevels(labID, names))
		}
		return records
	}

	detect := func(records []policies.PolicyRecord) Gap {
		snap, mapping := mustAnalysisInput(t, records)
		gaps, err := NewDetector().Detect(snap, mapping)
		require.NoError(t, err)
		coverageGaps := gapsOfType(gaps, TypeCoverage)
		require.Len(t, coverageGaps, 1)
		return coverageGaps[0]
	}

	narrow := detect(build([]string{"beta"}))
	wide := detect(build([]string{"beta", "gamma", "delta"}))

	assert.Equal(t, SeverityMedium, narrow.Severity)
	assert.Equal(t, SeverityHigh, wide.Severity)
	assert.Greater(t, wide.Severity.Rank(), narrow.Severity.Rank())
}

func TestCoverageRuleIgnoresPartial(t *testing.T) {
	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}
	a := fiveLevels("alpha", names)
	a.Coverage = map[policies.DomainTag]policies.Coverage{policies.DomainCyber: policies.CoverageFull}
	b := fiveLevels("beta", names)
	b.Coverage = map[policies.DomainTag]policies.Coverage{policies.DomainCyber: policies.CoveragePartial}

	snap, mapping := mustAnalysisInput(t, []policies.PolicyRecord{a, b})
	gaps, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)
	assert.Empty(t, gapsOfType(gaps, TypeCoverage))
}

func TestDefinitionRuleUnresolvedAlignment(t *testing.T) {
	// A three-level framework whose top level description matches no
	// alignment keyword produces an ambiguity, which surfaces as a
	// definition gap.
	short := policies.PolicyRecord{
		LabID:            "beta",
		FrameworkName:    "Beta Framework",
		FrameworkVersion: "2.0",
		Levels: []policies.LevelDefinition{
			{NativeLevelName: "Green", OrdinalPosition: 1},
			{NativeLevelName: "Amber", OrdinalPosition: 2},
			{NativeLevelName: "Red", OrdinalPosition: 3, SafeguardDescription: "escalate to the board"},
		},
	}
	records := []policies.PolicyRecord{
		fiveLevels("alpha", [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}),
		short,
	}

	snap, mapping := mustAnalysisInput(t, records)
	require.NotEmpty(t, mapping.Ambiguities())

	gaps, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)

	defGaps := gapsOfType(gaps, TypeDefinition)
	require.Len(t, defGaps, 1)
	gap := defGaps[0]
	assert.Equal(t, SeverityMedium, gap.Severity)
	assert.Equal(t, "alignment/beta/Red", gap.Key)
	assert.Equal(t, []string{"beta"}, gap.AffectedLabIDs)
	assert.Regexp(t, `^DEF-[0-9a-f]{8}$`, gap.ID)
}

func TestDefinitionRuleKeywordDivergence(t *testing.T) {
	// Both labs trigger cbrn at the same tier but define the baseline
	// with different vocabularies.
	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}
	a := fiveLevels("alpha", names)
	a.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}
	a.Levels[2].SafeguardDescription = "meaningful uplift beyond web search for weapons synthesis"
	b := fiveLevels("beta", names)
	b.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}
	b.Levels[2].SafeguardDescription = "uplift relative to skilled search by a motivated actor"

	snap, mapping := mustAnalysisInput(t, []policies.PolicyRecord{a, b})
	gaps, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)

	defGaps := gapsOfType(gaps, TypeDefinition)
	require.Len(t, defGaps, 1)
	gap := defGaps[0]
	assert.Equal(t, SeverityHigh, gap.Severity)
	assert.Equal(t, policies.DomainCBRN, gap.Domain)
	assert.Equal(t, "cbrn@Significant", gap.Key)
	assert.Equal(t, []string{"alpha", "beta"}, gap.AffectedLabIDs)
}

func TestDefinitionRuleSharedVocabulary(t *testing.T) {
	names := [5]string{"Tier 1", "Tier 2", "Tier 3", "Tier 4", "Tier 5"}
	a := fiveLevels("alpha", names)
	a.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}
	a.Levels[2].SafeguardDescription = "uplift beyond web search"
	b := fiveLevels("beta", names)
	b.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}
	b.Levels[2].SafeguardDescription = "no uplift over a web search baseline"

	snap, mapping := mustAnalysisInput(t, []policies.PolicyRecord{a, b})
	gaps, err := NewDetector().Detect(snap, mapping)
	require.NoError(t, err)
	assert.Empty(t, gapsOfType(gaps, TypeDefinition))
}
