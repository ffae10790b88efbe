package analysis

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
)

func testRecords() []policies.PolicyRecord {
	level := func(name string, ordinal int) policies.LevelDefinition {
		return policies.LevelDefinition{NativeLevelName: name, OrdinalPosition: ordinal}
	}

	a := policies.PolicyRecord{
		LabID: "alpha", FrameworkName: "Alpha Framework", FrameworkVersion: "1.0",
		Levels: []policies.LevelDefinition{
			level("ASL-1", 1), level("ASL-2", 2), level("ASL-3", 3), level("ASL-4", 4), level("ASL-5", 5),
		},
		Coverage: map[policies.DomainTag]policies.Coverage{
			policies.DomainCBRN:     policies.CoverageFull,
			policies.DomainAutonomy: policies.CoverageFull,
		},
	}
	a.Levels[2].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}

	b := policies.PolicyRecord{
		LabID: "beta", FrameworkName: "Beta Framework", FrameworkVersion: "2.1",
		Levels: []policies.LevelDefinition{
			level("Low", 1), level("Medium", 2), level("High", 3), level("Severe", 4), level("Extreme", 5),
		},
		Coverage: map[policies.DomainTag]policies.Coverage{
			policies.DomainCBRN: policies.CoverageFull,
		},
	}
	b.Levels[4].TriggeringCapabilities = []policies.DomainTag{policies.DomainCBRN}

	return []policies.PolicyRecord{a, b}
}

func TestRunProducesCompleteAnalysis(t *testing.T) {
	runner := NewRunner()
	analysis, err := runner.Run(context.Background(), testRecords())
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, []string{"alpha", "beta"}, analysis.Metadata.Labs)
	assert.Len(t, analysis.Mapping, 10)
	assert.NotEmpty(t, analysis.Gaps)
	assert.NotEmpty(t, analysis.Recommendations)
	assert.NotEmpty(t, analysis.Metadata.RunID)
}

func TestRunIdempotentIdentifiers(t *testing.T) {
	runner := NewRunner()

	first, err := runner.Run(context.Background(), testRecords())
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), testRecords())
	require.NoError(t, err)

	// Run IDs differ, everything derived from the input does not.
	assert.NotEqual(t, first.Metadata.RunID, second.Metadata.RunID)
	assert.Empty(t, cmp.Diff(first.Mapping, second.Mapping))
	assert.Empty(t, cmp.Diff(first.Gaps, second.Gaps))
	assert.Empty(t, cmp.Diff(first.Recommendations, second.Recommendations))
}

func TestRunAtomicOnInvalidInput(t *testing.T) {
	records := testRecords()
	records[1].LabID = records[0].LabID // duplicate lab ID

	analysis, err := NewRunner().Run(context.Background(), records)
	assert.Nil(t, analysis)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analysis, err := NewRunner().Run(ctx, testRecords())
	assert.Nil(t, analysis)
	assert.True(t, errors.IsCanceled(err))
}

func TestRunBatch(t *testing.T) {
	runner := NewRunner()

	results, err := runner.RunBatch(context.Background(), map[string][]policies.PolicyRecord{
		"frontier": testRecords(),
		"single":   testRecords()[:1],
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results["frontier"])
	assert.NotNil(t, results["single"])
	assert.NotEmpty(t, results["frontier"].Gaps)
	assert.Empty(t, results["single"].Gaps)
}

func TestRunBatchFailsWhole(t *testing.T) {
	invalid := testRecords()
	invalid[0].Levels = nil

	results, err := NewRunner().RunBatch(context.Background(), map[string][]policies.PolicyRecord{
		"good": testRecords(),
		"bad":  invalid,
	})
	assert.Nil(t, results)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.Contains(t, err.Error(), "bad")
}
