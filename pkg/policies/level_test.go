package policies

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLevelOrdering(t *testing.T) {
	levels := CanonicalLevels()
	require.Len(t, levels, 5)

	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i], levels[i-1], "scale must be strictly ascending")
	}

	assert.Equal(t, "Minimal", levels[0].String())
	assert.Equal(t, "Critical", levels[4].String())
}

func TestCanonicalLevelSpellings(t *testing.T) {
	// These spellings are an interchange contract; downstream formatting
	// depends on them.
	want := []string{"Minimal", "Emerging", "Significant", "Severe", "Critical"}
	for i, level := range CanonicalLevels() {
		assert.Equal(t, want[i], level.String())
	}
}

func TestParseCanonicalLevel(t *testing.T) {
	for _, level := range CanonicalLevels() {
		parsed, err := ParseCanonicalLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	_, err := ParseCanonicalLevel("Extreme")
	assert.Error(t, err)
}

func TestCanonicalLevelJSON(t *testing.T) {
	data, err := json.Marshal(LevelSevere)
	require.NoError(t, err)
	assert.Equal(t, `"Severe"`, string(data))

	var level CanonicalLevel
	require.NoError(t, json.Unmarshal([]byte(`"Emerging"`), &level))
	assert.Equal(t, LevelEmerging, level)

	assert.Error(t, json.Unmarshal([]byte(`3`), &level))
}

func TestHighConsequenceDomains(t *testing.T) {
	assert.True(t, DomainCBRN.HighConsequence())
	assert.True(t, DomainAutonomy.HighConsequence())
	assert.False(t, DomainCyber.HighConsequence())
	assert.False(t, DomainPersuasion.HighConsequence())
}
