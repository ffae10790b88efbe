package terminology

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
)

// AlignmentRule maps a descriptive keyword found in a level's safeguard
// description to the canonical tier that level anchors at.
type AlignmentRule struct {
	Keyword string                  `json:"keyword" yaml:"keyword"`
	Level   policies.CanonicalLevel `json:"canonical_level" yaml:"canonical_level"`
}

// AlignmentTable is the configurable keyword lookup used to anchor a
// lab's topmost native level when the lab defines fewer than five
// levels. The table is configuration data: alignment is never inferred
// beyond what it tabulates, and unresolvable levels are flagged.
type AlignmentTable struct {
	Rules []AlignmentRule `json:"rules" yaml:"rules"`
}

// DefaultAlignmentTable returns the documented rule set: a top level
// requiring maximum safeguards aligns to Severe, one requiring a
// development pause aligns to Critical.
func DefaultAlignmentTable() *AlignmentTable {
	return &AlignmentTable{
		Rules: []AlignmentRule{
			{Keyword: "maximum safeguards", Level: policies.LevelSevere},
			{Keyword: "deployment restrictions", Level: policies.LevelSevere},
			{Keyword: "development pause", Level: policies.LevelCritical},
			{Keyword: "halt training", Level: policies.LevelCritical},
			{Keyword: "existential", Level: policies.LevelCritical},
		},
	}
}

// LoadAlignmentTable reads an alignment table from a YAML file.
func LoadAlignmentTable(path string) (*AlignmentTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var table AlignmentTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if len(table.Rules) == 0 {
		return nil, errors.NewConfigError("alignment table", "no rules defined in "+path, nil)
	}
	for _, rule := range table.Rules {
		if rule.Keyword == "" || !rule.Level.Valid() {
			return nil, errors.NewConfigError("alignment table",
				"rule must name a keyword and a canonical level", nil)
		}
	}
	return &table, nil
}

// Resolve applies the table to a safeguard description. It returns the
// anchored tier when exactly one distinct tier matches; conflict is
// true when keywords naming different tiers both match.
func (t *AlignmentTable) Resolve(description string) (level policies.CanonicalLevel, matched, conflict bool) {
	lowered := strings.ToLower(description)

	seen := make(map[policies.CanonicalLevel]struct{})
	for _, rule := range t.Rules {
		if strings.Contains(lowered, strings.ToLower(rule.Keyword)) {
			seen[rule.Level] = struct{}{}
		}
	}

	switch len(seen) {
	case 0:
		return 0, false, false
	case 1:
		for l := range seen {
			level = l
		}
		return level, true, false
	default:
		return 0, true, true
	}
}
