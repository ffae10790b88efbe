package recommend

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/gaps"
)

// Template is the fixed wording a gap type's recommendations are built
// from. The "{domain}" token is replaced with the group's domain key at
// generation time.
type Template struct {
	Category         Category `json:"category" yaml:"category"`
	Title            string   `json:"title" yaml:"title"`
	ProposedStandard string   `json:"proposed_standard" yaml:"proposed_standard"`
	Rationale        string   `json:"rationale" yaml:"rationale"`
	Audiences        []string `json:"audiences" yaml:"audiences"`
}

// render substitutes the domain key into a template string.
func (t Template) render(s, domainKey string) string {
	return strings.ReplaceAll(s, "{domain}", domainKey)
}

// TemplateSet maps every gap type to its recommendation template. The
// set is a configuration artifact: generation never invents wording
// beyond it.
type TemplateSet struct {
	Terminology Template `json:"terminology" yaml:"terminology"`
	Threshold   Template `json:"threshold" yaml:"threshold"`
	Coverage    Template `json:"coverage" yaml:"coverage"`
	Definition  Template `json:"definition" yaml:"definition"`
}

// ForGapType returns the template driving a gap type's recommendations.
func (ts *TemplateSet) ForGapType(t gaps.Type) (Template, bool) {
	switch t {
	case gaps.TypeTerminology:
		return ts.Terminology, true
	case gaps.TypeThreshold:
		return ts.Threshold, true
	case gaps.TypeCoverage:
		return ts.Coverage, true
	case gaps.TypeDefinition:
		return ts.Definition, true
	}
	return Template{}, false
}

// DefaultTemplateSet returns the built-in recommendation wording.
func DefaultTemplateSet() *TemplateSet {
	return &TemplateSet{
		Terminology: Template{
			Category: CategoryTerminology,
			Title:    "Adopt a unified risk level naming scheme",
			ProposedStandard: "All frameworks express risk levels on the shared 5-tier scale " +
				"(Minimal, Emerging, Significant, Severe, Critical), publishing a mapping " +
				"from any retained native names to these tiers.",
			Rationale: "Regulators and evaluators currently need a translation table to compare " +
				"frameworks; a shared scale makes levels directly comparable across labs.",
			Audiences: []string{"frontier labs", "regulators", "standards bodies"},
		},
		Threshold: Template{
			Category: CategoryThreshold,
			Title:    "Standardize the {domain} capability threshold",
			ProposedStandard: "Define the {domain} threshold with measurable evaluation criteria " +
				"and a shared canonical tier at which mitigations become mandatory.",
			Rationale: "When labs trigger {domain} safeguards at different tiers, the least " +
				"restrictive threshold sets the effective industry floor.",
			Audiences: []string{"frontier labs", "evaluation providers"},
		},
		Coverage: Template{
			Category: CategorySafeguard,
			Title:    "Close the {domain} coverage gap",
			ProposedStandard: "Every framework explicitly assesses the {domain} domain and states " +
				"its safeguards or a reasoned exclusion.",
			Rationale: "A domain one lab treats as catastrophic and another omits entirely leaves " +
				"an unmanaged risk surface across the industry.",
			Audiences: []string{"frontier labs", "regulators"},
		},
		Definition: Template{
			Category: CategoryProcess,
			Title:    "Align divergent definitions and publish explicit mappings",
			ProposedStandard: "Labs publish explicit definitions for shared concepts (baselines, " +
				"capability descriptions, level mappings) using a common reference vocabulary.",
			Rationale: "Divergent or unresolved definitions make equivalent commitments " +
				"unverifiable; explicit mappings restore comparability.",
			Audiences: []string{"frontier labs", "standards bodies"},
		},
	}
}

// LoadTemplateSet reads a template set from a YAML file.
func LoadTemplateSet(path string) (*TemplateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var ts TemplateSet
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	for name, tpl := range map[string]Template{
		"terminology": ts.Terminology,
		"threshold":   ts.Threshold,
		"coverage":    ts.Coverage,
		"definition":  ts.Definition,
	} {
		if tpl.Title == "" || tpl.ProposedStandard == "" {
			return nil, errors.NewConfigError("template set",
				"template "+name+" is missing a title or proposed standard", nil)
		}
	}
	return &ts, nil
}
