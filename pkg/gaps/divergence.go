package gaps

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/policyscale/rspmap/pkg/errors"
)

// KeywordGroup names one recognized way of phrasing a safeguard or
// baseline. Two labs whose descriptions for the same domain and tier
// match different groups are defining the same concept differently.
type KeywordGroup struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// DivergenceVocabulary is the configured keyword-divergence check used
// by the Definition rule. It is a configuration artifact, not free-form
// inference: only the tabulated vocabularies are compared.
type DivergenceVocabulary struct {
	Groups []KeywordGroup `json:"groups" yaml:"groups"`
}

// DefaultDivergenceVocabulary returns the built-in vocabulary covering
// the baseline and capability phrasings published frameworks use.
func DefaultDivergenceVocabulary() *DivergenceVocabulary {
	return &DivergenceVocabulary{
		Groups: []KeywordGroup{
			{Name: "web-search-baseline", Keywords: []string{"web search"}},
			{Name: "skilled-search-baseline", Keywords: []string{"skilled search"}},
			{Name: "non-expert-baseline", Keywords: []string{"non-expert", "nonexpert"}},
			{Name: "self-replication", Keywords: []string{"self-replicat", "acquire resources"}},
			{Name: "task-autonomy", Keywords: []string{"autonomous task", "task completion"}},
			{Name: "rd-acceleration", Keywords: []string{"accelerate ai development", "ml r&d", "ai r&d"}},
		},
	}
}

// LoadDivergenceVocabulary reads a vocabulary from a YAML file.
func LoadDivergenceVocabulary(path string) (*DivergenceVocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var vocab DivergenceVocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if len(vocab.Groups) == 0 {
		return nil, errors.NewConfigError("divergence vocabulary", "no keyword groups defined in "+path, nil)
	}
	return &vocab, nil
}

// Match returns the name of the first group whose keywords appear in
// the description, or "" when no group matches.
func (v *DivergenceVocabulary) Match(description string) string {
	lowered := strings.ToLower(description)
	for _, group := range v.Groups {
		for _, keyword := range group.Keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				return group.Name
			}
		}
	}
	return ""
}
