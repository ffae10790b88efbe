package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/policyscale/rspmap/pkg/gaps"
)

// Option configures a Generator.
type Option func(*Generator)

// WithTemplateSet overrides the recommendation wording templates.
func WithTemplateSet(ts *TemplateSet) Option {
	return func(g *Generator) {
		g.templates = ts
	}
}

// WithKnownLabs sets the full lab population. A recommendation whose
// gaps touch every known lab is escalated to High priority. When unset,
// the population is inferred from the gap set itself.
func WithKnownLabs(labs []string) Option {
	return func(g *Generator) {
		g.knownLabs = labs
	}
}

// Generator produces recommendations from gap sets. A generator is
// stateless between calls and safe for reuse.
type Generator struct {
	templates *TemplateSet
	knownLabs []string
}

// NewGenerator creates a generator with the default template set.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		templates: DefaultTemplateSet(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// group is one unit of recommendation generation: all gaps of a type
// sharing a domain key.
type group struct {
	gapType   gaps.Type
	domainKey string
	gaps      []gaps.Gap
}

// Generate turns a gap set into an ordered recommendation sequence.
// Gaps are grouped by type, then by domain within the type; each group
// yields exactly one recommendation. An empty gap set yields an empty
// sequence. Identical input reproduces identical output, recommendation
// IDs included.
func (g *Generator) Generate(gapSet []gaps.Gap) []Recommendation {
	if len(gapSet) == 0 {
		return nil
	}

	population := g.knownLabs
	if len(population) == 0 {
		population = labUnion(gapSet)
	}

	groups := groupGaps(gapSet)

	recs := make([]Recommendation, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, grp := range groups {
		rec, ok := g.build(grp, population)
		if !ok {
			continue
		}
		// No two recommendations may share a derived-gap set.
		fingerprint := strings.Join(rec.DerivedFromGapIDs, ",")
		if _, dup := seen[fingerprint]; dup {
			continue
		}
		seen[fingerprint] = struct{}{}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Priority.rank() != recs[j].Priority.rank() {
			return recs[i].Priority.rank() > recs[j].Priority.rank()
		}
		if recs[i].Category.precedence() != recs[j].Category.precedence() {
			return recs[i].Category.precedence() < recs[j].Category.precedence()
		}
		return recs[i].ID < recs[j].ID
	})
	return recs
}

// build instantiates one group's recommendation from its template.
func (g *Generator) build(grp group, population []string) (Recommendation, bool) {
	template, ok := g.templates.ForGapType(grp.gapType)
	if !ok {
		return Recommendation{}, false
	}

	gapIDs := make([]string, 0, len(grp.gaps))
	labs := make(map[string]struct{})
	high := false
	for _, gap := range grp.gaps {
		gapIDs = append(gapIDs, gap.ID)
		for _, labID := range gap.AffectedLabIDs {
			labs[labID] = struct{}{}
		}
		if gap.Severity == gaps.SeverityHigh {
			high = true
		}
	}
	sort.Strings(gapIDs)

	priority := PriorityMedium
	if high || coversPopulation(labs, population) {
		priority = PriorityHigh
	}

	return Recommendation{
		ID:                  recommendationID(gapIDs),
		Category:            template.Category,
		Priority:            priority,
		Title:               template.render(template.Title, grp.domainKey),
		CurrentStateSummary: summarize(grp),
		ProposedStandard:    template.render(template.ProposedStandard, grp.domainKey),
		Rationale:           template.render(template.Rationale, grp.domainKey),
		ApplicableAudiences: template.Audiences,
		DerivedFromGapIDs:   gapIDs,
	}, true
}

// groupGaps partitions the gap set by (type, domain key) in a stable
// order. Gaps with no domain fall into the "general" group of their
// type.
func groupGaps(gapSet []gaps.Gap) []group {
	byKey := make(map[string]*group)
	var order []string
	for _, gap := range gapSet {
		domainKey := gap.Domain.String()
		if domainKey == "" {
			domainKey = "general"
		}
		key := gap.Type.String() + "/" + domainKey
		grp, ok := byKey[key]
		if !ok {
			grp = &group{gapType: gap.Type, domainKey: domainKey}
			byKey[key] = grp
			order = append(order, key)
		}
		grp.gaps = append(grp.gaps, gap)
	}
	sort.Strings(order)

	groups := make([]group, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}

// summarize describes the group's current state from its gaps.
func summarize(grp group) string {
	if len(grp.gaps) == 1 {
		return grp.gaps[0].Description
	}
	parts := make([]string, len(grp.gaps))
	for i, gap := range grp.gaps {
		parts[i] = gap.Description
	}
	return fmt.Sprintf("%d related findings: %s", len(grp.gaps), strings.Join(parts, " "))
}

// labUnion collects every lab any gap touches, sorted.
func labUnion(gapSet []gaps.Gap) []string {
	set := make(map[string]struct{})
	for _, gap := range gapSet {
		for _, labID := range gap.AffectedLabIDs {
			set[labID] = struct{}{}
		}
	}
	labs := make([]string, 0, len(set))
	for labID := range set {
		labs = append(labs, labID)
	}
	sort.Strings(labs)
	return labs
}

// coversPopulation reports whether the touched-lab set includes every
// known lab.
func coversPopulation(touched map[string]struct{}, population []string) bool {
	if len(population) == 0 {
		return false
	}
	for _, labID := range population {
		if _, ok := touched[labID]; !ok {
			return false
		}
	}
	return true
}
