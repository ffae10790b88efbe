package interchange

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
)

// WriteJSON serializes the analysis as indented JSON.
func (a *Analysis) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return errors.WrapIO("encode", "analysis json", err)
	}
	return nil
}

// WriteYAML serializes the analysis as YAML.
func (a *Analysis) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return errors.WrapIO("encode", "analysis yaml", err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.WrapIO("write", "analysis yaml", err)
	}
	return nil
}

// WriteMarkdown renders a human-readable summary report: the
// terminology crosswalk, gaps grouped by severity, and the
// recommendation sequence.
func (a *Analysis) WriteMarkdown(w io.Writer) error {
	var b strings.Builder

	b.WriteString("# Policy Harmonization Analysis\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", a.Metadata.RunID,
		a.Metadata.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Frameworks compared: %s.\n\n", strings.Join(a.Metadata.Labs, ", "))

	a.writeMappingTable(&b)
	a.writeGaps(&b)
	a.writeRecommendations(&b)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.WrapIO("write", "analysis markdown", err)
	}
	return nil
}

// writeMappingTable renders the level crosswalk, highest tier first.
func (a *Analysis) writeMappingTable(b *strings.Builder) {
	b.WriteString("## Terminology Crosswalk\n\n")

	byKey := make(map[string]string, len(a.Mapping))
	for _, entry := range a.Mapping {
		cell := entry.NativeName
		switch {
		case entry.Absent:
			cell = "—"
		case entry.Unresolved:
			cell += " (?)"
		}
		byKey[entry.Level.String()+"/"+entry.LabID] = cell
	}

	fmt.Fprintf(b, "| Canonical Level | %s |\n", strings.Join(a.Metadata.Labs, " | "))
	b.WriteString("|---" + strings.Repeat("|---", len(a.Metadata.Labs)) + "|\n")

	levels := policies.CanonicalLevels()
	for i := len(levels) - 1; i >= 0; i-- {
		level := levels[i]
		cells := make([]string, len(a.Metadata.Labs))
		for j, labID := range a.Metadata.Labs {
			cells[j] = byKey[level.String()+"/"+labID]
		}
		fmt.Fprintf(b, "| %s | %s |\n", level, strings.Join(cells, " | "))
	}
	b.WriteString("\nLevels marked (?) could not be aligned confidently; — marks tiers a framework does not define.\n\n")
}

// writeGaps renders the gap list grouped by severity, High first.
func (a *Analysis) writeGaps(b *strings.Builder) {
	fmt.Fprintf(b, "## Detected Gaps (%d)\n\n", a.Metadata.GapCount)
	if a.Metadata.GapCount == 0 {
		b.WriteString("No gaps detected: the compared frameworks agree on naming, thresholds, coverage, and definitions.\n\n")
		return
	}

	for _, severity := range []string{"High", "Medium", "Low"} {
		count := a.Metadata.GapSeverityCounts[severity]
		if count == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s severity (%d)\n\n", severity, count)
		for _, gap := range a.Gaps {
			if gap.Severity.String() != severity {
				continue
			}
			fmt.Fprintf(b, "- **%s** `%s` (%s): %s\n", gap.Type, gap.ID,
				strings.Join(gap.AffectedLabIDs, ", "), gap.Description)
		}
		b.WriteString("\n")
	}
}

// writeRecommendations renders the recommendation sequence in its
// generated order.
func (a *Analysis) writeRecommendations(b *strings.Builder) {
	fmt.Fprintf(b, "## Recommendations (%d)\n\n", a.Metadata.RecommendationCount)
	for _, rec := range a.Recommendations {
		fmt.Fprintf(b, "### %s — %s [%s priority]\n\n", rec.ID, rec.Title, rec.Priority)
		fmt.Fprintf(b, "**Current state:** %s\n\n", rec.CurrentStateSummary)
		fmt.Fprintf(b, "**Proposed standard:** %s\n\n", rec.ProposedStandard)
		fmt.Fprintf(b, "**Rationale:** %s\n\n", rec.Rationale)
		fmt.Fprintf(b, "Audiences: %s. Derived from: %s.\n\n",
			strings.Join(rec.ApplicableAudiences, ", "),
			strings.Join(rec.DerivedFromGapIDs, ", "))
	}
}
