// Package interchange defines the serialization contract between the
// analysis core and external consumers (dashboards, report generators,
// other tooling). Enum spellings and field names in this package are
// frozen: changing them breaks downstream consumers.
package interchange

import (
	"time"

	"github.com/google/uuid"

	"github.com/policyscale/rspmap/pkg/gaps"
	"github.com/policyscale/rspmap/pkg/recommend"
	"github.com/policyscale/rspmap/pkg/terminology"
)

// Metadata describes one analysis run. The run ID and timestamp vary
// between runs; everything else, including every identifier in the
// payload, is deterministic in the input.
type Metadata struct {
	RunID               string         `json:"run_id" yaml:"run_id"`                               // Unique per invocation
	GeneratedAt         time.Time      `json:"generated_at" yaml:"generated_at"`                   // Run timestamp, UTC
	Labs                []string       `json:"labs" yaml:"labs"`                                   // Stable lab ordering of the run
	GapCount            int            `json:"gap_count" yaml:"gap_count"`                         // Total gaps detected
	GapSeverityCounts   map[string]int `json:"gap_severity_counts" yaml:"gap_severity_counts"`     // Gaps per severity
	RecommendationCount int            `json:"recommendation_count" yaml:"recommendation_count"`   // Total recommendations
	PriorityCounts      map[string]int `json:"priority_counts" yaml:"priority_counts"`             // Recommendations per priority
}

// Analysis is the complete interchange object of one run: the
// terminology mapping, the detected gaps, the generated
// recommendations, and run metadata.
type Analysis struct {
	Metadata        Metadata                   `json:"metadata" yaml:"metadata"`
	Mapping         []terminology.Entry        `json:"terminology_mapping" yaml:"terminology_mapping"`
	Ambiguities     []terminology.Ambiguity    `json:"ambiguities,omitempty" yaml:"ambiguities,omitempty"`
	Gaps            []gaps.Gap                 `json:"gaps" yaml:"gaps"`
	Recommendations []recommend.Recommendation `json:"recommendations" yaml:"recommendations"`
}

// Option configures analysis assembly.
type Option func(*Analysis)

// WithRunID overrides the generated run ID. Used by callers that carry
// an external correlation ID.
func WithRunID(runID string) Option {
	return func(a *Analysis) {
		a.Metadata.RunID = runID
	}
}

// WithGeneratedAt overrides the run timestamp.
func WithGeneratedAt(t time.Time) Option {
	return func(a *Analysis) {
		a.Metadata.GeneratedAt = t.UTC()
	}
}

// New assembles the interchange object from the run's outputs. The
// mapping must be the one the gaps were detected against.
func New(mapping *terminology.Mapping, gapSet []gaps.Gap, recs []recommend.Recommendation, opts ...Option) *Analysis {
	a := &Analysis{
		Metadata: Metadata{
			RunID:               uuid.NewString(),
			GeneratedAt:         time.Now().UTC(),
			Labs:                mapping.Labs(),
			GapCount:            len(gapSet),
			GapSeverityCounts:   make(map[string]int),
			RecommendationCount: len(recs),
			PriorityCounts:      make(map[string]int),
		},
		Mapping:         mapping.Entries(),
		Ambiguities:     mapping.Ambiguities(),
		Gaps:            gapSet,
		Recommendations: recs,
	}
	for _, gap := range gapSet {
		a.Metadata.GapSeverityCounts[gap.Severity.String()]++
	}
	for _, rec := range recs {
		a.Metadata.PriorityCounts[rec.Priority.String()]++
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
