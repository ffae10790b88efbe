// Package analysis orchestrates the full pipeline: validation,
// terminology mapping, gap detection, recommendation generation, and
// interchange assembly. A run either completes in full or fails with an
// error naming the violation; partial results are never returned.
package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/gaps"
	"github.com/policyscale/rspmap/pkg/interchange"
	"github.com/policyscale/rspmap/pkg/logging"
	"github.com/policyscale/rspmap/pkg/policies"
	"github.com/policyscale/rspmap/pkg/recommend"
	"github.com/policyscale/rspmap/pkg/terminology"
)

// Option configures a Runner.
type Option func(*Runner)

// WithRegistry overrides the domain registry records are validated
// against.
func WithRegistry(registry *policies.Registry) Option {
	return func(r *Runner) {
		r.registry = registry
	}
}

// WithLabOrder overrides the stable lab ordering (default: record order).
func WithLabOrder(labs []string) Option {
	return func(r *Runner) {
		r.labOrder = labs
	}
}

// WithAlignmentTable overrides the terminology keyword table.
func WithAlignmentTable(table *terminology.AlignmentTable) Option {
	return func(r *Runner) {
		r.table = table
	}
}

// WithDivergenceVocabulary overrides the definition-divergence
// vocabulary.
func WithDivergenceVocabulary(vocab *gaps.DivergenceVocabulary) Option {
	return func(r *Runner) {
		r.vocabulary = vocab
	}
}

// WithTemplateSet overrides the recommendation templates.
func WithTemplateSet(templates *recommend.TemplateSet) Option {
	return func(r *Runner) {
		r.templates = templates
	}
}

// WithLogger sets the logger used for pipeline progress.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner runs complete analyses over policy record sets. A runner is
// immutable after construction and safe for concurrent use.
type Runner struct {
	registry   *policies.Registry
	labOrder   []string
	table      *terminology.AlignmentTable
	vocabulary *gaps.DivergenceVocabulary
	templates  *recommend.TemplateSet
	logger     *zerolog.Logger
}

// NewRunner creates a runner with the default configuration artifacts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		registry:   policies.DefaultRegistry(),
		table:      terminology.DefaultAlignmentTable(),
		vocabulary: gaps.DefaultDivergenceVocabulary(),
		templates:  recommend.DefaultTemplateSet(),
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the full pipeline over one record set. The run is
// atomic: it returns a complete interchange analysis or an error naming
// the violating record, never a partial result. The computation itself
// is pure; only logging and run metadata touch the outside world.
func (r *Runner) Run(ctx context.Context, records []policies.PolicyRecord) (*interchange.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.ErrCanceled
	}

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(logging.WithLogger(ctx, r.logger), runID)
	}
	log := logging.Ctx(ctx)

	log.Debug().Int("records", len(records)).Msg("validating policy records")
	snap, err := policies.Validate(records, r.registry)
	if err != nil {
		return nil, err
	}

	mappingOpts := []terminology.Option{terminology.WithAlignmentTable(r.table)}
	if len(r.labOrder) > 0 {
		mappingOpts = append(mappingOpts, terminology.WithLabOrder(r.labOrder))
	}
	mapping, err := terminology.BuildMapping(snap, mappingOpts...)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("labs", len(mapping.Labs())).
		Int("ambiguities", len(mapping.Ambiguities())).
		Msg("terminology mapping built")

	detector := gaps.NewDetector(gaps.WithDivergenceVocabulary(r.vocabulary))
	gapSet, err := detector.Detect(snap, mapping)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("gaps", len(gapSet)).Msg("gap detection complete")

	generator := recommend.NewGenerator(
		recommend.WithTemplateSet(r.templates),
		recommend.WithKnownLabs(mapping.Labs()),
	)
	recs := generator.Generate(gapSet)
	log.Info().
		Int("gaps", len(gapSet)).
		Int("recommendations", len(recs)).
		Msg("analysis complete")

	return interchange.New(mapping, gapSet, recs, interchange.WithRunID(runID)), nil
}

// RunBatch executes independent analyses concurrently, one per named
// record set. Results are keyed by the input names. Any failing run
// fails the batch; runs already started finish, runs not yet started
// are skipped on cancellation.
func (r *Runner) RunBatch(ctx context.Context, batches map[string][]policies.PolicyRecord) (map[string]*interchange.Analysis, error) {
	results := make(map[string]*interchange.Analysis, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	resultCh := make(chan struct {
		name     string
		analysis *interchange.Analysis
	}, len(batches))

	for name, records := range batches {
		name, records := name, records
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.ErrCanceled
			}
			analysis, err := r.Run(ctx, records)
			if err != nil {
				return fmt.Errorf("analysis %q: %w", name, err)
			}
			resultCh <- struct {
				name     string
				analysis *interchange.Analysis
			}{name: name, analysis: analysis}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultCh)
	for res := range resultCh {
		results[res.name] = res.analysis
	}
	return results, nil
}
