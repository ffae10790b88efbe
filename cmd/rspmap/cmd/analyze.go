package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/policyscale/rspmap/internal/cmd/globals"
	"github.com/policyscale/rspmap/internal/cmd/output"
	"github.com/policyscale/rspmap/pkg/analysis"
	"github.com/policyscale/rspmap/pkg/gaps"
	"github.com/policyscale/rspmap/pkg/interchange"
	"github.com/policyscale/rspmap/pkg/recommend"
	"github.com/policyscale/rspmap/pkg/terminology"
)

var (
	analyzeAlignmentTable string
	analyzeVocabulary     string
	analyzeTemplates      string
	analyzeLabOrder       []string
	analyzeOut            string
)

// analyzeCmd runs the full pipeline over a record set.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Run the full harmonization analysis",
	Long: `Analyze validates the given policy records, aligns each lab's native
risk levels onto the canonical 5-tier scale, detects gaps between the
frameworks, and generates prioritized harmonization recommendations.

Paths may be YAML record files or directories of them.`,
	GroupID: "analysis",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAlignmentTable, "alignment-table", "",
		"YAML file overriding the keyword alignment table")
	analyzeCmd.Flags().StringVar(&analyzeVocabulary, "vocabulary", "",
		"YAML file overriding the definition-divergence vocabulary")
	analyzeCmd.Flags().StringVar(&analyzeTemplates, "templates", "",
		"YAML file overriding the recommendation templates")
	analyzeCmd.Flags().StringSliceVar(&analyzeLabOrder, "lab-order", nil,
		"Explicit lab ordering (default: record order)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "",
		"Write the result to a file instead of stdout")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(args)
	if err != nil {
		return err
	}

	opts, err := runnerOptions()
	if err != nil {
		return err
	}
	runner := analysis.NewRunner(opts...)
	result, err := runner.Run(cmd.Context(), records)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if analyzeOut != "" {
		f, err := os.Create(analyzeOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	flags, _ := globals.Parse(cmd)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return writeAnalysis(w, result, format)
}

// runnerOptions assembles runner options from the analyze flags.
func runnerOptions() ([]analysis.Option, error) {
	var opts []analysis.Option
	if analyzeAlignmentTable != "" {
		table, err := terminology.LoadAlignmentTable(analyzeAlignmentTable)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithAlignmentTable(table))
	}
	if analyzeVocabulary != "" {
		vocab, err := gaps.LoadDivergenceVocabulary(analyzeVocabulary)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithDivergenceVocabulary(vocab))
	}
	if analyzeTemplates != "" {
		templates, err := recommend.LoadTemplateSet(analyzeTemplates)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithTemplateSet(templates))
	}
	if len(analyzeLabOrder) > 0 {
		opts = append(opts, analysis.WithLabOrder(analyzeLabOrder))
	}
	return opts, nil
}

// writeAnalysis renders the analysis in the requested format. Table
// output shows the gap and recommendation summaries; the structured
// formats carry the full interchange object.
func writeAnalysis(w io.Writer, result *interchange.Analysis, format output.Format) error {
	switch format {
	case output.FormatJSON:
		return result.WriteJSON(w)
	case output.FormatYAML:
		return result.WriteYAML(w)
	case output.FormatMarkdown:
		return result.WriteMarkdown(w)
	default:
		return writeAnalysisTables(w, result)
	}
}

func writeAnalysisTables(w io.Writer, result *interchange.Analysis) error {
	formatter := output.NewFormatter(output.FormatTable)

	fmt.Fprintf(w, "Labs: %s\n\n", strings.Join(result.Metadata.Labs, ", "))

	fmt.Fprintf(w, "Gaps (%d):\n", result.Metadata.GapCount)
	gapRows := make([][]string, len(result.Gaps))
	for i, gap := range result.Gaps {
		gapRows[i] = []string{
			gap.ID, gap.Type.String(), gap.Severity.String(),
			strings.Join(gap.AffectedLabIDs, ", "), gap.Key,
		}
	}
	if err := formatter.Format(w, output.Data{
		Headers: []string{"ID", "Type", "Severity", "Labs", "Key"},
		Rows:    gapRows,
	}); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nRecommendations (%d):\n", result.Metadata.RecommendationCount)
	recRows := make([][]string, len(result.Recommendations))
	for i, rec := range result.Recommendations {
		recRows[i] = []string{
			rec.ID, rec.Priority.String(), rec.Category.String(), rec.Title,
		}
	}
	return formatter.Format(w, output.Data{
		Headers: []string{"ID", "Priority", "Category", "Title"},
		Rows:    recRows,
	})
}
