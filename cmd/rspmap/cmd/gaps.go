package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/policyscale/rspmap/internal/cmd/globals"
	"github.com/policyscale/rspmap/internal/cmd/output"
	"github.com/policyscale/rspmap/pkg/gaps"
	"github.com/policyscale/rspmap/pkg/policies"
	"github.com/policyscale/rspmap/pkg/terminology"
)

var gapsMinSeverity string

// gapsCmd runs detection only and lists the gaps.
var gapsCmd = &cobra.Command{
	Use:     "gaps [paths...]",
	Short:   "Detect and list gaps between frameworks",
	GroupID: "analysis",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runGaps,
}

func init() {
	gapsCmd.Flags().StringVar(&gapsMinSeverity, "min-severity", "",
		"Only show gaps at or above this severity (Low, Medium, High)")
	rootCmd.AddCommand(gapsCmd)
}

func runGaps(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(args)
	if err != nil {
		return err
	}
	snap, err := policies.Validate(records, nil)
	if err != nil {
		return err
	}
	mapping, err := terminology.BuildMapping(snap)
	if err != nil {
		return err
	}
	gapSet, err := gaps.NewDetector().Detect(snap, mapping)
	if err != nil {
		return err
	}

	if gapsMinSeverity != "" {
		floor := gaps.Severity(gapsMinSeverity).Rank()
		filtered := gapSet[:0]
		for _, gap := range gapSet {
			if gap.Severity.Rank() >= floor {
				filtered = append(filtered, gap)
			}
		}
		gapSet = filtered
	}

	flags, _ := globals.Parse(cmd)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, gapSet)
	default:
		rows := make([][]string, len(gapSet))
		for i, gap := range gapSet {
			rows[i] = []string{
				gap.ID, gap.Type.String(), gap.Severity.String(),
				strings.Join(gap.AffectedLabIDs, ", "), gap.Description,
			}
		}
		return output.NewFormatter(output.FormatTable).Format(w, output.Data{
			Headers: []string{"ID", "Type", "Severity", "Labs", "Description"},
			Rows:    rows,
		})
	}
}
