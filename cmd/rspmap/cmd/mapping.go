package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policyscale/rspmap/internal/cmd/globals"
	"github.com/policyscale/rspmap/internal/cmd/output"
	"github.com/policyscale/rspmap/pkg/policies"
	"github.com/policyscale/rspmap/pkg/terminology"
)

var mappingAlignmentTable string

// mappingCmd builds and displays the terminology crosswalk without
// running gap detection.
var mappingCmd = &cobra.Command{
	Use:   "mapping [paths...]",
	Short: "Show the terminology crosswalk",
	Long: `Mapping aligns each lab's native risk levels onto the canonical
5-tier scale and prints the resulting crosswalk. Unresolved alignments
are marked; tiers a framework does not define show as absent.`,
	GroupID: "analysis",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runMapping,
}

func init() {
	mappingCmd.Flags().StringVar(&mappingAlignmentTable, "alignment-table", "",
		"YAML file overriding the keyword alignment table")
	rootCmd.AddCommand(mappingCmd)
}

func runMapping(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(args)
	if err != nil {
		return err
	}
	snap, err := policies.Validate(records, nil)
	if err != nil {
		return err
	}

	var opts []terminology.Option
	if mappingAlignmentTable != "" {
		table, err := terminology.LoadAlignmentTable(mappingAlignmentTable)
		if err != nil {
			return err
		}
		opts = append(opts, terminology.WithAlignmentTable(table))
	}
	mapping, err := terminology.BuildMapping(snap, opts...)
	if err != nil {
		return err
	}

	flags, _ := globals.Parse(cmd)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, mapping.Entries())
	default:
		return writeCrosswalk(cmd, mapping)
	}
}

// writeCrosswalk renders the mapping as one row per canonical tier,
// highest first, one column per lab.
func writeCrosswalk(cmd *cobra.Command, mapping *terminology.Mapping) error {
	labs := mapping.Labs()
	headers := append([]string{"Canonical Level"}, labs...)

	levels := policies.CanonicalLevels()
	rows := make([][]string, 0, len(levels))
	for i := len(levels) - 1; i >= 0; i-- {
		level := levels[i]
		row := []string{level.String()}
		for _, labID := range labs {
			entry, _ := mapping.Entry(level, labID)
			cell := entry.NativeName
			switch {
			case entry.Absent:
				cell = "-"
			case entry.Unresolved:
				cell += " (?)"
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	formatter := output.NewFormatter(output.FormatTable)
	if err := formatter.Format(cmd.OutOrStdout(), output.Data{Headers: headers, Rows: rows}); err != nil {
		return err
	}

	for _, amb := range mapping.Ambiguities() {
		fmt.Fprintf(cmd.OutOrStdout(), "unresolved: %s %q: %s\n",
			amb.LabID, amb.NativeName, amb.Reason)
	}
	return nil
}
