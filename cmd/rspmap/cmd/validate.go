package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policyscale/rspmap/pkg/policies"
)

// validateCmd checks record files against the schema without running
// the analysis.
var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Validate policy record files",
	Long: `Validate checks the given policy records against the schema: level
sequences must be non-empty with strictly increasing ordinals, lab IDs
must be unique, and every domain tag must come from the shared registry.`,
	GroupID: "analysis",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(args)
		if err != nil {
			return err
		}

		snap, err := policies.Validate(records, nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) valid: %v\n",
			len(snap.Records()), snap.LabIDs())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
