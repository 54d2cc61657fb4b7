package cmd

import (
	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/stage"
)

var testForce bool

var testCmd = &cobra.Command{
	Use:   "test [targets]",
	Short: "Run the pipeline through the test stage",
	Long: `Build the requested targets and run each ecosystem's test suite.

Everything up through build follows the usual caching rules, so a test run on
an unchanged version only re-executes the stages whose markers are stale.

Examples:
  protopack test
  protopack test scripting --force`,
	RunE: func(_ *cobra.Command, args []string) error {
		return runPipeline(args, stage.Test, testForce, "")
	},
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().BoolVar(&testForce, "force", false,
		"re-run every stage even if completion markers exist")
}
