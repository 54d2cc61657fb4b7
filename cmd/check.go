package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/presentation"
	"github.com/epochlab/protopack/internal/tools"
)

var checkCmd = &cobra.Command{
	Use:   "check [targets]",
	Short: "Verify the external tools each target needs are installed",
	Long: `Check that every tool the configured stages invoke resolves on PATH.

All requested targets are checked before reporting, so one missing compiler
does not hide a missing publisher further down the list.

Examples:
  protopack check
  protopack check native web`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) error {
	targets, err := parseTargets(args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		checks []presentation.CheckDTO
		all    []error
	)
	for _, t := range targets {
		errs := tools.CheckPrerequisites(t, cfg.ToolNames(t))
		dto := presentation.CheckDTO{Target: string(t), Ready: len(errs) == 0}
		for _, e := range errs {
			var pe *tools.PrerequisiteError
			if errors.As(e, &pe) {
				dto.Missing = append(dto.Missing, pe.Tool)
			}
		}
		checks = append(checks, dto)
		all = append(all, errs...)
	}

	if err := presentation.NewFormatter(os.Stdout).FormatChecks(checks); err != nil {
		return err
	}
	return errors.Join(all...)
}
