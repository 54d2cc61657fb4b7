package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/stage"
)

var cleanArtifacts bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stage completion markers",
	Long: `Remove every completion marker so the next run rebuilds from scratch.

With --artifacts the configured stage artifacts are deleted too. Everything
removed is re-derivable from the schema sources; the VERSION file and the
manifests are never touched.

Examples:
  protopack clean
  protopack clean --artifacts`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolVar(&cleanArtifacts, "artifacts", false,
		"also delete the artifacts the configured stages produce")
}

func runClean(_ *cobra.Command, _ []string) error {
	_, cache, err := loadProject()
	if err != nil {
		return err
	}

	if err := cache.InvalidateAll(context.Background()); err != nil {
		return err
	}
	fmt.Println("markers removed")

	if !cleanArtifacts {
		return nil
	}
	for _, t := range stage.Targets() {
		for _, n := range stage.Names() {
			sc, err := cfg.Stage(stage.Stage{Target: t, Name: n})
			if err != nil {
				continue
			}
			for _, a := range sc.Artifacts {
				if err := os.RemoveAll(a); err != nil {
					return fmt.Errorf("removing artifact %s: %w", a, err)
				}
			}
		}
	}
	fmt.Println("artifacts removed")
	return nil
}
