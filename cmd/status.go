package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/manifest"
	"github.com/epochlab/protopack/internal/presentation"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the canonical version, stage markers, and manifest versions",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit machine-readable JSON")
}

func runStatus(_ *cobra.Command, _ []string) error {
	versions, cache, err := loadProject()
	if err != nil {
		return err
	}
	v, err := versions.Get()
	if err != nil {
		return err
	}

	markers, err := cache.Snapshot()
	if err != nil {
		return err
	}

	manifests, err := cfg.ManifestList()
	if err != nil {
		return err
	}
	entries := manifest.NewSynchronizer(manifests).Status()

	if statusJSON {
		return presentation.NewFormatter(os.Stdout).FormatProjectStatus(presentation.ProjectStatusDTO{
			Version:   v.String(),
			Stages:    presentation.FromMarkers(markers),
			Manifests: presentation.FromManifestEntries(entries),
		})
	}

	fmt.Printf("version: %s\n\nstages:\n", v)
	if len(markers) == 0 {
		fmt.Println("  (none completed)")
	}
	for _, s := range presentation.FromMarkers(markers) {
		state := s.Version
		if s.Version != v.String() {
			state += " (stale)"
		}
		fmt.Printf("  %-18s %s\n", s.Stage, state)
	}

	fmt.Println("\nmanifests:")
	for _, e := range presentation.FromManifestEntries(entries) {
		state := e.Version
		switch {
		case e.Missing:
			state = "missing"
		case e.Error != "":
			state = "error: " + e.Error
		case e.Version != v.String():
			state += " (drift)"
		}
		fmt.Printf("  %-28s %s\n", e.Path, state)
	}
	return nil
}
