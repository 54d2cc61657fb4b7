package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/manifest"
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/tools"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage the canonical release version",
	Long: `Read, change, and propagate the canonical version stored in the VERSION file.

Changing the version does not touch the ecosystem manifests by itself; run
"version sync" to propagate it, and "version status" to see where each
manifest currently stands.`,
}

var versionGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the canonical version",
	RunE: func(_ *cobra.Command, _ []string) error {
		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		v, err := versions.Get()
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var versionSetCmd = &cobra.Command{
	Use:   "set <version>",
	Short: "Set the canonical version to an exact value",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		v, err := semver.Parse(args[0])
		if err != nil {
			return err
		}

		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		previous, err := versions.Set(v)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", previous, v)
		return nil
	},
}

var versionBumpCmd = &cobra.Command{
	Use:   "bump <major|minor|patch>",
	Short: "Increment one component of the canonical version",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		kind, err := semver.ParseBumpKind(args[0])
		if err != nil {
			return err
		}

		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		next, err := versions.Bump(kind)
		if err != nil {
			return err
		}
		fmt.Println(next)
		return nil
	},
}

var versionSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write the canonical version into every ecosystem manifest",
	RunE: func(_ *cobra.Command, _ []string) error {
		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		v, err := versions.Get()
		if err != nil {
			return err
		}

		manifests, err := cfg.ManifestList()
		if err != nil {
			return err
		}
		if err := manifest.NewSynchronizer(manifests).SyncAll(v); err != nil {
			return err
		}
		fmt.Printf("manifests synced to %s\n", v)
		return nil
	},
}

var versionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which version each ecosystem manifest carries",
	RunE: func(_ *cobra.Command, _ []string) error {
		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		v, err := versions.Get()
		if err != nil {
			return err
		}

		manifests, err := cfg.ManifestList()
		if err != nil {
			return err
		}

		fmt.Printf("canonical: %s\n", v)
		for _, e := range manifest.NewSynchronizer(manifests).Status() {
			state := "ok"
			switch {
			case e.Missing:
				state = "missing"
			case e.Err != nil:
				state = "error: " + e.Err.Error()
			case e.Version != v.String():
				state = "drift (" + e.Version + ")"
			}
			fmt.Printf("  %-28s %s\n", e.Manifest.Path, state)
		}
		return nil
	},
}

var versionTagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Create an annotated git tag for the canonical version",
	RunE: func(_ *cobra.Command, _ []string) error {
		versions, _, err := loadProject()
		if err != nil {
			return err
		}
		v, err := versions.Get()
		if err != nil {
			return err
		}

		tag := "v" + v.String()
		err = newRunner().Run(context.Background(), tools.Invocation{
			Name: "git",
			Args: []string{"tag", "-a", tag, "-m", "Release " + tag},
		})
		if err != nil {
			return err
		}
		fmt.Println(tag)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.AddCommand(versionGetCmd)
	versionCmd.AddCommand(versionSetCmd)
	versionCmd.AddCommand(versionBumpCmd)
	versionCmd.AddCommand(versionSyncCmd)
	versionCmd.AddCommand(versionStatusCmd)
	versionCmd.AddCommand(versionTagCmd)
}
