package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/epochlab/protopack/internal/pipeline"
	"github.com/epochlab/protopack/internal/stage"
)

var buildForce bool

var buildCmd = &cobra.Command{
	Use:   "build [targets]",
	Short: "Run the pipeline through the build stage",
	Long: `Generate bindings, package, and build the requested targets.

Stages already completed for the current version are skipped. Scripting and
web packaging trigger the native build first when its artifact is missing.

Examples:
  protopack build
  protopack build scripting
  protopack build native web --force`,
	RunE: func(_ *cobra.Command, args []string) error {
		return runPipeline(args, stage.Build, buildForce, "")
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildForce, "force", false,
		"re-run every stage even if completion markers exist")
}

// runPipeline wires the executor for a run through the given terminal stage
// and prints the outcome summary. Shared by build, test, publish, and watch.
func runPipeline(args []string, upTo stage.Name, force bool, registry string) error {
	targets, err := parseTargets(args)
	if err != nil {
		return err
	}

	versions, cache, err := loadProject()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := pipeline.New(cfg, cache, newRunner(), versions, nil)
	result, runErr := exec.Run(ctx, pipeline.Request{
		Targets:  targets,
		UpTo:     upTo,
		Force:    force,
		Registry: registry,
	})
	if result != nil {
		printRunResult(result)
	}
	return runErr
}

func printRunResult(r *pipeline.RunResult) {
	for _, o := range r.Outcomes {
		fmt.Printf("  %-18s %s\n", o.Stage.Key(), o.Status)
	}
	fmt.Printf("version %s: %d executed, %d skipped\n",
		r.Version, r.Executed(), r.Skipped())
}
