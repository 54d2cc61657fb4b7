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
	"github.com/epochlab/protopack/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [targets]",
	Short: "Rebuild the requested targets whenever a schema file changes",
	Long: `Watch the schema directory and run the pipeline through build on every
change, debounced so an editor save burst triggers a single rebuild.

A failing rebuild is reported and watching continues. Stop with Ctrl-C.

Examples:
  protopack watch
  protopack watch native`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	targets, err := parseTargets(args)
	if err != nil {
		return err
	}

	versions, cache, err := loadProject()
	if err != nil {
		return err
	}

	wcfg := watcher.DefaultConfig(cfg.SchemaDir)
	if cfg.WatchDebounce > 0 {
		wcfg.DebounceDur = cfg.WatchDebounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("watching %s\n", cfg.SchemaDir)
	exec := pipeline.New(cfg, cache, newRunner(), versions, nil)
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nstopping")
			return nil
		case <-changes:
			fmt.Println("schema changed, rebuilding")
			result, err := exec.Run(ctx, pipeline.Request{Targets: targets, UpTo: stage.Build})
			if result != nil {
				printRunResult(result)
			}
			if err != nil {
				if ctx.Err() != nil {
					fmt.Println("\nstopping")
					return nil
				}
				fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
			}
		}
	}
}
