package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/epochlab/protopack/internal/config"
	"github.com/epochlab/protopack/internal/log"
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/stage"
	"github.com/epochlab/protopack/internal/stagecache"
	"github.com/epochlab/protopack/internal/tools"
)

// VersionSource supplies the canonical version. It is read exactly once per
// run so a concurrent bump can never race an in-flight pipeline.
type VersionSource interface {
	Get() (semver.Version, error)
}

// Request describes one pipeline run.
type Request struct {
	Targets  []stage.Target
	UpTo     stage.Name
	Force    bool
	Registry string // consulted by publish stages only
}

// Executor sequences the target pipelines. Targets run serially in canonical
// order (native, scripting, web) to keep logs and failure attribution
// unambiguous; the only cross-target dependency is that scripting and web
// packaging require the native build artifact.
type Executor struct {
	cfg      config.Config
	cache    *stagecache.Cache
	runner   tools.Runner
	versions VersionSource
	env      tools.EnvLookup
}

// New creates an executor.
func New(cfg config.Config, cache *stagecache.Cache, runner tools.Runner, versions VersionSource, env tools.EnvLookup) *Executor {
	return &Executor{cfg: cfg, cache: cache, runner: runner, versions: versions, env: env}
}

// Run executes the requested targets through the requested terminal stage.
// Execution stops at the first stage failure; later targets are reported as
// not attempted. The returned result is valid even when err is non-nil.
func (e *Executor) Run(ctx context.Context, req Request) (*RunResult, error) {
	v, err := e.versions.Get()
	if err != nil {
		return nil, err
	}

	names, err := stage.Through(req.UpTo)
	if err != nil {
		return nil, err
	}

	targets := orderTargets(req.Targets)
	result := &RunResult{RunID: uuid.NewString(), Version: v}

	log.Info(log.CatPipeline, "run starting",
		"run", result.RunID, "version", v, "upTo", req.UpTo, "force", req.Force)

	if req.Force {
		for _, t := range targets {
			for _, n := range names {
				if err := e.cache.Invalidate(ctx, stage.Stage{Target: t, Name: n}); err != nil {
					return result, err
				}
			}
		}
	}

	for i, t := range targets {
		if needsNativeBuild(t, names) {
			if err := e.ensureNativeBuilt(ctx, v, result); err != nil {
				e.recordNotAttempted(result, targets[i:], names, 0)
				return result, err
			}
		}

		driver := NewDriver(t, e.cfg, e.cache, e.runner, e.env)
		before := len(result.Outcomes)
		if err := driver.RunStages(ctx, names, v, result.RunID, req.Registry, result); err != nil {
			recorded := len(result.Outcomes) - before
			e.recordNotAttempted(result, targets[i:], names, recorded)
			return result, err
		}
	}

	log.Info(log.CatPipeline, "run finished",
		"run", result.RunID, "executed", result.Executed(), "skipped", result.Skipped())
	return result, nil
}

// needsNativeBuild reports whether running names for target t assumes the
// native build artifact exists.
func needsNativeBuild(t stage.Target, names []stage.Name) bool {
	if t == stage.Native {
		return false
	}
	for _, n := range names {
		if n == stage.Package {
			return true
		}
	}
	return false
}

// ensureNativeBuilt triggers the native pipeline up through build when its
// build marker is not valid for the current version. This is the single-level
// dependency injection of the fixed topology, not a general graph walk.
func (e *Executor) ensureNativeBuilt(ctx context.Context, v semver.Version, result *RunResult) error {
	buildStage := stage.Stage{Target: stage.Native, Name: stage.Build}

	sc, err := e.cfg.Stage(buildStage)
	if err != nil {
		return &StageError{Stage: buildStage, Err: err}
	}
	done, err := e.cache.IsComplete(ctx, buildStage, v, sc.Artifacts)
	if err != nil {
		return &StageError{Stage: buildStage, Err: err}
	}
	if done {
		return nil
	}

	log.Info(log.CatPipeline, "native build required by dependent target", "version", v)

	names, err := stage.Through(stage.Build)
	if err != nil {
		return err
	}
	driver := NewDriver(stage.Native, e.cfg, e.cache, e.runner, e.env)
	return driver.RunStages(ctx, names, v, result.RunID, "", result)
}

// recordNotAttempted fills the result with the stages the aborted run never
// reached: the current target's remainder (the failed stage is already
// recorded), then every later target in full.
func (e *Executor) recordNotAttempted(result *RunResult, remaining []stage.Target, names []stage.Name, recordedForCurrent int) {
	if len(remaining) == 0 {
		return
	}

	if recordedForCurrent < len(names) {
		for _, n := range names[recordedForCurrent:] {
			result.record(stage.Stage{Target: remaining[0], Name: n}, StatusNotAttempted)
		}
	}

	for _, t := range remaining[1:] {
		for _, n := range names {
			result.record(stage.Stage{Target: t, Name: n}, StatusNotAttempted)
		}
	}
}

// orderTargets dedupes the requested targets and fixes their execution order
// to the canonical one.
func orderTargets(requested []stage.Target) []stage.Target {
	want := make(map[stage.Target]bool, len(requested))
	for _, t := range requested {
		want[t] = true
	}

	var out []stage.Target
	for _, t := range stage.Targets() {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}
