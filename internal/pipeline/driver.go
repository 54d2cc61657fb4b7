package pipeline

import (
	"context"

	"github.com/epochlab/protopack/internal/config"
	"github.com/epochlab/protopack/internal/log"
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/stage"
	"github.com/epochlab/protopack/internal/stagecache"
	"github.com/epochlab/protopack/internal/tools"
)

// Driver runs one target's stages in order. Each stage is gated by the stage
// cache and by a validated state transition; a cache hit advances the state
// without invoking the tool, and a tool failure aborts the run with no marker
// written.
type Driver struct {
	target stage.Target
	cfg    config.Config
	cache  *stagecache.Cache
	runner tools.Runner
	env    tools.EnvLookup

	state stage.State
}

// NewDriver creates a driver for one target, starting from NotStarted.
func NewDriver(target stage.Target, cfg config.Config, cache *stagecache.Cache, runner tools.Runner, env tools.EnvLookup) *Driver {
	return &Driver{
		target: target,
		cfg:    cfg,
		cache:  cache,
		runner: runner,
		env:    env,
		state:  stage.NotStarted,
	}
}

// State returns the driver's current pipeline state.
func (d *Driver) State() stage.State {
	return d.state
}

// RunStages executes the given stages in order against the fixed run version,
// recording every outcome. registry is only consulted by publish stages.
func (d *Driver) RunStages(ctx context.Context, names []stage.Name, v semver.Version, runID, registry string, result *RunResult) error {
	for _, n := range names {
		s := stage.Stage{Target: d.target, Name: n}

		sc, err := d.cfg.Stage(s)
		if err != nil {
			result.record(s, StatusFailed)
			return &StageError{Stage: s, Err: err}
		}

		done, err := d.cache.IsComplete(ctx, s, v, sc.Artifacts)
		if err != nil {
			result.record(s, StatusFailed)
			return &StageError{Stage: s, Err: err}
		}
		if done {
			next, err := stage.StateAfter(n)
			if err != nil {
				return &StageError{Stage: s, Err: err}
			}
			d.state = next
			result.record(s, StatusSkipped)
			log.Info(log.CatPipeline, "stage skipped, cached", "stage", s.Key(), "version", v)
			continue
		}

		next, err := stage.Transition(d.state, n)
		if err != nil {
			result.record(s, StatusFailed)
			return &StageError{Stage: s, Err: err}
		}

		// Publish needs registry credentials before the tool ever runs.
		if n == stage.Publish {
			required := d.cfg.Targets[string(d.target)].Credentials
			if err := tools.CheckCredentials(d.target, registry, required, d.env); err != nil {
				result.record(s, StatusFailed)
				return err
			}
		}

		inv, err := d.cfg.Invocation(s, registry)
		if err != nil {
			result.record(s, StatusFailed)
			return &StageError{Stage: s, Err: err}
		}

		log.Info(log.CatPipeline, "stage executing", "stage", s.Key(), "command", inv.String())
		if err := d.runner.Run(ctx, inv); err != nil {
			result.record(s, StatusFailed)
			return &StageError{Stage: s, Err: err}
		}

		if err := d.cache.MarkComplete(ctx, s, v, runID); err != nil {
			result.record(s, StatusFailed)
			return &StageError{Stage: s, Err: err}
		}

		d.state = next
		result.record(s, StatusExecuted)
	}
	return nil
}
