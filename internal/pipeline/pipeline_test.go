package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/epochlab/protopack/internal/config"
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/stage"
	"github.com/epochlab/protopack/internal/stagecache"
	"github.com/epochlab/protopack/internal/tools"
	"github.com/epochlab/protopack/internal/version"
)

// fakeRunner records invocations instead of executing tools. Stage commands
// in the test config encode (target, stage) as their two arguments.
type fakeRunner struct {
	calls  []string
	failOn string
	onRun  func(inv tools.Invocation)
}

func (f *fakeRunner) Run(ctx context.Context, inv tools.Invocation) error {
	key := strings.Join(inv.Args[:2], "-")
	f.calls = append(f.calls, key)
	if f.onRun != nil {
		f.onRun(inv)
	}
	if f.failOn != "" && key == f.failOn {
		return fmt.Errorf("tool exploded")
	}
	return nil
}

type fixture struct {
	cfg      config.Config
	cache    *stagecache.Cache
	runner   *fakeRunner
	registry *version.Registry
	env      map[string]string
	exec     *Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	targets := make(map[string]config.TargetConfig, 3)
	for _, tgt := range stage.Targets() {
		stages := make(map[string]config.StageConfig, 5)
		for _, n := range stage.Names() {
			stages[string(n)] = config.StageConfig{
				Command: []string{"ptool", string(tgt), string(n)},
			}
		}
		tc := config.TargetConfig{Stages: stages}
		if tgt == stage.Scripting {
			tc.Credentials = []string{"TWINE_USERNAME", "TWINE_PASSWORD"}
			tc.PublishArgs = map[string][]string{
				config.RegistryTest: {"--repository", "testpypi"},
			}
		}
		targets[string(tgt)] = tc
	}

	cfg := config.Config{
		SchemaDir: "proto",
		MarkerDir: filepath.Join(root, "markers"),
		Targets:   targets,
	}
	require.NoError(t, cfg.Validate())

	cache, err := stagecache.New(cfg.MarkerDir)
	require.NoError(t, err)

	reg := version.NewRegistry(root)
	_, err = reg.Set(semver.Version{Major: 1})
	require.NoError(t, err)

	f := &fixture{
		cfg:      cfg,
		cache:    cache,
		runner:   &fakeRunner{},
		registry: reg,
		env:      map[string]string{},
	}
	f.exec = New(cfg, cache, f.runner, reg, func(key string) (string, bool) {
		v, ok := f.env[key]
		return v, ok
	})
	return f
}

func (f *fixture) run(t *testing.T, req Request) *RunResult {
	t.Helper()
	result, err := f.exec.Run(context.Background(), req)
	require.NoError(t, err)
	return result
}

func allTargets() []stage.Target {
	return stage.Targets()
}

func TestRun_BuildAll_ExecutesInCanonicalOrder(t *testing.T) {
	f := newFixture(t)

	result := f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})

	require.Equal(t, []string{
		"native-generate", "native-package", "native-build",
		"scripting-generate", "scripting-package", "scripting-build",
		"web-generate", "web-package", "web-build",
	}, f.runner.calls)
	require.Equal(t, 9, result.Executed())
	require.Zero(t, result.Skipped())
}

func TestRun_SecondBuildIsFullyCached(t *testing.T) {
	f := newFixture(t)

	f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})
	f.runner.calls = nil

	result := f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})
	require.Empty(t, f.runner.calls, "second build must perform zero tool invocations")
	require.Equal(t, 9, result.Skipped())
	require.Zero(t, result.Executed())
}

func TestRun_BumpInvalidatesEveryMarker(t *testing.T) {
	f := newFixture(t)

	f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})
	f.runner.calls = nil

	_, err := f.registry.Bump(semver.BumpMinor)
	require.NoError(t, err)

	result := f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})
	require.Len(t, f.runner.calls, 9, "every stage must re-execute after a bump")
	require.Equal(t, "1.1.0", result.Version.String())
}

func TestRun_ScriptingTriggersNativeBuildFirst(t *testing.T) {
	f := newFixture(t)

	result := f.run(t, Request{Targets: []stage.Target{stage.Scripting}, UpTo: stage.Build})

	require.Equal(t, []string{
		"native-generate", "native-package", "native-build",
		"scripting-generate", "scripting-package", "scripting-build",
	}, f.runner.calls)
	require.Equal(t, 6, result.Executed())
}

func TestRun_NativeAlreadyBuilt_NoTransitiveTrigger(t *testing.T) {
	f := newFixture(t)

	f.run(t, Request{Targets: []stage.Target{stage.Native}, UpTo: stage.Build})
	f.runner.calls = nil

	f.run(t, Request{Targets: []stage.Target{stage.Web}, UpTo: stage.Build})
	require.Equal(t, []string{"web-generate", "web-package", "web-build"}, f.runner.calls)
}

func TestRun_GenerateOnlyHasNoNativeDependency(t *testing.T) {
	f := newFixture(t)

	f.run(t, Request{Targets: []stage.Target{stage.Web}, UpTo: stage.Generate})
	require.Equal(t, []string{"web-generate"}, f.runner.calls)
}

func TestRun_ForceReexecutesAndRestamps(t *testing.T) {
	f := newFixture(t)

	f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})
	f.runner.calls = nil

	result := f.run(t, Request{Targets: allTargets(), UpTo: stage.Build, Force: true})
	require.Len(t, f.runner.calls, 9)
	require.Equal(t, 9, result.Executed())

	snap, err := f.cache.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "1.0.0", snap["web-build"].Version)
}

func TestRun_FailureStopsRunAndWritesNoMarker(t *testing.T) {
	f := newFixture(t)
	f.runner.failOn = "native-build"

	result, err := f.exec.Run(context.Background(), Request{Targets: allTargets(), UpTo: stage.Build})
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	require.Equal(t, stage.Stage{Target: stage.Native, Name: stage.Build}, stageErr.Stage)

	// Execution stopped at the failure; dependents were not attempted.
	require.Equal(t, []string{"native-generate", "native-package", "native-build"}, f.runner.calls)

	// No marker for the failed stage; earlier stages keep theirs.
	snap, snapErr := f.cache.Snapshot()
	require.NoError(t, snapErr)
	_, ok := snap["native-build"]
	require.False(t, ok)
	require.True(t, snap["native-generate"].Completed)

	// The result reports the full picture.
	statuses := make(map[string]Status, len(result.Outcomes))
	for _, o := range result.Outcomes {
		statuses[o.Stage.Key()] = o.Status
	}
	require.Equal(t, StatusFailed, statuses["native-build"])
	require.Equal(t, StatusNotAttempted, statuses["scripting-generate"])
	require.Equal(t, StatusNotAttempted, statuses["web-build"])
}

func TestRun_EarlierStagesStayCachedAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.failOn = "native-build"

	_, err := f.exec.Run(context.Background(), Request{Targets: allTargets(), UpTo: stage.Build})
	require.Error(t, err)

	// Retry after the tool is fixed: generate and package are served from
	// cache, only build re-runs (then the dependents proceed).
	f.runner.failOn = ""
	f.runner.calls = nil

	result := f.run(t, Request{Targets: allTargets(), UpTo: stage.Build})
	require.Equal(t, []string{
		"native-build",
		"scripting-generate", "scripting-package", "scripting-build",
		"web-generate", "web-package", "web-build",
	}, f.runner.calls)
	require.Equal(t, 2, result.Skipped())
}

func TestRun_PublishWithoutCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec.Run(context.Background(), Request{
		Targets:  []stage.Target{stage.Scripting},
		UpTo:     stage.Publish,
		Registry: config.RegistryProduction,
	})
	require.Error(t, err)

	var credErr *tools.CredentialError
	require.True(t, errors.As(err, &credErr), "want CredentialError, got %T", err)
	require.Equal(t, stage.Scripting, credErr.Target)

	// The publish tool never ran and no publish marker exists.
	require.NotContains(t, f.runner.calls, "scripting-publish")
	snap, snapErr := f.cache.Snapshot()
	require.NoError(t, snapErr)
	_, ok := snap["scripting-publish"]
	require.False(t, ok)
}

func TestRun_PublishAppendsRegistryArgs(t *testing.T) {
	f := newFixture(t)
	f.env["TWINE_USERNAME"] = "__token__"
	f.env["TWINE_PASSWORD"] = "secret"

	var publishArgs []string
	f.runner.onRun = func(inv tools.Invocation) {
		if strings.Join(inv.Args[:2], "-") == "scripting-publish" {
			publishArgs = inv.Args
		}
	}

	f.run(t, Request{
		Targets:  []stage.Target{stage.Scripting},
		UpTo:     stage.Publish,
		Registry: config.RegistryTest,
	})
	require.Contains(t, publishArgs, "testpypi")
}

func TestRun_ArtifactLossForcesReexecution(t *testing.T) {
	f := newFixture(t)

	artifact := filepath.Join(t.TempDir(), "libepoch_protos.a")
	tc := f.cfg.Targets["native"]
	sc := tc.Stages["build"]
	sc.Artifacts = []string{artifact}
	tc.Stages["build"] = sc
	f.cfg.Targets["native"] = tc
	f.exec = New(f.cfg, f.cache, f.runner, f.registry, nil)

	f.runner.onRun = func(inv tools.Invocation) {
		if strings.Join(inv.Args[:2], "-") == "native-build" {
			require.NoError(t, os.WriteFile(artifact, []byte("lib"), 0644))
		}
	}

	f.run(t, Request{Targets: []stage.Target{stage.Native}, UpTo: stage.Build})
	require.NoError(t, os.Remove(artifact))
	f.runner.calls = nil

	f.run(t, Request{Targets: []stage.Target{stage.Native}, UpTo: stage.Build})
	require.Contains(t, f.runner.calls, "native-build")
}

func TestRun_MissingVersionRecordIsConfigError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.registry.Path()))

	_, err := f.exec.Run(context.Background(), Request{Targets: allTargets(), UpTo: stage.Build})
	require.Error(t, err)

	var cfgErr *version.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Empty(t, f.runner.calls, "no stage may run without a canonical version")
}

func TestRun_DuplicateTargetsDeduped(t *testing.T) {
	f := newFixture(t)

	f.run(t, Request{
		Targets: []stage.Target{stage.Native, stage.Native},
		UpTo:    stage.Generate,
	})
	require.Equal(t, []string{"native-generate"}, f.runner.calls)
}

func TestRun_ResultCarriesRunID(t *testing.T) {
	f := newFixture(t)

	result := f.run(t, Request{Targets: []stage.Target{stage.Native}, UpTo: stage.Generate})
	require.NotEmpty(t, result.RunID)

	snap, err := f.cache.Snapshot()
	require.NoError(t, err)
	require.Equal(t, result.RunID, snap["native-generate"].RunID)
	require.WithinDuration(t, time.Now().UTC(), snap["native-generate"].CompletedAt, time.Minute)
}
