package pipeline

import (
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/stage"
)

// Status is the outcome of one stage within a run.
type Status string

const (
	StatusExecuted     Status = "executed"
	StatusSkipped      Status = "skipped-cached"
	StatusFailed       Status = "failed"
	StatusNotAttempted Status = "not-attempted"
)

// StageOutcome records what happened to one stage.
type StageOutcome struct {
	Stage  stage.Stage
	Status Status
}

// RunResult aggregates one pipeline run: which stages executed, which were
// satisfied from cache, and where the run stopped if it failed.
type RunResult struct {
	RunID    string
	Version  semver.Version
	Outcomes []StageOutcome
}

func (r *RunResult) record(s stage.Stage, status Status) {
	r.Outcomes = append(r.Outcomes, StageOutcome{Stage: s, Status: status})
}

// Executed counts stages that actually invoked their external tool.
func (r *RunResult) Executed() int { return r.count(StatusExecuted) }

// Skipped counts stages satisfied from cache.
func (r *RunResult) Skipped() int { return r.count(StatusSkipped) }

func (r *RunResult) count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
