// Package presentation converts internal pipeline state into the JSON shapes
// the CLI prints, keeping output stable even when internal types move.
package presentation

import (
	"sort"
	"time"

	"github.com/epochlab/protopack/internal/manifest"
	"github.com/epochlab/protopack/internal/pipeline"
	"github.com/epochlab/protopack/internal/stagecache"
)

// StageStatusDTO is one persisted stage marker.
type StageStatusDTO struct {
	Stage       string `json:"stage"`
	Version     string `json:"version"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completed_at,omitempty"`
	RunID       string `json:"run_id,omitempty"`
}

// ManifestStatusDTO is one manifest's observed version.
type ManifestStatusDTO struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Version string `json:"version,omitempty"`
	Missing bool   `json:"missing,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProjectStatusDTO aggregates the status command's output.
type ProjectStatusDTO struct {
	Version   string              `json:"version"`
	Stages    []StageStatusDTO    `json:"stages"`
	Manifests []ManifestStatusDTO `json:"manifests,omitempty"`
}

// CheckDTO is one target's prerequisite report.
type CheckDTO struct {
	Target  string   `json:"target"`
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing,omitempty"`
}

// OutcomeDTO is one stage outcome within a run.
type OutcomeDTO struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
}

// RunResultDTO summarizes one pipeline run.
type RunResultDTO struct {
	RunID    string       `json:"run_id"`
	Version  string       `json:"version"`
	Executed int          `json:"executed"`
	Skipped  int          `json:"skipped"`
	Outcomes []OutcomeDTO `json:"outcomes"`
}

// FromMarkers converts a marker snapshot, sorted by stage key for stable
// output.
func FromMarkers(markers map[string]stagecache.Marker) []StageStatusDTO {
	keys := make([]string, 0, len(markers))
	for k := range markers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]StageStatusDTO, 0, len(keys))
	for _, k := range keys {
		m := markers[k]
		dto := StageStatusDTO{
			Stage:     m.Stage,
			Version:   m.Version,
			Completed: m.Completed,
			RunID:     m.RunID,
		}
		if !m.CompletedAt.IsZero() {
			dto.CompletedAt = m.CompletedAt.Format(time.RFC3339)
		}
		out = append(out, dto)
	}
	return out
}

// FromManifestEntries converts manifest status entries.
func FromManifestEntries(entries []manifest.StatusEntry) []ManifestStatusDTO {
	out := make([]ManifestStatusDTO, 0, len(entries))
	for _, e := range entries {
		dto := ManifestStatusDTO{
			Path:    e.Manifest.Path,
			Kind:    string(e.Manifest.Kind),
			Version: e.Version,
			Missing: e.Missing,
		}
		if e.Err != nil {
			dto.Error = e.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}

// FromRunResult converts a pipeline run result.
func FromRunResult(r *pipeline.RunResult) RunResultDTO {
	dto := RunResultDTO{
		RunID:    r.RunID,
		Version:  r.Version.String(),
		Executed: r.Executed(),
		Skipped:  r.Skipped(),
		Outcomes: make([]OutcomeDTO, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		dto.Outcomes = append(dto.Outcomes, OutcomeDTO{Stage: o.Stage.Key(), Status: string(o.Status)})
	}
	return dto
}
