package presentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/epochlab/protopack/internal/manifest"
	"github.com/epochlab/protopack/internal/pipeline"
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/stage"
	"github.com/epochlab/protopack/internal/stagecache"
)

func TestFromMarkers_SortedByStage(t *testing.T) {
	markers := map[string]stagecache.Marker{
		"web-build":       {Stage: "web-build", Version: "1.0.0", Completed: true},
		"native-generate": {Stage: "native-generate", Version: "1.0.0", Completed: true, CompletedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	dtos := FromMarkers(markers)
	require.Len(t, dtos, 2)
	require.Equal(t, "native-generate", dtos[0].Stage)
	require.Equal(t, "2026-01-02T03:04:05Z", dtos[0].CompletedAt)
	require.Equal(t, "web-build", dtos[1].Stage)
	require.Empty(t, dtos[1].CompletedAt)
}

func TestFromManifestEntries(t *testing.T) {
	entries := []manifest.StatusEntry{
		{Manifest: manifest.Manifest{Path: "js/package.json", Kind: manifest.KindWebPackage}, Version: "1.0.0"},
		{Manifest: manifest.Manifest{Path: "python/setup.py", Kind: manifest.KindScriptingPackage}, Missing: true},
		{Manifest: manifest.Manifest{Path: "CMakeLists.txt", Kind: manifest.KindNativeBuild}, Err: errors.New("no version field matched")},
	}

	dtos := FromManifestEntries(entries)
	require.Equal(t, "1.0.0", dtos[0].Version)
	require.True(t, dtos[1].Missing)
	require.Contains(t, dtos[2].Error, "no version field")
}

func TestFromRunResult(t *testing.T) {
	r := &pipeline.RunResult{
		RunID:   "run-1",
		Version: semver.Version{Major: 1, Minor: 2, Patch: 3},
		Outcomes: []pipeline.StageOutcome{
			{Stage: stage.Stage{Target: stage.Native, Name: stage.Generate}, Status: pipeline.StatusExecuted},
			{Stage: stage.Stage{Target: stage.Native, Name: stage.Package}, Status: pipeline.StatusSkipped},
		},
	}

	dto := FromRunResult(r)
	require.Equal(t, "1.2.3", dto.Version)
	require.Equal(t, 1, dto.Executed)
	require.Equal(t, 1, dto.Skipped)
	require.Equal(t, "native-generate", dto.Outcomes[0].Stage)
	require.Equal(t, "skipped-cached", dto.Outcomes[1].Status)
}

func TestFormatter_EmitsIndentedJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)

	require.NoError(t, f.FormatChecks([]CheckDTO{{Target: "native", Ready: true}}))

	var decoded []CheckDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "native", decoded[0].Target)
	require.Contains(t, buf.String(), "\n  ")
}
