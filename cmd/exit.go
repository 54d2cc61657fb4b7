package cmd

import (
	"errors"

	"github.com/epochlab/protopack/internal/manifest"
	"github.com/epochlab/protopack/internal/pipeline"
	"github.com/epochlab/protopack/internal/tools"
	"github.com/epochlab/protopack/internal/version"
)

// Exit codes returned by the protopack CLI.
// These constants allow external tools and CI scripts to check exit codes
// symbolically rather than using magic numbers.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitStageFailure indicates an external tool failed during a stage.
	ExitStageFailure = 1

	// ExitConfigError indicates a missing or malformed version record or
	// project configuration.
	ExitConfigError = 2

	// ExitPrerequisite indicates a required external tool is not installed.
	ExitPrerequisite = 3

	// ExitCredentials indicates a publish was attempted without registry
	// credentials.
	ExitCredentials = 4

	// ExitManifestSync indicates a manifest version write did not verify.
	ExitManifestSync = 5

	// ExitAborted indicates the user declined an interactive confirmation.
	ExitAborted = 130
)

// ErrAborted is returned when the user declines a confirmation prompt.
var ErrAborted = errors.New("aborted by user")

// ExitCode maps an error from Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrAborted) {
		return ExitAborted
	}

	var (
		cfgErr    *version.ConfigError
		prereqErr *tools.PrerequisiteError
		credErr   *tools.CredentialError
		syncErr   *manifest.SyncError
		stageErr  *pipeline.StageError
	)
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &prereqErr):
		return ExitPrerequisite
	case errors.As(err, &credErr):
		return ExitCredentials
	case errors.As(err, &syncErr):
		return ExitManifestSync
	case errors.As(err, &stageErr):
		return ExitStageFailure
	default:
		return ExitStageFailure
	}
}
