package tools

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/epochlab/protopack/internal/stage"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on POSIX sh")
	}
}

func TestExecRunner_Success(t *testing.T) {
	skipWithoutShell(t)

	var stdout, stderr bytes.Buffer
	r := &ExecRunner{Stdout: &stdout, Stderr: &stderr}

	err := r.Run(context.Background(), Invocation{
		Name: "sh", Args: []string{"-c", "echo hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello\n", stdout.String())
}

func TestExecRunner_FailureCarriesStderr(t *testing.T) {
	skipWithoutShell(t)

	var stdout, stderr bytes.Buffer
	r := &ExecRunner{Stdout: &stdout, Stderr: &stderr}

	err := r.Run(context.Background(), Invocation{
		Name: "sh", Args: []string{"-c", "echo broken generator >&2; exit 3"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken generator")
	// Diagnostics also reach the live stream unmodified.
	require.Contains(t, stderr.String(), "broken generator")
}

func TestExecRunner_RespectsDirAndEnv(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	var stdout bytes.Buffer
	r := &ExecRunner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	err := r.Run(context.Background(), Invocation{
		Dir:  dir,
		Name: "sh",
		Args: []string{"-c", "pwd; printf '%s\n' \"$PROTOPACK_TEST_VAR\""},
		Env:  []string{"PROTOPACK_TEST_VAR=wired"},
	})
	require.NoError(t, err)
	require.Contains(t, stdout.String(), dir)
	require.Contains(t, stdout.String(), "wired")
}

func TestExecRunner_Cancellation(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	r := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	err := r.Run(ctx, Invocation{Name: "sh", Args: []string{"-c", "sleep 10"}})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecRunner_EmptyCommand(t *testing.T) {
	r := NewExecRunner()
	require.Error(t, r.Run(context.Background(), Invocation{}))
}

func TestCheckPrerequisites_AllPresent(t *testing.T) {
	skipWithoutShell(t)
	errs := CheckPrerequisites(stage.Native, []string{"sh", "sh", ""})
	require.Empty(t, errs)
}

func TestCheckPrerequisites_ReportsEveryMissingTool(t *testing.T) {
	errs := CheckPrerequisites(stage.Web, []string{"definitely-not-a-tool-a", "definitely-not-a-tool-b"})
	require.Len(t, errs, 2)

	var prereqErr *PrerequisiteError
	require.True(t, errors.As(errs[0], &prereqErr))
	require.Equal(t, stage.Web, prereqErr.Target)
}

func TestCheckCredentials_Present(t *testing.T) {
	lookup := func(key string) (string, bool) {
		return "secret", true
	}
	err := CheckCredentials(stage.Scripting, "production", []string{"TWINE_USERNAME", "TWINE_PASSWORD"}, lookup)
	require.NoError(t, err)
}

func TestCheckCredentials_MissingAndEmptyReported(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "NPM_TOKEN" {
			return "", true // present but empty counts as missing
		}
		return "", false
	}
	err := CheckCredentials(stage.Web, "production", []string{"NPM_TOKEN", "NPM_REGISTRY_USER"}, lookup)
	require.Error(t, err)

	var credErr *CredentialError
	require.True(t, errors.As(err, &credErr))
	require.Equal(t, []string{"NPM_TOKEN", "NPM_REGISTRY_USER"}, credErr.Missing)
	require.Equal(t, "production", credErr.Registry)
}

func TestCheckCredentials_NoneRequired(t *testing.T) {
	require.NoError(t, CheckCredentials(stage.Native, "test", nil, nil))
}
