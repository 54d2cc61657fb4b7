// Package tools invokes the external programs the pipeline drives: the schema
// compiler, per-ecosystem build tools, and registry publishers. Tools are run
// synchronously, their exit status is the only success signal, and there are
// no retries.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/epochlab/protopack/internal/log"
)

// Invocation describes one external command.
type Invocation struct {
	Dir  string
	Name string
	Args []string
	Env  []string // extra KEY=VALUE entries appended to the inherited environment
}

func (i Invocation) String() string {
	return strings.Join(append([]string{i.Name}, i.Args...), " ")
}

// Runner executes external commands. The pipeline depends on this interface
// so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// Compile-time check that ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner runs commands via os/exec, streaming output to the parent's
// stdout/stderr so tool diagnostics reach the user unmodified.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner wired to the process's own streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the invocation and blocks until it exits. On cancellation the
// child receives an interrupt first, so it can clean up before being killed.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	if inv.Name == "" {
		return fmt.Errorf("empty command")
	}

	//nolint:gosec // G204: commands come from the project configuration, not remote input
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	// Keep a tail of stderr so failures carry the tool's own diagnostic.
	var stderr bytes.Buffer
	cmd.Stdout = r.Stdout
	cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)

	log.Debug(log.CatTool, "running tool", "command", inv.String(), "dir", inv.Dir)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", inv.Name, ctx.Err())
		}
		if stderr.Len() > 0 {
			return fmt.Errorf("%s failed: %s", inv.Name, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("%s failed: %w", inv.Name, err)
	}
	return nil
}
