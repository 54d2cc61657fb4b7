package tools

import (
	"fmt"
	"os/exec"
	"sort"

	"github.com/epochlab/protopack/internal/stage"
)

// PrerequisiteError reports a required external tool that is not on PATH.
// It is fatal for the affected target only; check-style commands aggregate
// these across targets instead of aborting on the first.
type PrerequisiteError struct {
	Target stage.Target
	Tool   string
	Err    error
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("target %s: required tool %q not found: %v", e.Target, e.Tool, e.Err)
}

func (e *PrerequisiteError) Unwrap() error { return e.Err }

// CheckPrerequisites verifies every named tool resolves on PATH. It returns
// one error per missing tool rather than failing fast, so a check command can
// report the full picture for a target.
func CheckPrerequisites(target stage.Target, toolNames []string) []error {
	seen := make(map[string]bool, len(toolNames))
	unique := make([]string, 0, len(toolNames))
	for _, name := range toolNames {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	sort.Strings(unique)

	var errs []error
	for _, name := range unique {
		if _, err := exec.LookPath(name); err != nil {
			errs = append(errs, &PrerequisiteError{Target: target, Tool: name, Err: err})
		}
	}
	return errs
}
