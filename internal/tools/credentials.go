package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/epochlab/protopack/internal/stage"
)

// CredentialError reports a publish attempted without required registry
// credentials. It is distinct from a stage failure so the user is told to add
// credentials rather than chase a broken build.
type CredentialError struct {
	Target   stage.Target
	Registry string
	Missing  []string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("target %s: publish to %s requires environment variables: %s",
		e.Target, e.Registry, strings.Join(e.Missing, ", "))
}

// EnvLookup abstracts os.LookupEnv for tests.
type EnvLookup func(key string) (string, bool)

// CheckCredentials verifies every required credential variable is present and
// non-empty. The variable contents are opaque to the pipeline; only presence
// matters.
func CheckCredentials(target stage.Target, registry string, required []string, lookup EnvLookup) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	for _, key := range required {
		if v, ok := lookup(key); !ok || v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &CredentialError{Target: target, Registry: registry, Missing: missing}
	}
	return nil
}
