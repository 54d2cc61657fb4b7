// Package version owns the canonical release version record. Every
// per-ecosystem manifest and every stage marker is reconciled against the
// value stored here.
package version

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/epochlab/protopack/internal/log"
	"github.com/epochlab/protopack/internal/semver"
)

// RecordFile is the canonical version record, one bare X.Y.Z line at the
// project root.
const RecordFile = "VERSION"

// ConfigError reports a missing or malformed canonical version record.
// It is fatal before any stage runs; the registry never silently defaults,
// since a default could diverge from what the manifests already carry.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("version record %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Registry reads and writes the canonical version record.
type Registry struct {
	root string
}

// NewRegistry creates a registry rooted at the project directory.
func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

// Path returns the absolute path of the version record.
func (r *Registry) Path() string {
	return filepath.Join(r.root, RecordFile)
}

// Get reads the persisted canonical version.
func (r *Registry) Get() (semver.Version, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		return semver.Version{}, &ConfigError{Path: r.Path(), Err: err}
	}

	v, err := semver.Parse(string(data))
	if err != nil {
		return semver.Version{}, &ConfigError{Path: r.Path(), Err: err}
	}
	return v, nil
}

// Set persists a new canonical version atomically (write-to-temp-then-rename,
// so a crash mid-write never leaves a partial record) and returns the previous
// version for the caller to log. The previous version is zero when no record
// existed yet.
func (r *Registry) Set(v semver.Version) (semver.Version, error) {
	previous, err := r.Get()
	if err != nil {
		// A missing record is fine on first set; a malformed one is not,
		// but set is the only way to repair it, so both proceed.
		previous = semver.Version{}
	}

	dir := filepath.Dir(r.Path())
	temp, err := os.CreateTemp(dir, ".VERSION.tmp.*")
	if err != nil {
		return semver.Version{}, fmt.Errorf("creating temp version record: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(v.String() + "\n"); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return semver.Version{}, fmt.Errorf("writing temp version record: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return semver.Version{}, fmt.Errorf("closing temp version record: %w", err)
	}

	if err := os.Rename(tempPath, r.Path()); err != nil {
		_ = os.Remove(tempPath)
		return semver.Version{}, fmt.Errorf("renaming temp version record: %w", err)
	}

	log.Info(log.CatVersion, "version record updated", "previous", previous, "current", v)
	return previous, nil
}

// Bump computes the next version for the given kind and persists it.
func (r *Registry) Bump(kind semver.BumpKind) (semver.Version, error) {
	current, err := r.Get()
	if err != nil {
		return semver.Version{}, err
	}

	next, err := current.Bump(kind)
	if err != nil {
		return semver.Version{}, err
	}

	if _, err := r.Set(next); err != nil {
		return semver.Version{}, err
	}
	return next, nil
}
