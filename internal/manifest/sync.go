package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/epochlab/protopack/internal/log"
	"github.com/epochlab/protopack/internal/semver"
)

// SyncError reports a manifest whose version field did not verify after a
// rewrite.
type SyncError struct {
	Path     string
	Expected string
	Found    string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("manifest %s: wrote version %s but found %s on re-read", e.Path, e.Expected, e.Found)
}

// StatusEntry is one manifest's observed state, used by status reporting.
type StatusEntry struct {
	Manifest Manifest
	Version  string
	Missing  bool
	Err      error
}

// Synchronizer applies the canonical version to every registered manifest.
type Synchronizer struct {
	manifests []Manifest
}

// NewSynchronizer creates a synchronizer over the registered manifests.
func NewSynchronizer(manifests []Manifest) *Synchronizer {
	return &Synchronizer{manifests: manifests}
}

// SyncAll writes the version into every registered manifest and verifies each
// write by re-reading the file. Manifests are synced independently: a failure
// does not roll back manifests already synced, and every failure is reported.
// A manifest file that does not exist is skipped with a warning - ecosystems
// the user has not set up are optional.
func (s *Synchronizer) SyncAll(v semver.Version) error {
	var errs []error
	for _, m := range s.manifests {
		if err := s.syncOne(m, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Synchronizer) syncOne(m Manifest, v semver.Version) error {
	info, err := os.Stat(m.Path)
	if os.IsNotExist(err) {
		log.Warn(log.CatManifest, "manifest missing, skipping", "path", m.Path, "kind", m.Kind)
		return nil
	}
	if err != nil {
		return fmt.Errorf("manifest %s: %w", m.Path, err)
	}

	content, err := os.ReadFile(m.Path)
	if err != nil {
		return fmt.Errorf("reading manifest %s: %w", m.Path, err)
	}

	// Once the file exists, an unlocatable field is a hard error.
	current, err := extract(m.Kind, content)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", m.Path, err)
	}

	updated, err := rewrite(m.Kind, content, v.String())
	if err != nil {
		return fmt.Errorf("manifest %s: %w", m.Path, err)
	}

	if err := os.WriteFile(m.Path, updated, info.Mode()); err != nil {
		return fmt.Errorf("writing manifest %s: %w", m.Path, err)
	}

	// Verify the write round-trips through the same rule.
	reread, err := os.ReadFile(m.Path)
	if err != nil {
		return fmt.Errorf("re-reading manifest %s: %w", m.Path, err)
	}
	found, err := extract(m.Kind, reread)
	if err != nil {
		return &SyncError{Path: m.Path, Expected: v.String(), Found: "<unlocatable>"}
	}
	if found != v.String() {
		return &SyncError{Path: m.Path, Expected: v.String(), Found: found}
	}

	log.Info(log.CatManifest, "manifest synced",
		"path", m.Path, "kind", m.Kind, "previous", current, "current", v)
	return nil
}

// Status reads every registered manifest's version field without mutating
// anything.
func (s *Synchronizer) Status() []StatusEntry {
	entries := make([]StatusEntry, 0, len(s.manifests))
	for _, m := range s.manifests {
		entry := StatusEntry{Manifest: m}

		content, err := os.ReadFile(m.Path)
		if os.IsNotExist(err) {
			entry.Missing = true
			entries = append(entries, entry)
			continue
		}
		if err != nil {
			entry.Err = err
			entries = append(entries, entry)
			continue
		}

		v, err := extract(m.Kind, content)
		if err != nil {
			entry.Err = err
		} else {
			entry.Version = v
		}
		entries = append(entries, entry)
	}
	return entries
}
