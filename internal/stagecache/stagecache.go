// Package stagecache persists one completion marker per (target, stage) so
// repeated invocations skip work already done for the current version. A
// marker is only trusted when its recorded version matches the canonical one
// and the stage's expected artifacts are still present on disk.
package stagecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/epochlab/protopack/internal/cachemanager"
	"github.com/epochlab/protopack/internal/log"
	"github.com/epochlab/protopack/internal/semver"
	"github.com/epochlab/protopack/internal/stage"
)

const markerSuffix = ".yaml"

// Marker records that a stage succeeded for a given version. Exactly one
// marker exists per stage; each new attempt overwrites it.
type Marker struct {
	Stage       string    `yaml:"stage"`
	Version     string    `yaml:"version"`
	Completed   bool      `yaml:"completed"`
	CompletedAt time.Time `yaml:"completed_at"`
	RunID       string    `yaml:"run_id"`
}

// Cache reads and writes stage markers under a marker directory, memoizing
// reads in-process so repeated checks within one run don't re-hit disk.
type Cache struct {
	dir     string
	mem     *cachemanager.InMemoryCacheManager[string, *Marker]
	markers *cachemanager.ReadThroughCache[string, *Marker, string]
}

// New creates a cache over the given marker directory, creating it if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating marker directory %s: %w", dir, err)
	}

	mem := cachemanager.NewInMemoryCacheManager[string, *Marker](
		"stage-markers", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)

	return &Cache{
		dir: dir,
		mem: mem,
		markers: cachemanager.NewReadThroughCache(mem, func(ctx context.Context, path string) (*Marker, error) {
			return readMarker(path)
		}, false),
	}, nil
}

func (c *Cache) markerPath(s stage.Stage) string {
	return filepath.Join(c.dir, s.Key()+markerSuffix)
}

// readMarker loads a marker file. A missing file is not an error; it reads as
// a nil marker, meaning the stage never completed.
func readMarker(path string) (*Marker, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading marker %s: %w", path, err)
	}

	var m Marker
	if err := yaml.Unmarshal(data, &m); err != nil {
		// A corrupt marker is treated as absent: the worst case is redoing
		// work, never trusting stale state.
		log.Warn(log.CatCache, "corrupt marker treated as absent", "path", path, "error", err)
		return nil, nil
	}
	return &m, nil
}

// IsComplete reports whether the stage already succeeded for the current
// version and its expected artifacts still exist. Any version mismatch, older
// or newer, is stale.
func (c *Cache) IsComplete(ctx context.Context, s stage.Stage, current semver.Version, artifacts []string) (bool, error) {
	m, err := c.markers.Get(ctx, s.Key(), c.markerPath(s), cachemanager.DefaultExpiration)
	if err != nil {
		return false, err
	}
	if m == nil || !m.Completed {
		return false, nil
	}
	if m.Version != current.String() {
		log.Debug(log.CatCache, "marker stale", "stage", s.Key(), "marker", m.Version, "current", current)
		return false, nil
	}

	// Never trust the marker alone: a vanished artifact means incomplete.
	for _, a := range artifacts {
		if _, err := os.Stat(a); err != nil {
			log.Debug(log.CatCache, "marker artifact missing", "stage", s.Key(), "artifact", a)
			return false, nil
		}
	}
	return true, nil
}

// MarkComplete persists the marker atomically. Callers must only invoke this
// after the stage's external tool has verifiably succeeded.
func (c *Cache) MarkComplete(ctx context.Context, s stage.Stage, current semver.Version, runID string) error {
	m := Marker{
		Stage:       s.Key(),
		Version:     current.String(),
		Completed:   true,
		CompletedAt: time.Now().UTC(),
		RunID:       runID,
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling marker %s: %w", s.Key(), err)
	}

	path := c.markerPath(s)
	temp, err := os.CreateTemp(c.dir, "."+s.Key()+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp marker: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp marker: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp marker: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp marker: %w", err)
	}

	if err := c.markers.Invalidate(ctx, s.Key()); err != nil {
		return err
	}
	log.Info(log.CatCache, "stage marked complete", "stage", s.Key(), "version", current, "run", runID)
	return nil
}

// Invalidate removes a stage's marker, forcing the stage to re-run.
func (c *Cache) Invalidate(ctx context.Context, s stage.Stage) error {
	if err := os.Remove(c.markerPath(s)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing marker %s: %w", s.Key(), err)
	}
	return c.markers.Invalidate(ctx, s.Key())
}

// InvalidateAll removes every marker, used by clean and full force rebuilds.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading marker directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("removing marker %s: %w", e.Name(), err)
		}
	}
	return c.mem.Flush(ctx)
}

// Snapshot returns every persisted marker keyed by stage, for status output.
func (c *Cache) Snapshot() (map[string]Marker, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading marker directory: %w", err)
	}

	out := make(map[string]Marker)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerSuffix) {
			continue
		}
		m, err := readMarker(filepath.Join(c.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if m != nil {
			out[m.Stage] = *m
		}
	}
	return out, nil
}
