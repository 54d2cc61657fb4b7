package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/epochlab/protopack/internal/log"
)

// DefaultConfigTemplate returns the commented YAML written by `protopack`
// when no configuration exists yet. It mirrors Defaults().
func DefaultConfigTemplate() string {
	return `# protopack configuration
#
# Each target drives a fixed pipeline: generate -> package -> build -> test -> publish.
# Commands are executed directly (no shell); artifacts are the outputs a stage is
# expected to leave behind and are re-checked before a cached stage is skipped.

schema_dir: proto
marker_dir: .protopack/markers

# Debounce for the watch command.
watch_debounce: 1s

targets:
  native:
    stages:
      generate:
        command: ["./scripts/generate_cpp.sh"]
        artifacts: ["generated/cpp"]
      package:
        command: ["cmake", "-S", ".", "-B", "build"]
        artifacts: ["build/CMakeCache.txt"]
      build:
        command: ["cmake", "--build", "build"]
        artifacts: ["build/libepoch_protos.a"]
      test:
        command: ["ctest", "--test-dir", "build", "--output-on-failure"]
      publish:
        command: ["./scripts/publish_native.sh"]

  scripting:
    # Publish requires these environment variables to be set (contents opaque).
    credentials: ["TWINE_USERNAME", "TWINE_PASSWORD"]
    stages:
      generate:
        command: ["./scripts/generate_python.sh"]
        artifacts: ["python/epoch_protos"]
      package:
        command: ["python3", "-m", "build", "python"]
        artifacts: ["python/dist"]
      build:
        command: ["python3", "-m", "pip", "install", "--no-deps", "-e", "python"]
      test:
        command: ["python3", "-m", "pytest", "python/tests"]
      publish:
        command: ["python3", "-m", "twine", "upload", "python/dist/*"]
    publish_args:
      test: ["--repository", "testpypi"]

  web:
    credentials: ["NPM_TOKEN"]
    stages:
      generate:
        command: ["./scripts/generate_js.sh"]
        artifacts: ["js/src"]
      package:
        command: ["npm", "--prefix", "js", "pack", "--pack-destination", "js/dist"]
        artifacts: ["js/dist"]
      build:
        command: ["npm", "--prefix", "js", "run", "build"]
      test:
        command: ["npm", "--prefix", "js", "test"]
      publish:
        command: ["npm", "--prefix", "js", "publish"]
    publish_args:
      test: ["--registry", "https://registry.npmjs.org/", "--tag", "next"]
      production: ["--access", "public"]

# Files whose version field tracks the canonical VERSION record.
manifests:
  - path: CMakeLists.txt
    kind: native-build-descriptor
  - path: python/setup.py
    kind: scripting-package-descriptor
  - path: js/package.json
    kind: web-package-descriptor
  - path: js/package-lock.json
    kind: dependency-lock-descriptor
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
