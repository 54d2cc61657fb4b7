package config

import "time"

// Defaults returns the stock configuration for a schema library laid out the
// way epoch-protos is: proto sources in proto/, generated code under
// generated/, a CMake native build, a setuptools Python package under
// python/, and an npm package under js/.
func Defaults() Config {
	return Config{
		SchemaDir:     "proto",
		MarkerDir:     ".protopack/markers",
		WatchDebounce: time.Second,
		Targets: map[string]TargetConfig{
			"native": {
				Stages: map[string]StageConfig{
					"generate": {
						Command:   []string{"./scripts/generate_cpp.sh"},
						Artifacts: []string{"generated/cpp"},
					},
					"package": {
						Command:   []string{"cmake", "-S", ".", "-B", "build"},
						Artifacts: []string{"build/CMakeCache.txt"},
					},
					"build": {
						Command:   []string{"cmake", "--build", "build"},
						Artifacts: []string{"build/libepoch_protos.a"},
					},
					"test": {
						Command: []string{"ctest", "--test-dir", "build", "--output-on-failure"},
					},
					"publish": {
						Command: []string{"./scripts/publish_native.sh"},
					},
				},
			},
			"scripting": {
				Credentials: []string{"TWINE_USERNAME", "TWINE_PASSWORD"},
				Stages: map[string]StageConfig{
					"generate": {
						Command:   []string{"./scripts/generate_python.sh"},
						Artifacts: []string{"python/epoch_protos"},
					},
					"package": {
						Command:   []string{"python3", "-m", "build", "python"},
						Artifacts: []string{"python/dist"},
					},
					"build": {
						Command: []string{"python3", "-m", "pip", "install", "--no-deps", "-e", "python"},
					},
					"test": {
						Command: []string{"python3", "-m", "pytest", "python/tests"},
					},
					"publish": {
						Command: []string{"python3", "-m", "twine", "upload", "python/dist/*"},
					},
				},
				PublishArgs: map[string][]string{
					RegistryTest: {"--repository", "testpypi"},
				},
			},
			"web": {
				Credentials: []string{"NPM_TOKEN"},
				Stages: map[string]StageConfig{
					"generate": {
						Command:   []string{"./scripts/generate_js.sh"},
						Artifacts: []string{"js/src"},
					},
					"package": {
						Command:   []string{"npm", "--prefix", "js", "pack", "--pack-destination", "js/dist"},
						Artifacts: []string{"js/dist"},
					},
					"build": {
						Command: []string{"npm", "--prefix", "js", "run", "build"},
					},
					"test": {
						Command: []string{"npm", "--prefix", "js", "test"},
					},
					"publish": {
						Command: []string{"npm", "--prefix", "js", "publish"},
					},
				},
				PublishArgs: map[string][]string{
					RegistryTest:       {"--registry", "https://registry.npmjs.org/", "--tag", "next"},
					RegistryProduction: {"--access", "public"},
				},
			},
		},
		Manifests: []ManifestConfig{
			{Path: "CMakeLists.txt", Kind: "native-build-descriptor"},
			{Path: "python/setup.py", Kind: "scripting-package-descriptor"},
			{Path: "js/package.json", Kind: "web-package-descriptor"},
			{Path: "js/package-lock.json", Kind: "dependency-lock-descriptor"},
		},
	}
}
