// Package manifest locates and rewrites the version field in each
// per-ecosystem packaging file. Rewrites are literal text substitutions that
// preserve the surrounding formatting, followed by a re-read that verifies the
// new value is actually extractable, so a rule that silently stops matching
// surfaces as an error instead of a no-op.
package manifest

import (
	"fmt"
	"regexp"
)

// Kind identifies which ecosystem a manifest belongs to and selects its
// extraction/rewrite rule.
type Kind string

const (
	// KindNativeBuild matches CMake build descriptors:
	// project(name VERSION X.Y.Z ...).
	KindNativeBuild Kind = "native-build-descriptor"

	// KindScriptingPackage matches Python package descriptors
	// (setup.py / pyproject.toml): version = "X.Y.Z".
	KindScriptingPackage Kind = "scripting-package-descriptor"

	// KindWebPackage matches npm package descriptors (package.json):
	// "version": "X.Y.Z".
	KindWebPackage Kind = "web-package-descriptor"

	// KindDependencyLock matches npm lockfiles (package-lock.json), where the
	// version appears twice: at the root and under packages[""].
	KindDependencyLock Kind = "dependency-lock-descriptor"
)

// Kinds lists every supported manifest kind.
func Kinds() []Kind {
	return []Kind{KindNativeBuild, KindScriptingPackage, KindWebPackage, KindDependencyLock}
}

// ParseKind validates a configured kind string.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if Kind(s) == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown manifest kind %q", s)
}

// Manifest describes where a version field lives in a per-ecosystem file.
type Manifest struct {
	Path string
	Kind Kind
}

// rule pairs a version-field pattern with the number of leading occurrences
// the rewrite must touch. The pattern's second submatch is the version
// literal; the first submatch is the prefix kept verbatim.
type rule struct {
	pattern     *regexp.Regexp
	occurrences int
}

var rules = map[Kind]rule{
	KindNativeBuild: {
		pattern:     regexp.MustCompile(`(project\s*\([^)]*\bVERSION\s+)(\d+\.\d+\.\d+)`),
		occurrences: 1,
	},
	KindScriptingPackage: {
		pattern:     regexp.MustCompile(`(\bversion\s*=\s*")(\d+\.\d+\.\d+)(")`),
		occurrences: 1,
	},
	KindWebPackage: {
		pattern:     regexp.MustCompile(`("version"\s*:\s*")(\d+\.\d+\.\d+)(")`),
		occurrences: 1,
	},
	KindDependencyLock: {
		pattern:     regexp.MustCompile(`("version"\s*:\s*")(\d+\.\d+\.\d+)(")`),
		occurrences: 2,
	},
}

// extract returns the first version literal the kind's rule locates.
func extract(kind Kind, content []byte) (string, error) {
	r, ok := rules[kind]
	if !ok {
		return "", fmt.Errorf("unknown manifest kind %q", kind)
	}
	m := r.pattern.FindSubmatch(content)
	if m == nil {
		return "", fmt.Errorf("no version field matched for kind %q", kind)
	}
	return string(m[2]), nil
}

// rewrite replaces the version literal in the first occurrences matches,
// leaving everything else byte-for-byte intact.
func rewrite(kind Kind, content []byte, newVersion string) ([]byte, error) {
	r, ok := rules[kind]
	if !ok {
		return nil, fmt.Errorf("unknown manifest kind %q", kind)
	}

	matches := r.pattern.FindAllSubmatchIndex(content, r.occurrences)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no version field matched for kind %q", kind)
	}

	out := make([]byte, 0, len(content)+len(newVersion))
	last := 0
	for _, m := range matches {
		// m[4]:m[5] is the version submatch range.
		out = append(out, content[last:m[4]]...)
		out = append(out, newVersion...)
		last = m[5]
	}
	out = append(out, content[last:]...)
	return out, nil
}
