// Package stage defines the fixed target/stage topology of the packaging
// pipeline: three targets, five stages each, strictly ordered.
package stage

import "fmt"

// Target is one of the three ecosystem outputs the pipeline produces.
type Target string

const (
	Native    Target = "native"
	Scripting Target = "scripting"
	Web       Target = "web"
)

// Targets returns every target in canonical execution order. The order is
// deliberate: native first, since scripting and web packaging depend on the
// native build artifact.
func Targets() []Target {
	return []Target{Native, Scripting, Web}
}

// ParseTarget validates a user-supplied target name.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets() {
		if Target(s) == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q (want native, scripting, or web)", s)
}

// Name is one step of a target's workflow.
type Name string

const (
	Generate Name = "generate"
	Package  Name = "package"
	Build    Name = "build"
	Test     Name = "test"
	Publish  Name = "publish"
)

// Names returns every stage name in execution order.
func Names() []Name {
	return []Name{Generate, Package, Build, Test, Publish}
}

// ParseName validates a user-supplied stage name.
func ParseName(s string) (Name, error) {
	for _, n := range Names() {
		if Name(s) == n {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// index returns the position of n in the stage order, or -1.
func index(n Name) int {
	for i, name := range Names() {
		if name == n {
			return i
		}
	}
	return -1
}

// Through returns the ordered stage list from generate up to and including
// upTo. Requesting test yields generate, package, build, test.
func Through(upTo Name) ([]Name, error) {
	i := index(upTo)
	if i < 0 {
		return nil, fmt.Errorf("unknown stage %q", upTo)
	}
	return Names()[:i+1], nil
}

// Stage identifies one (target, stage) unit of work.
type Stage struct {
	Target Target
	Name   Name
}

// Key returns the stable identifier used for marker files and cache keys.
func (s Stage) Key() string {
	return string(s.Target) + "-" + string(s.Name)
}

func (s Stage) String() string {
	return string(s.Target) + " " + string(s.Name)
}
