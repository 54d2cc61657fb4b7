package stage

import "fmt"

// State is a target pipeline's position in its workflow. States advance
// strictly linearly; the only way to skip is a cache short-circuit (which
// still advances through the skipped state), and the only way back is
// explicit invalidation.
type State string

const (
	NotStarted State = "not-started"
	Generated  State = "generated"
	Packaged   State = "packaged"
	Built      State = "built"
	Tested     State = "tested"
	Published  State = "published"
)

// stateOrder mirrors the stage order with NotStarted prepended.
var stateOrder = []State{NotStarted, Generated, Packaged, Built, Tested, Published}

// StateAfter returns the state a target is in once the named stage has
// completed.
func StateAfter(n Name) (State, error) {
	i := index(n)
	if i < 0 {
		return "", fmt.Errorf("unknown stage %q", n)
	}
	return stateOrder[i+1], nil
}

// Transition validates that running next from current respects the linear
// order and returns the resulting state. The caller supplies the expected
// current state so an out-of-order attempt is an observable error rather
// than silent corruption.
func Transition(current State, next Name) (State, error) {
	ci := stateIndex(current)
	if ci < 0 {
		return "", fmt.Errorf("unknown state %q", current)
	}
	ni := index(next)
	if ni < 0 {
		return "", fmt.Errorf("unknown stage %q", next)
	}
	if ni != ci {
		return "", fmt.Errorf("disallowed transition: cannot run %s from state %s", next, current)
	}
	return stateOrder[ni+1], nil
}

func stateIndex(s State) int {
	for i, st := range stateOrder {
		if st == s {
			return i
		}
	}
	return -1
}
