package stage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargets_NativeFirst(t *testing.T) {
	require.Equal(t, []Target{Native, Scripting, Web}, Targets())
}

func TestParseTarget(t *testing.T) {
	tgt, err := ParseTarget("scripting")
	require.NoError(t, err)
	require.Equal(t, Scripting, tgt)

	_, err = ParseTarget("wasm")
	require.Error(t, err)
}

func TestThrough(t *testing.T) {
	stages, err := Through(Test)
	require.NoError(t, err)
	require.Equal(t, []Name{Generate, Package, Build, Test}, stages)

	stages, err = Through(Generate)
	require.NoError(t, err)
	require.Equal(t, []Name{Generate}, stages)

	stages, err = Through(Publish)
	require.NoError(t, err)
	require.Len(t, stages, 5)

	_, err = Through(Name("deploy"))
	require.Error(t, err)
}

func TestStageKey(t *testing.T) {
	s := Stage{Target: Native, Name: Build}
	require.Equal(t, "native-build", s.Key())
	require.Equal(t, "native build", s.String())
}

func TestTransition_LinearOrder(t *testing.T) {
	state := NotStarted
	for _, n := range Names() {
		next, err := Transition(state, n)
		require.NoError(t, err, "running %s from %s", n, state)
		state = next
	}
	require.Equal(t, Published, state)
}

func TestTransition_RejectsSkips(t *testing.T) {
	_, err := Transition(NotStarted, Build)
	require.Error(t, err)
}

func TestTransition_RejectsBackward(t *testing.T) {
	_, err := Transition(Built, Generate)
	require.Error(t, err)
}

func TestStateAfter(t *testing.T) {
	s, err := StateAfter(Build)
	require.NoError(t, err)
	require.Equal(t, Built, s)

	s, err = StateAfter(Publish)
	require.NoError(t, err)
	require.Equal(t, Published, s)
}
