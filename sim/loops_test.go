package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopTracker_TagPropagation(t *testing.T) {
	// GIVEN the loop a -> b -> ACT
	lt := newLoopTracker([]Loop{{Name: "a->b->ACT", Path: []string{"a", "b", "ACT"}}})
	in := &Tuple{ID: 1}

	// WHEN a tuple arrives at a at t=1
	lt.onArrival(in, "a", 1)
	require.Len(t, in.Loops, 1)
	assert.Equal(t, 0, in.Loops[0].Next)

	// THEN the tag only follows the next loop edge
	assert.Empty(t, lt.propagate(in, "a", "c"), "a->c is not on the loop")
	tags := lt.propagate(in, "a", "b")
	require.Len(t, tags, 1)
	assert.Equal(t, 1, tags[0].Next)
	assert.Equal(t, 0, in.Loops[0].Next, "the input tag is not mutated")

	// AND the instance closes at the actuator
	out := &Tuple{ID: 2, Loops: tags}
	assert.Zero(t, lt.onProcessed(out, "b", 2), "b is not the last member")
	toAct := &Tuple{ID: 3, Loops: lt.propagate(out, "b", "ACT")}
	assert.Equal(t, 1, lt.onActuator(toAct, "ACT", 4.5))
	assert.Equal(t, []float64{3.5}, lt.samples[0])
	assert.True(t, lt.complete(1))
	assert.False(t, lt.complete(2))
}

func TestLoopTracker_ArrivalDoesNotRetag(t *testing.T) {
	// a tuple already travelling on a loop keeps its instance
	lt := newLoopTracker([]Loop{{Name: "a", Path: []string{"a"}}})
	tup := &Tuple{}

	lt.onArrival(tup, "a", 0)
	lt.onArrival(tup, "a", 1)

	require.Len(t, tup.Loops, 1)
	assert.Equal(t, 1, lt.onProcessed(tup, "a", 2))
	assert.Equal(t, []float64{2}, lt.samples[0])
}

func TestLoopTracker_InstancesAreUnique(t *testing.T) {
	lt := newLoopTracker([]Loop{
		{Name: "x->y", Path: []string{"x", "y"}},
		{Name: "x", Path: []string{"x"}},
	})
	t1, t2 := &Tuple{}, &Tuple{}

	lt.onArrival(t1, "x", 0)
	lt.onArrival(t2, "x", 0)

	require.Len(t, t1.Loops, 2)
	require.Len(t, t2.Loops, 2)
	seen := map[uint64]bool{}
	for _, tag := range append(t1.Loops, t2.Loops...) {
		assert.False(t, seen[tag.Instance])
		seen[tag.Instance] = true
	}
}

func TestLoopTracker_NoLoops_NeverComplete(t *testing.T) {
	assert.False(t, newLoopTracker(nil).complete(0))
}
