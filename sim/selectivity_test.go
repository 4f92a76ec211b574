package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countEmits(s SelectivityModel, m TupleMapping, n int) int {
	out := 0
	for i := 0; i < n; i++ {
		if s.Emit(m) {
			out++
		}
	}
	return out
}

func TestExpectedSelectivity_FloorOfExpected(t *testing.T) {
	tests := []struct {
		selectivity float64
		inputs      int
		want        int
	}{
		{1.0, 5, 5},
		{0.8, 5, 4},
		{0.5, 5, 2},
		{0.1, 10, 1},
		{0.1, 9, 0},
		{0, 100, 0},
	}
	for _, tt := range tests {
		s := NewExpectedSelectivity()
		m := TupleMapping{Module: "m", InType: "A", OutType: "B", Selectivity: tt.selectivity}
		assert.Equal(t, tt.want, countEmits(s, m, tt.inputs), "s=%g n=%d", tt.selectivity, tt.inputs)
	}
}

func TestExpectedSelectivity_MappingsAccumulateSeparately(t *testing.T) {
	s := NewExpectedSelectivity()
	a := TupleMapping{Module: "m", InType: "A", OutType: "B", Selectivity: 0.5}
	b := TupleMapping{Module: "m", InType: "A", OutType: "C", Selectivity: 0.5}

	assert.False(t, s.Emit(a))
	assert.False(t, s.Emit(b))
	assert.True(t, s.Emit(a))
	assert.True(t, s.Emit(b))
}

func TestSampledSelectivity_DeterministicPerSeed(t *testing.T) {
	m := TupleMapping{Module: "m", InType: "A", OutType: "B", Selectivity: 0.3}
	draw := func(seed int64) []bool {
		s := NewSampledSelectivity(NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemSelectivity))
		out := make([]bool, 50)
		for i := range out {
			out[i] = s.Emit(m)
		}
		return out
	}

	assert.Equal(t, draw(9), draw(9))
	assert.NotEqual(t, draw(9), draw(10))
}

func TestSampledSelectivity_Extremes(t *testing.T) {
	s := NewSampledSelectivity(NewPartitionedRNG(NewSimulationKey(1)).ForSubsystem(SubsystemSelectivity))
	assert.Equal(t, 20, countEmits(s, TupleMapping{Selectivity: 1}, 20))
	assert.Equal(t, 0, countEmits(s, TupleMapping{Selectivity: 0}, 20))

	rate := float64(countEmits(s, TupleMapping{Selectivity: 0.25}, 10000)) / 10000
	assert.InDelta(t, 0.25, rate, 0.02)
}
