package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestNewDistribution_RoundTripsThroughSpec(t *testing.T) {
	tests := []DistributionSpec{
		{Type: "deterministic", Value: 5},
		{Type: "exponential", Mean: 2.5},
		{Type: "uniform", Min: 1, Max: 3},
	}
	for _, spec := range tests {
		t.Run(spec.Type, func(t *testing.T) {
			d, err := NewDistribution(spec)
			require.NoError(t, err)
			back, err := SpecOf(d)
			require.NoError(t, err)
			assert.Equal(t, spec, back)
		})
	}
}

func TestNewDistribution_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec DistributionSpec
	}{
		{"unknown type", DistributionSpec{Type: "pareto"}},
		{"zero period", DistributionSpec{Type: "deterministic"}},
		{"negative mean", DistributionSpec{Type: "exponential", Mean: -1}},
		{"inverted uniform", DistributionSpec{Type: "uniform", Min: 3, Max: 1}},
		{"uniform from zero", DistributionSpec{Type: "uniform", Min: 0, Max: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDistribution(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestDistribution_SampleMeans(t *testing.T) {
	tests := []struct {
		name string
		d    Distribution
		tol  float64
	}{
		{"deterministic", DeterministicDistribution{Value: 2}, 0},
		{"exponential", ExponentialDistribution{MeanValue: 4}, 0.2},
		{"uniform", UniformDistribution{Min: 1, Max: 5}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a seeded stream
			rng := NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemSensor(tt.name))

			// WHEN drawing many gaps
			samples := make([]float64, 20000)
			for i := range samples {
				samples[i] = tt.d.Next(rng)
				require.Greater(t, samples[i], 0.0)
			}

			// THEN the sample mean approaches Mean()
			assert.InDelta(t, tt.d.Mean(), stat.Mean(samples, nil), tt.tol)
		})
	}
}

func TestSpecOf_CustomDistribution_Errors(t *testing.T) {
	_, err := SpecOf(customGap{})
	assert.Error(t, err)
}

type customGap struct{ DeterministicDistribution }
