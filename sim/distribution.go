package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution generates inter-emission times for a Sensor.
type Distribution interface {
	// Next returns the next inter-emission time; always positive.
	Next(rng *rand.Rand) float64
	// Mean returns the expected inter-emission time.
	Mean() float64
}

// minInterval keeps a sensor from rescheduling itself at the same instant
// forever when a sample rounds to zero.
const minInterval = 1e-9

// DeterministicDistribution emits at a fixed period.
type DeterministicDistribution struct {
	Value float64
}

func (d DeterministicDistribution) Next(_ *rand.Rand) float64 { return math.Max(d.Value, minInterval) }
func (d DeterministicDistribution) Mean() float64            { return d.Value }

// ExponentialDistribution emits as a Poisson process with the given mean gap.
type ExponentialDistribution struct {
	MeanValue float64
}

func (d ExponentialDistribution) Next(rng *rand.Rand) float64 {
	e := distuv.Exponential{Rate: 1 / d.MeanValue, Src: rng}
	return math.Max(e.Rand(), minInterval)
}

func (d ExponentialDistribution) Mean() float64 { return d.MeanValue }

// UniformDistribution draws gaps uniformly from [Min, Max].
type UniformDistribution struct {
	Min, Max float64
}

func (d UniformDistribution) Next(rng *rand.Rand) float64 {
	if d.Min == d.Max {
		return math.Max(d.Min, minInterval)
	}
	u := distuv.Uniform{Min: d.Min, Max: d.Max, Src: rng}
	return math.Max(u.Rand(), minInterval)
}

func (d UniformDistribution) Mean() float64 { return (d.Min + d.Max) / 2 }

// DistributionSpec is the serializable form of a Distribution.
type DistributionSpec struct {
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value,omitempty"` // deterministic period
	Mean  float64 `yaml:"mean,omitempty"`  // exponential mean
	Min   float64 `yaml:"min,omitempty"`   // uniform lower bound
	Max   float64 `yaml:"max,omitempty"`   // uniform upper bound
}

// NewDistribution builds a Distribution from its spec.
func NewDistribution(spec DistributionSpec) (Distribution, error) {
	switch spec.Type {
	case "deterministic":
		if !(spec.Value > 0) || math.IsInf(spec.Value, 0) {
			return nil, fmt.Errorf("deterministic distribution requires a positive finite value, got %g", spec.Value)
		}
		return DeterministicDistribution{Value: spec.Value}, nil
	case "exponential":
		if !(spec.Mean > 0) || math.IsInf(spec.Mean, 0) {
			return nil, fmt.Errorf("exponential distribution requires a positive finite mean, got %g", spec.Mean)
		}
		return ExponentialDistribution{MeanValue: spec.Mean}, nil
	case "uniform":
		if !(spec.Min > 0) || spec.Max < spec.Min || math.IsInf(spec.Max, 0) {
			return nil, fmt.Errorf("uniform distribution requires 0 < min <= max, got [%g, %g]", spec.Min, spec.Max)
		}
		return UniformDistribution{Min: spec.Min, Max: spec.Max}, nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q; valid: deterministic, exponential, uniform", spec.Type)
	}
}

// SpecOf returns the serializable form of one of the built-in distributions.
func SpecOf(d Distribution) (DistributionSpec, error) {
	switch v := d.(type) {
	case DeterministicDistribution:
		return DistributionSpec{Type: "deterministic", Value: v.Value}, nil
	case ExponentialDistribution:
		return DistributionSpec{Type: "exponential", Mean: v.MeanValue}, nil
	case UniformDistribution:
		return DistributionSpec{Type: "uniform", Min: v.Min, Max: v.Max}, nil
	default:
		return DistributionSpec{}, fmt.Errorf("distribution %T has no serializable form", d)
	}
}
