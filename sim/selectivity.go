package sim

import "math/rand/v2"

// SelectivityModel decides whether a consumed tuple yields an output tuple
// for a mapping.
type SelectivityModel interface {
	Name() string
	Emit(m TupleMapping) bool
}

// ExpectedSelectivity emits deterministically: every mapping accumulates its
// selectivity per consumed tuple and emits whenever the total reaches one.
// Over n inputs it emits floor(n*s) outputs (within float tolerance).
type ExpectedSelectivity struct {
	acc map[TupleMapping]float64
}

// NewExpectedSelectivity returns an accumulator with no history.
func NewExpectedSelectivity() *ExpectedSelectivity {
	return &ExpectedSelectivity{acc: make(map[TupleMapping]float64)}
}

func (s *ExpectedSelectivity) Name() string { return "expected" }

func (s *ExpectedSelectivity) Emit(m TupleMapping) bool {
	v := s.acc[m] + m.Selectivity
	if v >= 1-1e-9 {
		s.acc[m] = v - 1
		return true
	}
	s.acc[m] = v
	return false
}

// SampledSelectivity draws one Bernoulli trial per consumed tuple.
type SampledSelectivity struct {
	rng *rand.Rand
}

// NewSampledSelectivity draws from rng, normally the "selectivity" subsystem
// of the run's PartitionedRNG.
func NewSampledSelectivity(rng *rand.Rand) *SampledSelectivity {
	return &SampledSelectivity{rng: rng}
}

func (s *SampledSelectivity) Name() string { return "sampled" }

func (s *SampledSelectivity) Emit(m TupleMapping) bool {
	switch {
	case m.Selectivity >= 1:
		return true
	case m.Selectivity <= 0:
		return false
	}
	return s.rng.Float64() < m.Selectivity
}
