package sim

import "math"

// StopCondition bounds a run. The zero value runs until the event queue
// empties, which never happens while sensors are attached.
type StopCondition struct {
	// Deadline is the simulated time at which the run ends. Events after it
	// are not executed. Zero or negative means no deadline.
	Deadline float64
	// Drain keeps executing in-flight work past the deadline: sensors stop
	// emitting at the deadline and the run ends when the queue empties.
	Drain bool
	// LoopSamples ends the run once every loop has at least this many samples.
	LoopSamples int
	// MaxEvents caps the number of executed events.
	MaxEvents uint64
}

// Until returns a stop condition with a hard deadline.
func Until(deadline float64) StopCondition {
	return StopCondition{Deadline: deadline}
}

// DrainAfter stops sensors at deadline and lets in-flight tuples finish.
func DrainAfter(deadline float64) StopCondition {
	return StopCondition{Deadline: deadline, Drain: true}
}

func (s StopCondition) hasDeadline() bool {
	return s.Deadline > 0 && !math.IsInf(s.Deadline, 1)
}

// emissionCutoff is the last instant at which sensors may emit.
func (s StopCondition) emissionCutoff() float64 {
	if s.hasDeadline() {
		return s.Deadline
	}
	return math.Inf(1)
}

// hardBound reports whether the condition ends a run with sensors no matter
// what the application does. A LoopSamples target alone only ends a run whose
// loops can all close.
func (s StopCondition) hardBound() bool {
	return s.hasDeadline() || s.MaxEvents > 0
}
