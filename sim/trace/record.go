// Package trace provides post-hoc recording of a fog simulation run.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventRecord captures one executed event.
type EventRecord struct {
	Seq    uint64
	Clock  float64
	Kind   string
	Device string // empty for events not bound to a device
}

// TupleRecord captures one tuple processed by a module.
type TupleRecord struct {
	TupleID  uint64
	Type     string
	Module   string
	Device   string
	Created  float64
	Arrived  float64 // admission to the device's processor
	Finished float64
	Loops    []string // names of the loops the tuple was travelling on
}

// ActuationRecord captures one tuple delivered to an actuator.
type ActuationRecord struct {
	TupleID  uint64
	Type     string
	Actuator string
	Clock    float64
	Loops    []string
}
