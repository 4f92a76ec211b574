package sim

import "fmt"

// LoopTag marks a tuple as part of one instance of a tracked loop.
type LoopTag struct {
	Loop     int     // index into Application.Loops()
	Instance uint64  // loop instance id, unique per run
	Start    float64 // time the instance started
	Next     int     // index in the loop path of the next member to reach
}

// Tuple is a unit of data travelling between sensors, modules and actuators.
type Tuple struct {
	ID               uint64
	Type             string
	Source           string   // emitting sensor or module
	SourceDevice     DeviceID // leaf device where the originating sensor sits
	Dest             string   // destination module or actuator type
	Kind             EdgeKind
	Direction        Direction
	ProcessingLength float64
	NetworkLength    float64
	Created          float64
	Loops            []LoopTag

	actuator int // target actuator index for actuator-bound tuples, -1 otherwise
}

func (t *Tuple) String() string {
	return fmt.Sprintf("Tuple{ID: %d, Type: %s, %s->%s, Created: %g}", t.ID, t.Type, t.Source, t.Dest, t.Created)
}

// Sensor is an infinite producer of tuples attached to a leaf device.
type Sensor struct {
	Name         string
	Type         string // sensor type; the source of sensor edges
	DeviceName   string
	Latency      float64 // transmission latency to the device
	Distribution Distribution

	device DeviceID
}

// Device returns the attached device id, valid after Topology.Finalize.
func (s *Sensor) Device() DeviceID {
	return s.device
}

// Actuator consumes tuples sent along actuator edges whose destination is
// its Type, terminating their propagation.
type Actuator struct {
	Name       string
	Type       string // actuator type; the destination of actuator edges
	DeviceName string
	Latency    float64 // transmission latency from the device

	device DeviceID
}

// Device returns the attached device id, valid after Topology.Finalize.
func (a *Actuator) Device() DeviceID {
	return a.device
}
