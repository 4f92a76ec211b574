package sim

import "github.com/sirupsen/logrus"

// EventKind names the kind of an Event, for logs and traces.
type EventKind string

const (
	KindSensorEmission     EventKind = "sensor-emission"
	KindTupleArrival       EventKind = "tuple-arrival"
	KindActuatorArrival    EventKind = "actuator-arrival"
	KindProcessingComplete EventKind = "processing-complete"
)

// Event defines the interface for all simulation events.
// Each event has a Timestamp (simulated time) and an Execute method that
// advances simulation state when invoked. Execute may schedule further events
// but never moves the clock itself.
type Event interface {
	Timestamp() float64
	Kind() EventKind
	Execute(*Simulator) error
}

// SensorEmissionEvent fires when a sensor is due to emit.
type SensorEmissionEvent struct {
	time   float64
	Sensor *Sensor
}

func (e *SensorEmissionEvent) Timestamp() float64 { return e.time }
func (e *SensorEmissionEvent) Kind() EventKind    { return KindSensorEmission }

// Execute emits one tuple per sensor edge of the sensor's type and schedules
// the next emission.
func (e *SensorEmissionEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< SensorEmission: %s at t=%g", e.Sensor.Name, e.time)
	return sim.emit(e.Sensor)
}

// TupleArrivalEvent delivers a tuple to a device, either for processing by a
// hosted module or for forwarding along the tree.
type TupleArrivalEvent struct {
	time   float64
	Device DeviceID
	Tuple  *Tuple
}

func (e *TupleArrivalEvent) Timestamp() float64 { return e.time }
func (e *TupleArrivalEvent) Kind() EventKind    { return KindTupleArrival }

// Execute routes the tuple at its current device.
func (e *TupleArrivalEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< TupleArrival: %s at device %d, t=%g", e.Tuple, e.Device, e.time)
	return sim.route(e.Device, e.Tuple)
}

// ActuatorArrivalEvent delivers a tuple to its target actuator.
type ActuatorArrivalEvent struct {
	time     float64
	Actuator *Actuator
	Tuple    *Tuple
}

func (e *ActuatorArrivalEvent) Timestamp() float64 { return e.time }
func (e *ActuatorArrivalEvent) Kind() EventKind    { return KindActuatorArrival }

// Execute records the arrival and ends the tuple's journey.
func (e *ActuatorArrivalEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< ActuatorArrival: %s at %s, t=%g", e.Tuple, e.Actuator.Name, e.time)
	sim.actuate(e.Actuator, e.Tuple)
	return nil
}

// ProcessingCompleteEvent fires when the earliest tuple running on a device is
// expected to finish. A newer generation on the device supersedes it.
type ProcessingCompleteEvent struct {
	time       float64
	Device     DeviceID
	generation uint64
}

func (e *ProcessingCompleteEvent) Timestamp() float64 { return e.time }
func (e *ProcessingCompleteEvent) Kind() EventKind    { return KindProcessingComplete }

// Execute finishes every tuple whose work is done and emits their outputs.
func (e *ProcessingCompleteEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< ProcessingComplete: device %d gen %d, t=%g", e.Device, e.generation, e.time)
	return sim.completeProcessing(e.Device, e.generation)
}
