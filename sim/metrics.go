// Tracks run-wide and per-device metrics: loop latency, energy, cost and
// network usage.

package sim

import (
	"fmt"
	"io"
)

// LoopMetrics summarizes the end-to-end latency of one loop. A loop instance
// starts when a tuple arrives at the first module's host for processing, so
// every sample includes the processing time at the first module.
type LoopMetrics struct {
	Name    string
	Count   int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	P50     float64
	P90     float64
	P99     float64
	Samples []float64 // in completion order
}

// DeviceMetrics is the final state of one device after a run.
type DeviceMetrics struct {
	Name           string
	Level          int
	Modules        []string // modules placed on the device
	Energy         float64  // integral of power over the run
	BusyTime       float64  // integral of utilization over the run
	Utilization    float64  // BusyTime / run length
	ExecutedMI     float64
	Cost           float64 // RatePerMIPS * MI of completed tuples
	Processed      int     // tuples completed by hosted modules
	Forwarded      int     // tuples sent on the device's links
	UtilizationLog []UtilizationSample
}

// Metrics aggregates statistics about a run for final reporting.
type Metrics struct {
	RunID           string
	Policy          string
	Placement       map[string]string // module -> device name
	SimEndedTime    float64
	EventsProcessed uint64

	Loops   []LoopMetrics   // in Application.Loops order
	Devices []DeviceMetrics // in topology arena order

	TotalEnergy  float64
	TotalCost    float64
	NetworkUsage float64 // sum over hops of link latency * tuple network length

	SensorEmissions  map[string]int // sensor name -> emissions
	ActuatorArrivals map[string]int // actuator name -> tuples delivered
}

// Loop returns the metrics of a loop by name.
func (m *Metrics) Loop(name string) (LoopMetrics, bool) {
	for _, l := range m.Loops {
		if l.Name == name {
			return l, true
		}
	}
	return LoopMetrics{}, false
}

// Device returns the metrics of a device by name.
func (m *Metrics) Device(name string) (DeviceMetrics, bool) {
	for _, d := range m.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceMetrics{}, false
}

// TotalEmissions returns the number of sensor emissions across all sensors.
func (m *Metrics) TotalEmissions() int {
	return int(SumValues(m.SensorEmissions))
}

// TotalActuations returns the number of tuples delivered to actuators.
func (m *Metrics) TotalActuations() int {
	return int(SumValues(m.ActuatorArrivals))
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Run                  : %s\n", m.RunID)
	fmt.Fprintf(w, "Placement Policy     : %s\n", m.Policy)
	fmt.Fprintf(w, "Simulated Time       : %.3f\n", m.SimEndedTime)
	fmt.Fprintf(w, "Events Processed     : %d\n", m.EventsProcessed)
	fmt.Fprintf(w, "Sensor Emissions     : %d\n", m.TotalEmissions())
	fmt.Fprintf(w, "Actuator Arrivals    : %d\n", m.TotalActuations())

	fmt.Fprintln(w, "=== Placement ===")
	for _, module := range SortedKeys(m.Placement) {
		fmt.Fprintf(w, "%-20s -> %s\n", module, m.Placement[module])
	}

	fmt.Fprintln(w, "=== Application Loop Delays ===")
	for _, l := range m.Loops {
		if l.Count == 0 {
			fmt.Fprintf(w, "%s : no samples\n", l.Name)
			continue
		}
		fmt.Fprintf(w, "%s : n=%d mean=%.4f sd=%.4f min=%.4f p50=%.4f p90=%.4f p99=%.4f max=%.4f\n",
			l.Name, l.Count, l.Mean, l.StdDev, l.Min, l.P50, l.P90, l.P99, l.Max)
	}

	fmt.Fprintln(w, "=== Energy Consumed ===")
	for _, d := range m.Devices {
		fmt.Fprintf(w, "%-20s : %.3f (util %.2f%%, processed %d)\n", d.Name, d.Energy, d.Utilization*100, d.Processed)
	}
	fmt.Fprintf(w, "Total Energy         : %.3f\n", m.TotalEnergy)
	fmt.Fprintf(w, "Cost of Execution    : %.3f\n", m.TotalCost)
	fmt.Fprintf(w, "Total Network Usage  : %.3f\n", m.NetworkUsage)
}
