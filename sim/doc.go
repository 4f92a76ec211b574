// Package sim provides the discrete-event simulation engine for hierarchical
// fog/edge systems.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - tuple.go: Tuples, sensors and actuators, the data that moves through a run
//   - event.go: Event types that drive the simulation (emission, arrival, completion)
//   - simulator.go: The event loop, routing, tuple mapping and actuator delivery
//
// # Architecture
//
// A run is assembled from plain records and frozen before it starts:
//   - topology.go: the device arena and its tree, validated by Topology.Finalize
//   - application.go: modules, edges, tuple mappings and loops, validated by Application.Finalize
//   - placement.go: binds every module to one device (FixedMapping, Edgewards)
//   - controller.go: applies placement, builds a fresh Simulator per run, returns Metrics
//
// Runtime state lives in device_state.go (processor sharing over PEs, links,
// energy) and loops.go (loop instance tags). clock.go owns simulated time.
// The YAML scenario format lives in sim/scenario/, trace records in sim/trace/.
//
// # Key Interfaces
//
// The extension points are small interfaces with a closed set of implementations:
//   - PlacementPolicy: assign modules to devices before the run
//   - PowerModel: device power as a function of utilization
//   - Distribution: sensor inter-emission times
//   - SelectivityModel: whether a consumed tuple yields an output
package sim
