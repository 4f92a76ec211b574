package scenario

import (
	"fmt"

	"github.com/fog-sim/fog-sim/sim"
)

// Build validates a scenario and constructs finalized engine values.
func Build(spec *Spec) (*sim.Topology, *sim.Application, sim.PlacementPolicy, error) {
	if err := spec.Validate(); err != nil {
		return nil, nil, nil, err
	}
	topo, err := buildTopology(spec)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := buildApplication(&spec.Application)
	if err != nil {
		return nil, nil, nil, err
	}
	return topo, app, buildPolicy(spec.Placement), nil
}

func buildTopology(spec *Spec) (*sim.Topology, error) {
	topo := sim.NewTopology()
	for _, d := range spec.Devices {
		if _, err := topo.AddDevice(sim.Device{
			Name:          d.Name,
			ParentName:    d.Parent,
			Level:         d.Level,
			MIPS:          d.MIPS,
			PEs:           d.PEs,
			RAM:           d.RAM,
			UpBw:          d.UpBw,
			DownBw:        d.DownBw,
			UplinkLatency: d.UplinkLatency,
			Storage:       d.Storage,
			RatePerMIPS:   d.RatePerMIPS,
			Power:         powerModel(d.Power),
		}); err != nil {
			return nil, err
		}
	}
	for i, s := range spec.Sensors {
		dist, err := sim.NewDistribution(s.Distribution)
		if err != nil {
			return nil, fmt.Errorf("sensor[%d] %q: %w", i, s.Name, err)
		}
		if err := topo.AddSensor(&sim.Sensor{
			Name:         s.Name,
			Type:         s.Type,
			DeviceName:   s.Device,
			Latency:      s.Latency,
			Distribution: dist,
		}); err != nil {
			return nil, err
		}
	}
	for _, a := range spec.Actuators {
		if err := topo.AddActuator(&sim.Actuator{
			Name:       a.Name,
			Type:       a.Type,
			DeviceName: a.Device,
			Latency:    a.Latency,
		}); err != nil {
			return nil, err
		}
	}
	if err := topo.Finalize(); err != nil {
		return nil, err
	}
	return topo, nil
}

func powerModel(p PowerSpec) sim.PowerModel {
	if p.Model == "constant" {
		return sim.ConstantPowerModel{Watts: p.Watts}
	}
	return sim.LinearPowerModel{Busy: p.Busy, Idle: p.Idle}
}

func buildApplication(spec *ApplicationSpec) (*sim.Application, error) {
	app := sim.NewApplication(spec.Name)
	for _, m := range spec.Modules {
		if err := app.AddModule(m.Name, m.MIPS, sim.WithModuleRAM(m.RAM)); err != nil {
			return nil, err
		}
	}
	for _, e := range spec.Edges {
		if err := app.AddEdge(e.Source, e.Dest, e.ProcessingLength, e.NetworkLength, e.TupleType,
			sim.Direction(e.Direction), sim.EdgeKind(e.Kind)); err != nil {
			return nil, err
		}
	}
	for _, m := range spec.Mappings {
		if err := app.AddTupleMapping(m.Module, m.In, m.Out, m.Selectivity); err != nil {
			return nil, err
		}
	}
	if len(spec.Loops) > 0 {
		if err := app.SetLoops(spec.Loops...); err != nil {
			return nil, err
		}
	}
	if err := app.Finalize(); err != nil {
		return nil, err
	}
	return app, nil
}

func buildPolicy(p PlacementSpec) sim.PlacementPolicy {
	mapping := copyMapping(p.Mapping)
	if p.Policy == PolicyMapping {
		return &sim.FixedMapping{Mapping: mapping}
	}
	return &sim.Edgewards{Pinned: mapping}
}

// FromModel is the inverse of Build: it describes engine values as a Spec.
func FromModel(name string, topo *sim.Topology, app *sim.Application, policy sim.PlacementPolicy) (*Spec, error) {
	spec := &Spec{Name: name}
	for _, d := range topo.Devices() {
		ds := DeviceSpec{
			Name:          d.Name,
			Parent:        d.ParentName,
			Level:         d.Level,
			MIPS:          d.MIPS,
			PEs:           d.PEs,
			RAM:           d.RAM,
			UpBw:          d.UpBw,
			DownBw:        d.DownBw,
			UplinkLatency: d.UplinkLatency,
			Storage:       d.Storage,
			RatePerMIPS:   d.RatePerMIPS,
		}
		switch p := d.Power.(type) {
		case sim.LinearPowerModel:
			ds.Power = PowerSpec{Model: "linear", Busy: p.Busy, Idle: p.Idle}
		case sim.ConstantPowerModel:
			ds.Power = PowerSpec{Model: "constant", Watts: p.Watts}
		default:
			return nil, fmt.Errorf("device %q: power model %T has no serializable form", d.Name, d.Power)
		}
		spec.Devices = append(spec.Devices, ds)
	}
	for _, s := range topo.Sensors() {
		dist, err := sim.SpecOf(s.Distribution)
		if err != nil {
			return nil, fmt.Errorf("sensor %q: %w", s.Name, err)
		}
		spec.Sensors = append(spec.Sensors, SensorSpec{
			Name: s.Name, Type: s.Type, Device: s.DeviceName, Latency: s.Latency, Distribution: dist,
		})
	}
	for _, a := range topo.Actuators() {
		spec.Actuators = append(spec.Actuators, ActuatorSpec{
			Name: a.Name, Type: a.Type, Device: a.DeviceName, Latency: a.Latency,
		})
	}

	spec.Application.Name = app.Name
	for _, m := range app.Modules() {
		spec.Application.Modules = append(spec.Application.Modules, ModuleSpec{Name: m.Name, MIPS: m.MIPS, RAM: m.RAM})
	}
	for _, e := range app.Edges() {
		spec.Application.Edges = append(spec.Application.Edges, EdgeSpec{
			Source:           e.Source,
			Dest:             e.Dest,
			ProcessingLength: e.ProcessingLength,
			NetworkLength:    e.NetworkLength,
			TupleType:        e.TupleType,
			Direction:        string(e.Direction),
			Kind:             string(e.Kind),
		})
	}
	for _, m := range app.Mappings() {
		spec.Application.Mappings = append(spec.Application.Mappings, MappingSpec{
			Module: m.Module, In: m.InType, Out: m.OutType, Selectivity: m.Selectivity,
		})
	}
	for _, l := range app.Loops() {
		spec.Application.Loops = append(spec.Application.Loops, append([]string(nil), l.Path...))
	}

	switch p := policy.(type) {
	case *sim.FixedMapping:
		spec.Placement = PlacementSpec{Policy: PolicyMapping, Mapping: copyMapping(p.Mapping)}
	case *sim.Edgewards:
		spec.Placement = PlacementSpec{Policy: PolicyEdgewards, Mapping: copyMapping(p.Pinned)}
	default:
		return nil, fmt.Errorf("placement policy %T has no serializable form", policy)
	}
	return spec, nil
}

func copyMapping(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
