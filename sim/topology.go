package sim

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// DeviceID indexes a Device in its Topology's arena.
type DeviceID int

// NoParent marks the root of the device tree.
const NoParent DeviceID = -1

// Device is a resource-bearing node of the fog hierarchy. It is a plain record:
// the tree is expressed by Parent/Children ids into the owning Topology.
type Device struct {
	ID         DeviceID
	Name       string
	ParentName string // resolved into Parent by Topology.Finalize
	Parent     DeviceID
	Children   []DeviceID
	Level      int // 0 = cloud ... N = leaf

	MIPS          float64 // processing rate of one processing element
	PEs           int     // processing elements; 0 is treated as 1
	RAM           float64
	UpBw          float64 // uplink bandwidth (bytes per time unit)
	DownBw        float64 // downlink bandwidth (bytes per time unit)
	UplinkLatency float64 // latency of the link to the parent
	Storage       float64
	RatePerMIPS   float64 // monetary cost per executed MI
	Power         PowerModel
}

// NumPEs returns the number of processing elements, at least 1.
func (d *Device) NumPEs() int {
	if d.PEs < 1 {
		return 1
	}
	return d.PEs
}

// Capacity returns the aggregate processing rate across all PEs.
func (d *Device) Capacity() float64 {
	return d.MIPS * float64(d.NumPEs())
}

// IsLeaf reports whether the device has no children.
func (d *Device) IsLeaf() bool {
	return len(d.Children) == 0
}

// Topology is the arena of devices plus the sensors and actuators attached to
// them. It is built by AddDevice/AddSensor/AddActuator and frozen by Finalize.
type Topology struct {
	devices   []*Device
	byName    map[string]DeviceID
	sensors   []*Sensor
	actuators []*Actuator
	root      DeviceID
	finalized bool

	linkGraph *simple.WeightedUndirectedGraph
	routes    map[DeviceID]path.Shortest
}

// NewTopology creates an empty topology.
func NewTopology() *Topology {
	return &Topology{
		byName: make(map[string]DeviceID),
		root:   NoParent,
		routes: make(map[DeviceID]path.Shortest),
	}
}

// AddDevice appends a device to the arena. The parent is named by
// d.ParentName and may be added later; it is resolved by Finalize.
func (t *Topology) AddDevice(d Device) (DeviceID, error) {
	if t.finalized {
		return NoParent, topologyErrorf("device %q added after finalization", d.Name)
	}
	if d.Name == "" {
		return NoParent, topologyErrorf("device name must not be empty")
	}
	if _, dup := t.byName[d.Name]; dup {
		return NoParent, topologyErrorf("duplicate device %q", d.Name)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"mips", d.MIPS}, {"ram", d.RAM}, {"up_bw", d.UpBw}, {"down_bw", d.DownBw},
		{"uplink_latency", d.UplinkLatency}, {"storage", d.Storage}, {"rate_per_mips", d.RatePerMIPS},
	} {
		if f.v < 0 || math.IsNaN(f.v) {
			return NoParent, topologyErrorf("device %q: %s must be non-negative, got %g", d.Name, f.name, f.v)
		}
	}
	if d.PEs < 0 {
		return NoParent, topologyErrorf("device %q: pes must be non-negative, got %d", d.Name, d.PEs)
	}
	if d.Power == nil {
		d.Power = LinearPowerModel{}
	}
	id := DeviceID(len(t.devices))
	d.ID = id
	d.Parent = NoParent
	d.Children = nil
	t.devices = append(t.devices, &d)
	t.byName[d.Name] = id
	return id, nil
}

// AddSensor registers a sensor; its device is resolved by Finalize.
func (t *Topology) AddSensor(s *Sensor) error {
	if t.finalized {
		return topologyErrorf("sensor %q added after finalization", s.Name)
	}
	t.sensors = append(t.sensors, s)
	return nil
}

// AddActuator registers an actuator; its device is resolved by Finalize.
func (t *Topology) AddActuator(a *Actuator) error {
	if t.finalized {
		return topologyErrorf("actuator %q added after finalization", a.Name)
	}
	t.actuators = append(t.actuators, a)
	return nil
}

// Finalize resolves parent names, builds the children lists, and checks that
// the devices form a single tree. Sensors must be attached to leaf devices.
func (t *Topology) Finalize() error {
	if t.finalized {
		return nil
	}
	if len(t.devices) == 0 {
		return topologyErrorf("topology has no devices")
	}

	t.root = NoParent
	deps := simple.NewDirectedGraph()
	for _, d := range t.devices {
		d.Parent = NoParent
		d.Children = nil
		deps.AddNode(simple.Node(d.ID))
	}
	for _, d := range t.devices {
		if d.ParentName == "" {
			if t.root != NoParent {
				return topologyErrorf("devices %q and %q both lack a parent", t.devices[t.root].Name, d.Name)
			}
			t.root = d.ID
			continue
		}
		pid, ok := t.byName[d.ParentName]
		if !ok {
			return topologyErrorf("device %q: unknown parent %q", d.Name, d.ParentName)
		}
		if pid == d.ID {
			return topologyErrorf("device %q is its own parent", d.Name)
		}
		d.Parent = pid
		deps.SetEdge(deps.NewEdge(simple.Node(d.ID), simple.Node(pid)))
	}
	if t.root == NoParent {
		return topologyErrorf("no root device (every device names a parent)")
	}
	if _, err := topo.Sort(deps); err != nil {
		return topologyErrorf("device parent links form a cycle: %v", err)
	}

	// children in arena order keeps iteration deterministic
	for _, d := range t.devices {
		if d.Parent != NoParent {
			parent := t.devices[d.Parent]
			parent.Children = append(parent.Children, d.ID)
			if d.Level <= parent.Level {
				logrus.Warnf("device %q (level %d) is not below its parent %q (level %d)",
					d.Name, d.Level, parent.Name, parent.Level)
			}
		}
	}

	seen := make(map[string]bool)
	for _, s := range t.sensors {
		if seen["s/"+s.Name] {
			return topologyErrorf("duplicate sensor %q", s.Name)
		}
		seen["s/"+s.Name] = true
		id, ok := t.byName[s.DeviceName]
		if !ok {
			return topologyErrorf("sensor %q: unknown device %q", s.Name, s.DeviceName)
		}
		if !t.devices[id].IsLeaf() {
			return topologyErrorf("sensor %q: device %q is not a leaf", s.Name, s.DeviceName)
		}
		if s.Distribution == nil {
			return topologyErrorf("sensor %q has no inter-emission distribution", s.Name)
		}
		if s.Latency < 0 {
			return topologyErrorf("sensor %q: latency must be non-negative", s.Name)
		}
		s.device = id
	}
	for _, a := range t.actuators {
		if seen["a/"+a.Name] {
			return topologyErrorf("duplicate actuator %q", a.Name)
		}
		seen["a/"+a.Name] = true
		id, ok := t.byName[a.DeviceName]
		if !ok {
			return topologyErrorf("actuator %q: unknown device %q", a.Name, a.DeviceName)
		}
		if a.Latency < 0 {
			return topologyErrorf("actuator %q: latency must be non-negative", a.Name)
		}
		a.device = id
	}

	t.buildLinkGraph()
	t.finalized = true
	return nil
}

// buildLinkGraph mirrors the tree as a weighted graph so routes can be
// answered by shortest-path search, weighted by link latency.
func (t *Topology) buildLinkGraph() {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, d := range t.devices {
		g.AddNode(simple.Node(d.ID))
	}
	for _, d := range t.devices {
		if d.Parent == NoParent {
			continue
		}
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(d.ID), T: simple.Node(d.Parent), W: d.UplinkLatency})
	}
	t.linkGraph = g
}

// Finalized reports whether Finalize has succeeded.
func (t *Topology) Finalized() bool {
	return t.finalized
}

// Devices returns the device arena, indexed by DeviceID.
func (t *Topology) Devices() []*Device {
	return t.devices
}

// Device returns the device with the given id.
func (t *Topology) Device(id DeviceID) *Device {
	return t.devices[id]
}

// DeviceByName looks up a device by name.
func (t *Topology) DeviceByName(name string) (*Device, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.devices[id], true
}

// Root returns the root device id (NoParent before Finalize).
func (t *Topology) Root() DeviceID {
	return t.root
}

// Sensors returns the registered sensors in registration order.
func (t *Topology) Sensors() []*Sensor {
	return t.sensors
}

// Actuators returns the registered actuators in registration order.
func (t *Topology) Actuators() []*Actuator {
	return t.actuators
}

// SensorsAt returns the sensors attached to a device.
func (t *Topology) SensorsAt(id DeviceID) []*Sensor {
	var out []*Sensor
	for _, s := range t.sensors {
		if s.device == id {
			out = append(out, s)
		}
	}
	return out
}

// IsAncestor reports whether anc lies on the path from d to the root
// (a device is its own ancestor).
func (t *Topology) IsAncestor(anc, d DeviceID) bool {
	for cur := d; cur != NoParent; cur = t.devices[cur].Parent {
		if cur == anc {
			return true
		}
	}
	return false
}

// Route returns the device sequence from one device to another, inclusive.
// Shortest-path trees are computed lazily and cached per source.
func (t *Topology) Route(from, to DeviceID) []DeviceID {
	if from == to {
		return []DeviceID{from}
	}
	spt, ok := t.routes[from]
	if !ok {
		spt = path.DijkstraFrom(simple.Node(from), t.linkGraph)
		t.routes[from] = spt
	}
	nodes, _ := spt.To(int64(to))
	return convertNodeSeq(nodes)
}

// Hops returns the number of links between two devices.
func (t *Topology) Hops(from, to DeviceID) int {
	return len(t.Route(from, to)) - 1
}

func convertNodeSeq(nodes []graph.Node) []DeviceID {
	out := make([]DeviceID, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, DeviceID(n.ID()))
	}
	return out
}
