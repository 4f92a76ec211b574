package sim

import (
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Direction tells which way a tuple travels along an edge.
type Direction string

const (
	DirectionUp   Direction = "up"   // toward the cloud
	DirectionDown Direction = "down" // toward actuators
)

// EdgeKind classifies the endpoints of an edge.
type EdgeKind string

const (
	EdgeSensor   EdgeKind = "sensor"   // sensor type -> module
	EdgeModule   EdgeKind = "module"   // module -> module
	EdgeActuator EdgeKind = "actuator" // module -> actuator type
)

// Module is a unit of application logic. It has no device affinity of its own;
// a PlacementPolicy binds it to exactly one Device for a run.
type Module struct {
	Name  string
	MIPS  float64 // processing demand reserved on the hosting device
	RAM   float64
	index int
}

// ModuleOption customizes a module at AddModule time.
type ModuleOption func(*Module)

// WithModuleRAM sets the memory a module reserves on its device.
func WithModuleRAM(ram float64) ModuleOption {
	return func(m *Module) { m.RAM = ram }
}

// Edge is a directed data dependency carrying tuples of one type.
type Edge struct {
	Source           string
	Dest             string
	ProcessingLength float64 // MI needed by the destination module per tuple
	NetworkLength    float64 // bytes transmitted per tuple
	TupleType        string
	Direction        Direction
	Kind             EdgeKind
}

// TupleMapping says module Module turns consumed InType tuples into OutType
// tuples, a Selectivity fraction of the time.
type TupleMapping struct {
	Module      string
	InType      string
	OutType     string
	Selectivity float64
}

// Loop is a named path through modules (optionally ending in an actuator
// type) whose end-to-end latency is measured.
type Loop struct {
	Name string
	Path []string
}

type mappingKey struct {
	module string
	inType string
}

// Application is the flow graph of modules, edges, tuple mappings and loops.
// It is assembled by the Add* methods and frozen by Finalize; validation is
// deferred to Finalize so callers may add pieces in any order.
type Application struct {
	Name string

	modules   []*Module
	byName    map[string]*Module
	dupModule []string
	edges     []Edge
	mappings  []TupleMapping
	loops     []Loop
	finalized bool

	sensorTypes   map[string]bool
	actuatorTypes map[string]bool
	outEdges      map[string][]Edge
	mappingIndex  map[mappingKey][]TupleMapping
	flow          *simple.DirectedGraph
	nodeIDs       map[string]int64
	nodeNames     map[int64]string
}

// NewApplication creates an empty application graph.
func NewApplication(name string) *Application {
	return &Application{
		Name:   name,
		byName: make(map[string]*Module),
	}
}

func (a *Application) checkMutable(what string) error {
	if a.finalized {
		return graphErrorf("application %q is finalized; cannot %s", a.Name, what)
	}
	return nil
}

// AddModule declares a module with its per-instance MIPS demand.
func (a *Application) AddModule(name string, mips float64, opts ...ModuleOption) error {
	if err := a.checkMutable("add module " + name); err != nil {
		return err
	}
	if _, dup := a.byName[name]; dup {
		a.dupModule = append(a.dupModule, name)
		return nil
	}
	m := &Module{Name: name, MIPS: mips, index: len(a.modules)}
	for _, opt := range opts {
		opt(m)
	}
	a.modules = append(a.modules, m)
	a.byName[name] = m
	return nil
}

// AddEdge declares a directed edge from src to dst.
func (a *Application) AddEdge(src, dst string, procLen, netLen float64, tupleType string, dir Direction, kind EdgeKind) error {
	if err := a.checkMutable("add edge " + src + "->" + dst); err != nil {
		return err
	}
	a.edges = append(a.edges, Edge{
		Source:           src,
		Dest:             dst,
		ProcessingLength: procLen,
		NetworkLength:    netLen,
		TupleType:        tupleType,
		Direction:        dir,
		Kind:             kind,
	})
	return nil
}

// AddTupleMapping declares that module turns inType tuples into outType
// tuples with the given selectivity.
func (a *Application) AddTupleMapping(module, inType, outType string, selectivity float64) error {
	if err := a.checkMutable("add tuple mapping for " + module); err != nil {
		return err
	}
	a.mappings = append(a.mappings, TupleMapping{Module: module, InType: inType, OutType: outType, Selectivity: selectivity})
	return nil
}

// SetLoops replaces the tracked loops. Each loop is named by its path.
func (a *Application) SetLoops(paths ...[]string) error {
	if err := a.checkMutable("set loops"); err != nil {
		return err
	}
	a.loops = a.loops[:0]
	for _, p := range paths {
		a.loops = append(a.loops, Loop{Name: strings.Join(p, "->"), Path: append([]string(nil), p...)})
	}
	return nil
}

// Finalize validates the graph and freezes it. Every failure wraps
// ErrGraphInconsistency.
func (a *Application) Finalize() error {
	if a.finalized {
		return nil
	}
	if len(a.dupModule) > 0 {
		return graphErrorf("duplicate module %q", a.dupModule[0])
	}
	for _, m := range a.modules {
		if m.Name == "" {
			return graphErrorf("module with empty name")
		}
		if m.MIPS < 0 || math.IsNaN(m.MIPS) || m.RAM < 0 || math.IsNaN(m.RAM) {
			return graphErrorf("module %q: mips and ram must be non-negative", m.Name)
		}
	}

	sensorTypes := make(map[string]bool)
	actuatorTypes := make(map[string]bool)
	outEdges := make(map[string][]Edge)
	for i, e := range a.edges {
		if err := a.validateEdge(i, e); err != nil {
			return err
		}
		switch e.Kind {
		case EdgeSensor:
			sensorTypes[e.Source] = true
		case EdgeActuator:
			actuatorTypes[e.Dest] = true
		}
		outEdges[e.Source] = append(outEdges[e.Source], e)
	}
	for name := range sensorTypes {
		if actuatorTypes[name] {
			return graphErrorf("%q is used both as a sensor type and an actuator type", name)
		}
	}

	mappingIndex := make(map[mappingKey][]TupleMapping)
	for _, tm := range a.mappings {
		if err := a.validateMapping(tm); err != nil {
			return err
		}
		k := mappingKey{module: tm.Module, inType: tm.InType}
		mappingIndex[k] = append(mappingIndex[k], tm)
	}

	for _, l := range a.loops {
		if err := a.validateLoop(l, actuatorTypes); err != nil {
			return err
		}
	}

	a.sensorTypes = sensorTypes
	a.actuatorTypes = actuatorTypes
	a.outEdges = outEdges
	a.mappingIndex = mappingIndex
	a.buildFlowGraph()
	a.finalized = true
	return nil
}

func (a *Application) validateEdge(i int, e Edge) error {
	_, srcIsModule := a.byName[e.Source]
	_, dstIsModule := a.byName[e.Dest]
	label := e.Source + "->" + e.Dest
	if e.TupleType == "" {
		return graphErrorf("edge %d (%s) has no tuple type", i, label)
	}
	if e.Direction != DirectionUp && e.Direction != DirectionDown {
		return graphErrorf("edge %d (%s): unknown direction %q", i, label, e.Direction)
	}
	if e.ProcessingLength < 0 || e.NetworkLength < 0 || math.IsNaN(e.ProcessingLength) || math.IsNaN(e.NetworkLength) {
		return graphErrorf("edge %d (%s): lengths must be non-negative", i, label)
	}
	switch e.Kind {
	case EdgeSensor:
		if srcIsModule || e.Source == "" {
			return graphErrorf("sensor edge %s: source must be a sensor type, not a module", label)
		}
		if !dstIsModule {
			return graphErrorf("sensor edge %s: unknown destination module %q", label, e.Dest)
		}
	case EdgeModule:
		if !srcIsModule {
			return graphErrorf("module edge %s: unknown source module %q", label, e.Source)
		}
		if !dstIsModule {
			return graphErrorf("module edge %s: unknown destination module %q", label, e.Dest)
		}
	case EdgeActuator:
		if !srcIsModule {
			return graphErrorf("actuator edge %s: unknown source module %q", label, e.Source)
		}
		if dstIsModule || e.Dest == "" {
			return graphErrorf("actuator edge %s: destination must be an actuator type, not a module", label)
		}
	default:
		return graphErrorf("edge %d (%s): unknown kind %q", i, label, e.Kind)
	}
	return nil
}

func (a *Application) validateMapping(tm TupleMapping) error {
	if _, ok := a.byName[tm.Module]; !ok {
		return graphErrorf("tuple mapping references unknown module %q", tm.Module)
	}
	if math.IsNaN(tm.Selectivity) || tm.Selectivity < 0 || tm.Selectivity > 1 {
		return graphErrorf("tuple mapping %s(%s->%s): selectivity %g outside [0,1]",
			tm.Module, tm.InType, tm.OutType, tm.Selectivity)
	}
	var in, out bool
	for _, e := range a.edges {
		if e.Dest == tm.Module && e.TupleType == tm.InType {
			in = true
		}
		if e.Source == tm.Module && e.TupleType == tm.OutType {
			out = true
		}
	}
	if !in {
		return graphErrorf("tuple mapping %s(%s->%s): no incoming edge carries %q",
			tm.Module, tm.InType, tm.OutType, tm.InType)
	}
	if !out {
		logrus.Warnf("tuple mapping %s(%s->%s): no outgoing edge carries %q; its outputs go nowhere",
			tm.Module, tm.InType, tm.OutType, tm.OutType)
	}
	return nil
}

func (a *Application) validateLoop(l Loop, actuatorTypes map[string]bool) error {
	if len(l.Path) == 0 {
		return graphErrorf("loop %q is empty", l.Name)
	}
	for i, name := range l.Path {
		if _, ok := a.byName[name]; ok {
			continue
		}
		if i == len(l.Path)-1 && actuatorTypes[name] {
			continue
		}
		return graphErrorf("loop %q: %q is not a module", l.Name, name)
	}
	for i := 0; i+1 < len(l.Path); i++ {
		if !a.hasEdge(l.Path[i], l.Path[i+1]) {
			return graphErrorf("loop %q: no edge %s->%s", l.Name, l.Path[i], l.Path[i+1])
		}
	}
	return nil
}

// loopCanClose reports whether some chain of mappings can carry a loop tag
// from the first member to the last: the first module must be fed by a
// sensor, and every step needs a mapping with non-zero selectivity whose
// output travels on the edge to the next member.
func (a *Application) loopCanClose(l Loop) bool {
	fed := false
	for st := range a.sensorTypes {
		for _, m := range a.ReachableModules(st) {
			if m.Name == l.Path[0] {
				fed = true
			}
		}
	}
	if !fed {
		return false
	}
	var carried map[string]bool // nil: any input type at the first member
	for i := 0; i+1 < len(l.Path); i++ {
		next := make(map[string]bool)
		for _, tm := range a.mappings {
			if tm.Module != l.Path[i] || tm.Selectivity <= 0 || (carried != nil && !carried[tm.InType]) {
				continue
			}
			for _, e := range a.outEdges[l.Path[i]] {
				if e.Dest == l.Path[i+1] && e.TupleType == tm.OutType {
					next[e.TupleType] = true
				}
			}
		}
		if len(next) == 0 {
			return false
		}
		carried = next
	}
	return true
}

func (a *Application) hasEdge(src, dst string) bool {
	for _, e := range a.edges {
		if e.Source == src && e.Dest == dst {
			return true
		}
	}
	return false
}

// buildFlowGraph indexes sensor types and modules as graph nodes connected by
// sensor and module edges, for reachability queries.
func (a *Application) buildFlowGraph() {
	g := simple.NewDirectedGraph()
	a.nodeIDs = make(map[string]int64)
	a.nodeNames = make(map[int64]string)
	node := func(name string) graph.Node {
		id, ok := a.nodeIDs[name]
		if !ok {
			id = int64(len(a.nodeIDs))
			a.nodeIDs[name] = id
			a.nodeNames[id] = name
			g.AddNode(simple.Node(id))
		}
		return simple.Node(id)
	}
	for _, m := range a.modules {
		node(m.Name)
	}
	for _, e := range a.edges {
		if e.Kind == EdgeActuator {
			continue
		}
		from, to := node(e.Source), node(e.Dest)
		if from.ID() == to.ID() || g.HasEdgeFromTo(from.ID(), to.ID()) {
			continue
		}
		g.SetEdge(g.NewEdge(from, to))
	}
	a.flow = g
}

// Finalized reports whether Finalize has succeeded.
func (a *Application) Finalized() bool {
	return a.finalized
}

// Modules returns the modules in declaration order.
func (a *Application) Modules() []*Module {
	return a.modules
}

// Module looks up a module by name.
func (a *Application) Module(name string) (*Module, bool) {
	m, ok := a.byName[name]
	return m, ok
}

// Edges returns all edges in declaration order.
func (a *Application) Edges() []Edge {
	return a.edges
}

// Mappings returns all tuple mappings in declaration order.
func (a *Application) Mappings() []TupleMapping {
	return a.mappings
}

// Loops returns the tracked loops.
func (a *Application) Loops() []Loop {
	return a.loops
}

// OutgoingEdges returns the edges leaving a module or sensor type.
func (a *Application) OutgoingEdges(src string) []Edge {
	return a.outEdges[src]
}

// MappingsFor returns the mappings applied when module consumes inType.
func (a *Application) MappingsFor(module, inType string) []TupleMapping {
	return a.mappingIndex[mappingKey{module: module, inType: inType}]
}

// IsSensorType reports whether name is the source of a sensor edge.
func (a *Application) IsSensorType(name string) bool {
	return a.sensorTypes[name]
}

// IsActuatorType reports whether name is the destination of an actuator edge.
func (a *Application) IsActuatorType(name string) bool {
	return a.actuatorTypes[name]
}

// ReachableModules returns the modules reachable from a sensor type through
// sensor and module edges, in declaration order.
func (a *Application) ReachableModules(sensorType string) []*Module {
	start, ok := a.nodeIDs[sensorType]
	if !ok {
		return nil
	}
	reached := make(map[string]bool)
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			reached[a.nodeNames[n.ID()]] = true
		},
	}
	bf.Walk(a.flow, simple.Node(start), func(graph.Node, int) bool { return false })

	out := make([]*Module, 0, len(reached))
	for name := range reached {
		if m, ok := a.byName[name]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}
