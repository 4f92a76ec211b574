// sim/simulator.go
package sim

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/fog-sim/fog-sim/sim/trace"
)

// Simulator is the state of one run: the clock, the per-device runtime state
// and the bookkeeping behind Metrics. It is built by a Controller after
// placement and discarded after the run.
type Simulator struct {
	Clock *Clock

	topo      *Topology
	app       *Application
	placement Placement
	devices   []*deviceState

	rng         *PartitionedRNG
	selectivity SelectivityModel
	loops       *loopTracker
	trace       *trace.SimulationTrace
	scope       tally.Scope

	cutoff       float64 // last instant at which sensors may emit
	nextTupleID  uint64
	emissions    map[string]int
	actuations   map[string]int
	networkUsage float64
	endTime      float64
	hasRun       bool
}

type simulatorConfig struct {
	rng            *PartitionedRNG
	selectivity    SelectivityModel
	trace          *trace.SimulationTrace
	scope          tally.Scope
	logUtilization bool
}

func newSimulator(topo *Topology, app *Application, placement Placement, cfg simulatorConfig) *Simulator {
	s := &Simulator{
		Clock:       NewClock(),
		topo:        topo,
		app:         app,
		placement:   placement,
		rng:         cfg.rng,
		selectivity: cfg.selectivity,
		loops:       newLoopTracker(app.Loops()),
		trace:       cfg.trace,
		scope:       cfg.scope,
		cutoff:      math.Inf(1),
		emissions:   make(map[string]int),
		actuations:  make(map[string]int),
	}
	if s.scope == nil {
		s.scope = tally.NoopScope
	}
	for _, d := range topo.Devices() {
		s.devices = append(s.devices, newDeviceState(d, cfg.logUtilization))
	}
	for _, sensor := range topo.Sensors() {
		s.emissions[sensor.Name] = 0
	}
	for _, a := range topo.Actuators() {
		s.actuations[a.Name] = 0
	}
	return s
}

// Schedule pushes an event into the clock's queue.
func (sim *Simulator) Schedule(ev Event) error {
	return sim.Clock.Schedule(ev)
}

// Advance pops the earliest event, moves the clock to it and executes it.
// It is a no-op on an empty queue.
func (sim *Simulator) Advance() error {
	ev := sim.Clock.Pop()
	if ev == nil {
		return nil
	}
	sim.scope.Counter("events_executed").Inc(1)
	if err := ev.Execute(sim); err != nil {
		return errors.Wrapf(err, "executing %s event at t=%g", ev.Kind(), ev.Timestamp())
	}
	if sim.trace != nil && sim.trace.Config.RecordsEvents() {
		sim.trace.RecordEvent(trace.EventRecord{
			Seq:    sim.Clock.Processed(),
			Clock:  ev.Timestamp(),
			Kind:   string(ev.Kind()),
			Device: sim.eventDevice(ev),
		})
	}
	return nil
}

func (sim *Simulator) eventDevice(ev Event) string {
	switch e := ev.(type) {
	case *TupleArrivalEvent:
		return sim.topo.Device(e.Device).Name
	case *ProcessingCompleteEvent:
		return sim.topo.Device(e.Device).Name
	case *SensorEmissionEvent:
		return sim.topo.Device(e.Sensor.Device()).Name
	case *ActuatorArrivalEvent:
		return sim.topo.Device(e.Actuator.Device()).Name
	}
	return ""
}

// start schedules the first emission of every sensor.
func (sim *Simulator) start(stop StopCondition) error {
	sim.cutoff = stop.emissionCutoff()
	for _, s := range sim.topo.Sensors() {
		at := s.Distribution.Next(sim.rng.ForSubsystem(SubsystemSensor(s.Name)))
		if at > sim.cutoff {
			continue
		}
		if err := sim.Schedule(&SensorEmissionEvent{time: at, Sensor: s}); err != nil {
			return err
		}
	}
	return nil
}

// Run advances the clock until the queue empties or stop is met.
func (sim *Simulator) Run(stop StopCondition) error {
	if sim.hasRun {
		return errors.New("simulator already ran; build a new one per run")
	}
	sim.hasRun = true
	if err := sim.start(stop); err != nil {
		return err
	}

	stoppedEarly := false
	for sim.Clock.Pending() > 0 {
		if stop.MaxEvents > 0 && sim.Clock.Processed() >= stop.MaxEvents {
			stoppedEarly = true
			break
		}
		if stop.LoopSamples > 0 && sim.loops.complete(stop.LoopSamples) {
			stoppedEarly = true
			break
		}
		if !stop.Drain && stop.hasDeadline() && sim.Clock.Peek().Timestamp() > stop.Deadline {
			break
		}
		if err := sim.Advance(); err != nil {
			return err
		}
	}

	// a run cut short by an event cap or sample target ends at its last
	// event; otherwise it spans the full horizon
	if stop.hasDeadline() && !stoppedEarly {
		sim.Clock.setNow(stop.Deadline)
	}
	sim.endTime = sim.Clock.Now()
	for _, ds := range sim.devices {
		ds.advance(sim.endTime)
	}
	logrus.Infof("[t=%.3f] Simulation ended after %d events (%d pending)",
		sim.endTime, sim.Clock.Processed(), sim.Clock.Pending())
	return nil
}

func (sim *Simulator) newTuple(e Edge, source string, sourceDevice DeviceID) *Tuple {
	sim.nextTupleID++
	return &Tuple{
		ID:               sim.nextTupleID,
		Type:             e.TupleType,
		Source:           source,
		SourceDevice:     sourceDevice,
		Dest:             e.Dest,
		Kind:             e.Kind,
		Direction:        e.Direction,
		ProcessingLength: e.ProcessingLength,
		NetworkLength:    e.NetworkLength,
		Created:          sim.Clock.Now(),
		actuator:         -1,
	}
}

// emit sends one tuple per sensor edge of the sensor's type to its device and
// schedules the next emission.
func (sim *Simulator) emit(s *Sensor) error {
	now := sim.Clock.Now()
	if now > sim.cutoff {
		return nil
	}
	sim.emissions[s.Name]++
	sim.scope.Counter("sensor_emissions").Inc(1)
	for _, e := range sim.app.OutgoingEdges(s.Type) {
		if e.Kind != EdgeSensor {
			continue
		}
		t := sim.newTuple(e, s.Name, s.Device())
		if err := sim.Schedule(&TupleArrivalEvent{time: now + s.Latency, Device: s.Device(), Tuple: t}); err != nil {
			return err
		}
	}
	next := now + s.Distribution.Next(sim.rng.ForSubsystem(SubsystemSensor(s.Name)))
	if next > sim.cutoff {
		return nil
	}
	return sim.Schedule(&SensorEmissionEvent{time: next, Sensor: s})
}

// route handles a tuple present at dev: deliver it to its actuator, start
// processing it, or forward it one hop toward its target.
func (sim *Simulator) route(dev DeviceID, t *Tuple) error {
	if t.Kind == EdgeActuator {
		a := sim.topo.Actuators()[t.actuator]
		if a.Device() == dev {
			return sim.Schedule(&ActuatorArrivalEvent{time: sim.Clock.Now() + a.Latency, Actuator: a, Tuple: t})
		}
		return sim.forward(dev, a.Device(), t)
	}
	host, ok := sim.placement[t.Dest]
	if !ok {
		return unresolvedf("tuple %d addressed to unplaced module %q", t.ID, t.Dest)
	}
	if host != dev {
		return sim.forward(dev, host, t)
	}
	return sim.process(dev, t)
}

// forward transmits t on the link from dev toward target.
func (sim *Simulator) forward(dev, target DeviceID, t *Tuple) error {
	hops := sim.topo.Route(dev, target)
	if len(hops) < 2 {
		return unresolvedf("no route from %q to %q", sim.topo.Device(dev).Name, sim.topo.Device(target).Name)
	}
	now := sim.Clock.Now()
	next := hops[1]
	from := sim.devices[dev]
	var at, latency float64
	if from.dev.Parent == next {
		at = from.transmitUp(now, t.NetworkLength)
		latency = from.dev.UplinkLatency
	} else {
		child := sim.topo.Device(next)
		at = from.transmitDown(now, t.NetworkLength, child)
		latency = child.UplinkLatency
	}
	sim.networkUsage += latency * t.NetworkLength
	return sim.Schedule(&TupleArrivalEvent{time: at, Device: next, Tuple: t})
}

// process admits t to the processor of dev, where its destination module runs.
func (sim *Simulator) process(dev DeviceID, t *Tuple) error {
	now := sim.Clock.Now()
	sim.loops.onArrival(t, t.Dest, now)
	ev := sim.devices[dev].admit(now, &job{
		tuple:     t,
		module:    t.Dest,
		length:    t.ProcessingLength,
		remaining: t.ProcessingLength,
		arrived:   now,
	})
	if ev == nil {
		logrus.Warnf("device %q cannot make progress on tuple %d (zero MIPS)", sim.topo.Device(dev).Name, t.ID)
		return nil
	}
	return sim.Schedule(ev)
}

// completeProcessing finishes the jobs due on dev and emits their outputs.
func (sim *Simulator) completeProcessing(dev DeviceID, gen uint64) error {
	now := sim.Clock.Now()
	finished, next, ok := sim.devices[dev].complete(now, gen)
	if !ok {
		return nil // superseded
	}
	if next != nil {
		if err := sim.Schedule(next); err != nil {
			return err
		}
	}
	for _, j := range finished {
		if err := sim.onProcessed(dev, j); err != nil {
			return err
		}
	}
	return nil
}

// onProcessed applies the module's tuple mappings to a finished job.
func (sim *Simulator) onProcessed(dev DeviceID, j *job) error {
	now := sim.Clock.Now()
	sim.scope.Counter("tuples_processed").Inc(1)
	sim.loops.onProcessed(j.tuple, j.module, now)
	if sim.trace != nil && sim.trace.Config.RecordsTuples() {
		sim.trace.RecordTuple(trace.TupleRecord{
			TupleID:  j.tuple.ID,
			Type:     j.tuple.Type,
			Module:   j.module,
			Device:   sim.topo.Device(dev).Name,
			Created:  j.tuple.Created,
			Arrived:  j.arrived,
			Finished: now,
			Loops:    sim.loopNames(j.tuple),
		})
	}

	for _, m := range sim.app.MappingsFor(j.module, j.tuple.Type) {
		if !sim.selectivity.Emit(m) {
			continue
		}
		for _, e := range sim.app.OutgoingEdges(j.module) {
			if e.TupleType != m.OutType {
				continue
			}
			out := sim.newTuple(e, j.module, j.tuple.SourceDevice)
			out.Loops = sim.loops.propagate(j.tuple, j.module, e.Dest)
			if e.Kind == EdgeActuator {
				idx, ok := sim.targetActuator(e.Dest, out.SourceDevice, dev)
				if !ok {
					logrus.Warnf("no actuator of type %q for tuple %d; dropped", e.Dest, out.ID)
					continue
				}
				out.actuator = idx
			}
			if err := sim.route(dev, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// targetActuator picks the actuator of the given type for a tuple that
// originated at source: the one on source or its nearest ancestor, else the
// one fewest hops from the emitting device. Ties go to registration order.
func (sim *Simulator) targetActuator(actuatorType string, source, from DeviceID) (int, bool) {
	for cur := source; cur != NoParent; cur = sim.topo.Device(cur).Parent {
		for i, a := range sim.topo.Actuators() {
			if a.Type == actuatorType && a.Device() == cur {
				return i, true
			}
		}
	}
	best, bestHops := -1, math.MaxInt
	for i, a := range sim.topo.Actuators() {
		if a.Type != actuatorType {
			continue
		}
		if h := sim.topo.Hops(from, a.Device()); h < bestHops {
			best, bestHops = i, h
		}
	}
	return best, best >= 0
}

// actuate records a tuple delivered to an actuator; the tuple ends here.
func (sim *Simulator) actuate(a *Actuator, t *Tuple) {
	now := sim.Clock.Now()
	sim.actuations[a.Name]++
	sim.scope.Counter("actuator_arrivals").Inc(1)
	sim.loops.onActuator(t, a.Type, now)
	if sim.trace != nil && sim.trace.Config.RecordsTuples() {
		sim.trace.RecordActuation(trace.ActuationRecord{
			TupleID:  t.ID,
			Type:     t.Type,
			Actuator: a.Name,
			Clock:    now,
			Loops:    sim.loopNames(t),
		})
	}
}

func (sim *Simulator) loopNames(t *Tuple) []string {
	if len(t.Loops) == 0 {
		return nil
	}
	names := make([]string, 0, len(t.Loops))
	for _, tag := range t.Loops {
		names = append(names, sim.app.Loops()[tag.Loop].Name)
	}
	return names
}

// Metrics assembles the final metrics of a finished run.
func (sim *Simulator) Metrics() *Metrics {
	m := &Metrics{
		Placement:        make(map[string]string, len(sim.placement)),
		SimEndedTime:     sim.endTime,
		EventsProcessed:  sim.Clock.Processed(),
		NetworkUsage:     sim.networkUsage,
		SensorEmissions:  make(map[string]int, len(sim.emissions)),
		ActuatorArrivals: make(map[string]int, len(sim.actuations)),
	}
	for module, dev := range sim.placement {
		m.Placement[module] = sim.topo.Device(dev).Name
	}
	for k, v := range sim.emissions {
		m.SensorEmissions[k] = v
	}
	for k, v := range sim.actuations {
		m.ActuatorArrivals[k] = v
	}
	for i, l := range sim.app.Loops() {
		m.Loops = append(m.Loops, summarize(l.Name, sim.loops.samples[i]))
	}

	energies := make([]float64, 0, len(sim.devices))
	costs := make([]float64, 0, len(sim.devices))
	for _, ds := range sim.devices {
		dm := DeviceMetrics{
			Name:           ds.dev.Name,
			Level:          ds.dev.Level,
			Energy:         ds.energy,
			BusyTime:       ds.busyTime,
			ExecutedMI:     ds.executedMI,
			Cost:           ds.cost,
			Processed:      ds.processed,
			Forwarded:      ds.forwarded,
			UtilizationLog: append([]UtilizationSample(nil), ds.utilization...),
		}
		if sim.endTime > 0 {
			dm.Utilization = ds.busyTime / sim.endTime
		}
		for _, mod := range sim.placement.ModulesOn(sim.app, ds.dev.ID) {
			dm.Modules = append(dm.Modules, mod.Name)
		}
		m.Devices = append(m.Devices, dm)
		energies = append(energies, ds.energy)
		costs = append(costs, ds.cost)
		sim.scope.Tagged(map[string]string{"device": ds.dev.Name}).Gauge("energy").Update(ds.energy)
	}
	m.TotalEnergy = Sum(energies)
	m.TotalCost = Sum(costs)
	sim.scope.Gauge("total_energy").Update(m.TotalEnergy)
	sim.scope.Gauge("network_usage").Update(m.NetworkUsage)
	return m
}
