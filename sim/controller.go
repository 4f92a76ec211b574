package sim

import (
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/fog-sim/fog-sim/sim/trace"
)

// Controller applies a placement policy to a topology and application and
// runs simulations over the result. Every Run starts from fresh runtime
// state, so repeated runs with the same seed are identical.
type Controller struct {
	topo   *Topology
	app    *Application
	policy PlacementPolicy

	seed           int64
	scope          tally.Scope
	traceConfig    trace.TraceConfig
	sampled        bool
	logUtilization bool

	placement Placement
	lastTrace *trace.SimulationTrace
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSeed sets the seed of the run's PartitionedRNG.
func WithSeed(seed int64) Option {
	return func(c *Controller) { c.seed = seed }
}

// WithScope reports run counters and gauges to a tally scope.
func WithScope(scope tally.Scope) Option {
	return func(c *Controller) { c.scope = scope }
}

// WithTrace records a post-hoc trace at the given level.
func WithTrace(level trace.TraceLevel) Option {
	return func(c *Controller) { c.traceConfig = trace.TraceConfig{Level: level} }
}

// WithSampledSelectivity draws selectivity per tuple instead of using the
// expected-value accumulator.
func WithSampledSelectivity() Option {
	return func(c *Controller) { c.sampled = true }
}

// WithUtilizationLog keeps per-device utilization intervals in the metrics.
func WithUtilizationLog() Option {
	return func(c *Controller) { c.logUtilization = true }
}

// NewController creates a controller; nothing is validated until Run.
func NewController(topo *Topology, app *Application, policy PlacementPolicy, opts ...Option) *Controller {
	c := &Controller{
		topo:   topo,
		app:    app,
		policy: policy,
		scope:  tally.NoopScope,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Placement returns the placement applied by the last Run.
func (c *Controller) Placement() Placement {
	return c.placement
}

// Trace returns the trace of the last Run, or nil when tracing is off.
func (c *Controller) Trace() *trace.SimulationTrace {
	return c.lastTrace
}

// Prepare finalizes the topology and application and applies the placement
// policy. It schedules nothing.
func (c *Controller) Prepare() (Placement, error) {
	if err := c.topo.Finalize(); err != nil {
		return nil, err
	}
	if err := c.app.Finalize(); err != nil {
		return nil, err
	}
	if c.policy == nil {
		return nil, unresolvedf("no placement policy")
	}
	placement, err := c.policy.Assign(c.app, c.topo)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s placement", c.policy.Name())
	}
	for _, m := range c.app.Modules() {
		if dev := c.topo.Device(placement[m.Name]); dev.MIPS == 0 {
			logrus.Warnf("module %q placed on device %q with zero MIPS; its tuples never complete", m.Name, dev.Name)
		}
	}
	c.placement = placement
	return placement, nil
}

// Run places the application, simulates until stop, and reports metrics.
// Placement and validation errors are returned before any event is scheduled.
func (c *Controller) Run(stop StopCondition) (*Metrics, error) {
	placement, err := c.Prepare()
	if err != nil {
		return nil, err
	}
	if err := c.checkTermination(stop); err != nil {
		return nil, err
	}

	runID := uuid.New()
	log := logrus.WithFields(logrus.Fields{"run": runID, "policy": c.policy.Name()})

	var st *trace.SimulationTrace
	if c.traceConfig.RecordsTuples() {
		st = trace.NewSimulationTrace(c.traceConfig)
	}
	rng := NewPartitionedRNG(NewSimulationKey(c.seed))
	var selectivity SelectivityModel = NewExpectedSelectivity()
	if c.sampled {
		selectivity = NewSampledSelectivity(rng.ForSubsystem(SubsystemSelectivity))
	}
	sim := newSimulator(c.topo, c.app, placement, simulatorConfig{
		rng:            rng,
		selectivity:    selectivity,
		trace:          st,
		scope:          c.scope.Tagged(map[string]string{"app": c.app.Name}),
		logUtilization: c.logUtilization,
	})

	log.Infof("starting run: %d devices, %d modules, %d sensors, selectivity=%s",
		len(c.topo.Devices()), len(c.app.Modules()), len(c.topo.Sensors()), selectivity.Name())
	if err := sim.Run(stop); err != nil {
		return nil, errors.WithMessagef(err, "run %s", runID)
	}

	metrics := sim.Metrics()
	metrics.RunID = runID
	metrics.Policy = c.policy.Name()
	c.lastTrace = st
	log.Infof("run finished at t=%.3f: %d events, total energy %.3f", metrics.SimEndedTime, metrics.EventsProcessed, metrics.TotalEnergy)
	return metrics, nil
}

// checkTermination rejects stop conditions under which sensors would emit
// forever.
func (c *Controller) checkTermination(stop StopCondition) error {
	if len(c.topo.Sensors()) == 0 || stop.hardBound() {
		return nil
	}
	if stop.LoopSamples <= 0 {
		return errors.New("stop condition has no deadline, loop-sample target or event cap; sensors would run forever")
	}
	if len(c.app.Loops()) == 0 {
		return errors.Errorf("loop-sample target %d without a deadline or event cap, but application %q tracks no loops",
			stop.LoopSamples, c.app.Name)
	}
	for _, l := range c.app.Loops() {
		if !c.app.loopCanClose(l) {
			return errors.Errorf("loop %q can never complete, so a loop-sample target needs a deadline or event cap", l.Name)
		}
	}
	return nil
}
