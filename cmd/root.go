package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/fog-sim/fog-sim/sim"
	"github.com/fog-sim/fog-sim/sim/scenario"
	"github.com/fog-sim/fog-sim/sim/trace"
)

var (
	// CLI flags for the scenario source
	scenarioPath  string // Path to a scenario YAML file
	intersections int    // Intersections in the traffic preset
	cameras       int    // Cameras per intersection in the traffic preset
	cloudOnly     bool   // Map every preset module to the cloud

	// CLI flags for the run
	seed              int64   // Seed for sampled distributions and selectivity
	simulationHorizon float64 // Simulated time at which sensors stop
	drain             bool    // Let in-flight tuples finish after the horizon
	loopSamples       int     // Stop once every loop has this many samples
	sampled           bool    // Per-tuple selectivity draws instead of expected value
	logLevel          string  // Log verbosity level
	traceLevel        string  // Trace verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fog-sim",
	Short: "Discrete-event simulator for hierarchical fog/edge systems",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fog simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		if simulationHorizon <= 0 && loopSamples <= 0 {
			logrus.Fatalf("--horizon or --loop-samples must be positive")
		}

		spec := loadScenario()
		topo, app, policy, err := scenario.Build(spec)
		if err != nil {
			logrus.Fatalf("Invalid scenario %q: %v", spec.Name, err)
		}

		opts := []sim.Option{sim.WithSeed(seed), sim.WithTrace(trace.TraceLevel(traceLevel))}
		if sampled {
			opts = append(opts, sim.WithSampledSelectivity())
		}
		controller := sim.NewController(topo, app, policy, opts...)
		stop := sim.StopCondition{Deadline: simulationHorizon, Drain: drain, LoopSamples: loopSamples}
		metrics, err := controller.Run(stop)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		metrics.Print(os.Stdout)

		if st := controller.Trace(); st != nil {
			summary := trace.Summarize(st)
			logrus.Infof("trace: %d events, %d tuples processed (mean residence %.4f), %d actuations",
				summary.TotalEvents, summary.TuplesProcessed, summary.MeanResidence, summary.Actuations)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadScenario reads --scenario if given, else builds the traffic preset.
func loadScenario() *scenario.Spec {
	if scenarioPath != "" {
		spec, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario %s: %v", scenarioPath, err)
		}
		return spec
	}
	if intersections < 1 || cameras < 1 {
		logrus.Fatalf("--intersections and --cameras must be at least 1")
	}
	return scenario.TrafficMonitoring(scenario.TrafficOptions{
		Intersections:          intersections,
		CamerasPerIntersection: cameras,
		CloudOnly:              cloudOnly,
	})
}

// addScenarioFlags registers the flags selecting a scenario.
func addScenarioFlags(cmd *cobra.Command) {
	defaults := scenario.DefaultTrafficOptions()
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML (default: traffic-monitoring preset)")
	cmd.Flags().IntVar(&intersections, "intersections", defaults.Intersections, "Intersections in the traffic preset")
	cmd.Flags().IntVar(&cameras, "cameras", defaults.CamerasPerIntersection, "Cameras per intersection in the traffic preset")
	cmd.Flags().BoolVar(&cloudOnly, "cloud", false, "Map every preset module to the cloud instead of edgewards placement")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	addScenarioFlags(runCmd)
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for sampled distributions and selectivity")
	runCmd.Flags().Float64Var(&simulationHorizon, "horizon", 1000, "Simulated time at which the run ends")
	runCmd.Flags().BoolVar(&drain, "drain", false, "Stop sensors at the horizon but let in-flight tuples finish")
	runCmd.Flags().IntVar(&loopSamples, "loop-samples", 0, "Stop once every loop has this many latency samples")
	runCmd.Flags().BoolVar(&sampled, "sampled-selectivity", false, "Draw selectivity per tuple instead of using expected value")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, tuples, events)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
