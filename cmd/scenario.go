package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fog-sim/fog-sim/sim/scenario"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Print a scenario as YAML",
	Long:  "Print the traffic-monitoring preset (or a normalized --scenario file) as scenario YAML. Output is written to stdout.",
	Run: func(cmd *cobra.Command, args []string) {
		writeScenarioToStdout(loadScenario())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario and print its placement",
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadScenario()
		topo, app, policy, err := scenario.Build(spec)
		if err != nil {
			logrus.Fatalf("Invalid scenario %q: %v", spec.Name, err)
		}
		placement, err := policy.Assign(app, topo)
		if err != nil {
			logrus.Fatalf("Placement failed: %v", err)
		}
		fmt.Printf("scenario %q is valid: %d devices, %d sensors, %d actuators, %d modules\n",
			spec.Name, len(topo.Devices()), len(topo.Sensors()), len(topo.Actuators()), len(app.Modules()))
		for _, m := range app.Modules() {
			fmt.Printf("%-20s -> %s\n", m.Name, topo.Device(placement[m.Name]).Name)
		}
	},
}

func writeScenarioToStdout(spec *scenario.Spec) {
	data, err := scenario.Marshal(spec)
	if err != nil {
		logrus.Fatalf("YAML marshal failed: %v", err)
	}
	fmt.Print(string(data))
}

func init() {
	addScenarioFlags(scenarioCmd)
	addScenarioFlags(validateCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(validateCmd)
}
