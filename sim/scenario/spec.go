// Package scenario describes a complete simulation input (topology, sensors,
// actuators, application and placement) as YAML, and builds engine values
// from it.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fog-sim/fog-sim/sim"
)

// Spec is the serializable form of a scenario.
type Spec struct {
	Name        string          `yaml:"name"`
	Devices     []DeviceSpec    `yaml:"devices"`
	Sensors     []SensorSpec    `yaml:"sensors"`
	Actuators   []ActuatorSpec  `yaml:"actuators,omitempty"`
	Application ApplicationSpec `yaml:"application"`
	Placement   PlacementSpec   `yaml:"placement"`
}

// DeviceSpec describes one fog device. Parent is empty for the root.
type DeviceSpec struct {
	Name          string    `yaml:"name"`
	Parent        string    `yaml:"parent,omitempty"`
	Level         int       `yaml:"level"`
	MIPS          float64   `yaml:"mips"`
	PEs           int       `yaml:"pes,omitempty"`
	RAM           float64   `yaml:"ram"`
	UpBw          float64   `yaml:"up_bw"`
	DownBw        float64   `yaml:"down_bw"`
	UplinkLatency float64   `yaml:"uplink_latency,omitempty"`
	Storage       float64   `yaml:"storage,omitempty"`
	RatePerMIPS   float64   `yaml:"rate_per_mips,omitempty"`
	Power         PowerSpec `yaml:"power"`
}

// PowerSpec selects a power model: "linear" (default) or "constant".
type PowerSpec struct {
	Model string  `yaml:"model,omitempty"`
	Busy  float64 `yaml:"busy,omitempty"`
	Idle  float64 `yaml:"idle,omitempty"`
	Watts float64 `yaml:"watts,omitempty"`
}

// SensorSpec attaches a sensor to a leaf device.
type SensorSpec struct {
	Name         string               `yaml:"name"`
	Type         string               `yaml:"type"`
	Device       string               `yaml:"device"`
	Latency      float64              `yaml:"latency"`
	Distribution sim.DistributionSpec `yaml:"distribution"`
}

// ActuatorSpec attaches an actuator to a device.
type ActuatorSpec struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Device  string  `yaml:"device"`
	Latency float64 `yaml:"latency"`
}

// ApplicationSpec is the application flow graph.
type ApplicationSpec struct {
	Name     string        `yaml:"name"`
	Modules  []ModuleSpec  `yaml:"modules"`
	Edges    []EdgeSpec    `yaml:"edges"`
	Mappings []MappingSpec `yaml:"mappings,omitempty"`
	Loops    [][]string    `yaml:"loops,omitempty"`
}

// ModuleSpec declares a module.
type ModuleSpec struct {
	Name string  `yaml:"name"`
	MIPS float64 `yaml:"mips"`
	RAM  float64 `yaml:"ram,omitempty"`
}

// EdgeSpec declares an edge; Direction is "up" or "down", Kind is "sensor",
// "module" or "actuator".
type EdgeSpec struct {
	Source           string  `yaml:"source"`
	Dest             string  `yaml:"dest"`
	ProcessingLength float64 `yaml:"processing_length"`
	NetworkLength    float64 `yaml:"network_length"`
	TupleType        string  `yaml:"tuple_type"`
	Direction        string  `yaml:"direction"`
	Kind             string  `yaml:"kind"`
}

// MappingSpec declares a tuple mapping.
type MappingSpec struct {
	Module      string  `yaml:"module"`
	In          string  `yaml:"in"`
	Out         string  `yaml:"out"`
	Selectivity float64 `yaml:"selectivity"`
}

// PlacementSpec selects the placement policy. For "mapping" every module must
// appear in Mapping; for "edgewards" Mapping pins modules before the walk.
type PlacementSpec struct {
	Policy  string            `yaml:"policy"`
	Mapping map[string]string `yaml:"mapping,omitempty"`
}

const (
	PolicyEdgewards = "edgewards"
	PolicyMapping   = "mapping"
)

var validPolicies = map[string]bool{PolicyEdgewards: true, PolicyMapping: true}

var validPowerModels = map[string]bool{"": true, "linear": true, "constant": true}

// Load reads a scenario YAML file. Unknown fields are rejected.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes scenario YAML. Unknown fields are rejected.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &spec, nil
}

// Marshal encodes a scenario as YAML.
func Marshal(spec *Spec) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks the fields the engine does not check itself. Structural
// problems (unknown parents, bad edges) surface from Build.
func (s *Spec) Validate() error {
	if len(s.Devices) == 0 {
		return fmt.Errorf("at least one device required")
	}
	for i, d := range s.Devices {
		if !validPowerModels[d.Power.Model] {
			return fmt.Errorf("device[%d] %q: unknown power model %q; valid: linear, constant", i, d.Name, d.Power.Model)
		}
	}
	if !validPolicies[s.Placement.Policy] {
		return fmt.Errorf("unknown placement policy %q; valid: edgewards, mapping", s.Placement.Policy)
	}
	for i, e := range s.Application.Edges {
		if e.Direction != string(sim.DirectionUp) && e.Direction != string(sim.DirectionDown) {
			return fmt.Errorf("edge[%d] %s->%s: unknown direction %q; valid: up, down", i, e.Source, e.Dest, e.Direction)
		}
	}
	return nil
}
