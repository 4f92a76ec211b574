package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: minimal
devices:
  - name: cloud
    level: 0
    mips: 1000
    ram: 1000
    up_bw: 100
    down_bw: 100
    power: {model: constant, watts: 5}
  - name: leaf
    parent: cloud
    level: 1
    mips: 100
    ram: 100
    up_bw: 100
    down_bw: 100
    uplink_latency: 2
    power: {busy: 10, idle: 4}
sensors:
  - name: s
    type: TEMP
    device: leaf
    latency: 0.5
    distribution: {type: deterministic, value: 5}
actuators:
  - name: fan
    type: FAN
    device: leaf
    latency: 0.1
application:
  name: thermostat
  modules:
    - {name: control, mips: 50, ram: 10}
  edges:
    - {source: TEMP, dest: control, processing_length: 100, network_length: 10, tuple_type: READING, direction: up, kind: sensor}
    - {source: control, dest: FAN, processing_length: 0, network_length: 10, tuple_type: COMMAND, direction: down, kind: actuator}
  mappings:
    - {module: control, in: READING, out: COMMAND, selectivity: 1}
  loops:
    - [control, FAN]
placement:
  policy: edgewards
`

func TestParse_Minimal(t *testing.T) {
	spec, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "minimal", spec.Name)
	require.Len(t, spec.Devices, 2)
	assert.Equal(t, "constant", spec.Devices[0].Power.Model)
	assert.Equal(t, 2.0, spec.Devices[1].UplinkLatency)
	assert.Equal(t, 5.0, spec.Sensors[0].Distribution.Value)
	assert.Equal(t, [][]string{{"control", "FAN"}}, spec.Application.Loops)
	assert.Nil(t, spec.Placement.Mapping)
}

func TestParse_UnknownField_Rejected(t *testing.T) {
	_, err := Parse([]byte("name: x\ndevices: []\nbogus: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	spec, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "thermostat", spec.Application.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Spec)
		wantMsg string
	}{
		{"no devices", func(s *Spec) { s.Devices = nil }, "at least one device"},
		{"unknown power model", func(s *Spec) { s.Devices[0].Power.Model = "cubic" }, "unknown power model"},
		{"unknown policy", func(s *Spec) { s.Placement.Policy = "random" }, "unknown placement policy"},
		{"bad direction", func(s *Spec) { s.Application.Edges[0].Direction = "left" }, "unknown direction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse([]byte(minimalYAML))
			require.NoError(t, err)
			tt.mutate(spec)

			err = spec.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMarshal_ParseRoundTrip(t *testing.T) {
	spec := TrafficMonitoring(DefaultTrafficOptions())

	data, err := Marshal(spec)
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, spec, back)
}
