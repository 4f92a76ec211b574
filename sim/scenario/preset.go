package scenario

import (
	"fmt"

	"github.com/fog-sim/fog-sim/sim"
)

// TrafficOptions sizes the traffic-monitoring preset.
type TrafficOptions struct {
	Intersections          int
	CamerasPerIntersection int
	// CloudOnly maps every module to the cloud instead of placing edgewards.
	CloudOnly bool
}

// DefaultTrafficOptions returns two intersections with two cameras each.
func DefaultTrafficOptions() TrafficOptions {
	return TrafficOptions{Intersections: 2, CamerasPerIntersection: 2}
}

const (
	deviceStorage = 1000000
	moduleMIPS    = 1000
	moduleRAM     = 10
)

// TrafficMonitoring builds the smart traffic monitoring scenario: a cloud,
// one regional edge server, a gateway per intersection and camera nodes
// under each gateway. Every camera carries CAMERA, SPEED, GPS and ENV sensors
// and a TRAFFIC_SIGNAL actuator.
func TrafficMonitoring(opts TrafficOptions) *Spec {
	spec := &Spec{Name: "5g-smart-traffic"}
	spec.Devices = append(spec.Devices,
		fogDevice("cloud", "", 44800, 40000, 10000, 10000, 0, 0, 0.01, 16*103, 16*83.25),
		fogDevice("edge-server", "cloud", 5600, 8000, 10000, 10000, 1, 30, 0, 107.339, 83.4333),
	)
	for i := 0; i < opts.Intersections; i++ {
		id := fmt.Sprintf("int-%d", i)
		gateway := id + "-gateway"
		spec.Devices = append(spec.Devices, fogDevice(gateway, "edge-server", 2800, 4000, 10000, 10000, 2, 5, 0, 87.53, 82.44))
		for j := 0; j < opts.CamerasPerIntersection; j++ {
			camID := fmt.Sprintf("%s-cam%d", id, j)
			cam := "cam-" + camID
			spec.Devices = append(spec.Devices, fogDevice(cam, gateway, 1000, 2000, 5000, 5000, 3, 1, 0, 87.53, 82.44))
			spec.Sensors = append(spec.Sensors,
				periodicSensor("cam-sensor-"+camID, "CAMERA", cam, 2),
				periodicSensor("speed-sensor-"+camID, "SPEED", cam, 2),
				periodicSensor("gps-sensor-"+camID, "GPS", cam, 2),
				periodicSensor("env-sensor-"+camID, "ENV", cam, 10),
			)
			spec.Actuators = append(spec.Actuators, ActuatorSpec{
				Name: "signal-" + camID, Type: "TRAFFIC_SIGNAL", Device: cam, Latency: 0.5,
			})
		}
	}

	spec.Application = trafficApplication()
	if opts.CloudOnly {
		mapping := make(map[string]string)
		for _, m := range spec.Application.Modules {
			mapping[m.Name] = "cloud"
		}
		spec.Placement = PlacementSpec{Policy: PolicyMapping, Mapping: mapping}
	} else {
		spec.Placement = PlacementSpec{Policy: PolicyEdgewards, Mapping: map[string]string{"user_interface": "cloud"}}
	}
	return spec
}

func fogDevice(name, parent string, mips, ram, upBw, downBw float64, level int, uplinkLatency, ratePerMIPS, busy, idle float64) DeviceSpec {
	return DeviceSpec{
		Name:          name,
		Parent:        parent,
		Level:         level,
		MIPS:          mips,
		PEs:           1,
		RAM:           ram,
		UpBw:          upBw,
		DownBw:        downBw,
		UplinkLatency: uplinkLatency,
		Storage:       deviceStorage,
		RatePerMIPS:   ratePerMIPS,
		Power:         PowerSpec{Model: "linear", Busy: busy, Idle: idle},
	}
}

func periodicSensor(name, sensorType, device string, period float64) SensorSpec {
	return SensorSpec{
		Name:         name,
		Type:         sensorType,
		Device:       device,
		Latency:      0.5,
		Distribution: sim.DistributionSpec{Type: "deterministic", Value: period},
	}
}

func trafficApplication() ApplicationSpec {
	return ApplicationSpec{
		Name: "5g-smart-traffic",
		Modules: []ModuleSpec{
			{Name: "congestion_detector", MIPS: moduleMIPS, RAM: moduleRAM},
			{Name: "speed_estimator", MIPS: moduleMIPS, RAM: moduleRAM},
			{Name: "event_detector", MIPS: moduleMIPS, RAM: moduleRAM},
			{Name: "user_interface", MIPS: moduleMIPS, RAM: moduleRAM},
		},
		Edges: []EdgeSpec{
			{Source: "CAMERA", Dest: "congestion_detector", ProcessingLength: 2000, NetworkLength: 2000, TupleType: "CAMERA_STREAM", Direction: "up", Kind: "sensor"},
			{Source: "SPEED", Dest: "speed_estimator", ProcessingLength: 1000, NetworkLength: 1000, TupleType: "SPEED_DATA", Direction: "up", Kind: "sensor"},
			{Source: "GPS", Dest: "speed_estimator", ProcessingLength: 1000, NetworkLength: 500, TupleType: "GPS_DATA", Direction: "up", Kind: "sensor"},
			{Source: "ENV", Dest: "event_detector", ProcessingLength: 500, NetworkLength: 500, TupleType: "ENV_DATA", Direction: "up", Kind: "sensor"},
			{Source: "congestion_detector", Dest: "event_detector", ProcessingLength: 1000, NetworkLength: 1000, TupleType: "CONGESTION", Direction: "up", Kind: "module"},
			{Source: "speed_estimator", Dest: "event_detector", ProcessingLength: 1000, NetworkLength: 1000, TupleType: "SPEED_STATS", Direction: "up", Kind: "module"},
			{Source: "event_detector", Dest: "user_interface", ProcessingLength: 500, NetworkLength: 500, TupleType: "ALERTS", Direction: "up", Kind: "module"},
			{Source: "event_detector", Dest: "TRAFFIC_SIGNAL", ProcessingLength: 100, NetworkLength: 28, TupleType: "SIGNAL_UPDATE", Direction: "down", Kind: "actuator"},
		},
		Mappings: []MappingSpec{
			{Module: "congestion_detector", In: "CAMERA_STREAM", Out: "CONGESTION", Selectivity: 0.8},
			{Module: "speed_estimator", In: "SPEED_DATA", Out: "SPEED_STATS", Selectivity: 0.9},
			{Module: "speed_estimator", In: "GPS_DATA", Out: "SPEED_STATS", Selectivity: 0.9},
			{Module: "event_detector", In: "ENV_DATA", Out: "ALERTS", Selectivity: 0.7},
		},
		Loops: [][]string{
			{"congestion_detector", "event_detector"},
			{"speed_estimator", "event_detector", "TRAFFIC_SIGNAL"},
		},
	}
}
