package sim

import "testing"

// twoLevelTopology builds cloud -> edge -> gateway -> {leaf-0, leaf-1}.
// Leaves are too small to host a 10 MIPS module; the gateway is not.
// Each leaf carries one "A" sensor of period 2; leaf-1's sensor latency is
// 1s longer so the two streams never contend on the gateway.
func twoLevelTopology(t *testing.T) *Topology {
	t.Helper()
	topo := NewTopology()
	devices := []Device{
		{Name: "cloud", Level: 0, MIPS: 1000, RAM: 4000, UpBw: 1000, DownBw: 1000, Power: LinearPowerModel{Busy: 200, Idle: 100}},
		{Name: "edge", ParentName: "cloud", Level: 1, MIPS: 500, RAM: 2000, UpBw: 1000, DownBw: 1000, UplinkLatency: 2, Power: LinearPowerModel{Busy: 120, Idle: 80}},
		{Name: "gateway", ParentName: "edge", Level: 2, MIPS: 100, RAM: 1000, UpBw: 1000, DownBw: 1000, UplinkLatency: 1, Power: LinearPowerModel{Busy: 100, Idle: 50}},
		{Name: "leaf-0", ParentName: "gateway", Level: 3, MIPS: 5, RAM: 100, UpBw: 1000, DownBw: 1000, UplinkLatency: 0.5, Power: LinearPowerModel{Busy: 10, Idle: 5}},
		{Name: "leaf-1", ParentName: "gateway", Level: 3, MIPS: 5, RAM: 100, UpBw: 1000, DownBw: 1000, UplinkLatency: 0.5, Power: LinearPowerModel{Busy: 10, Idle: 5}},
	}
	for _, d := range devices {
		if _, err := topo.AddDevice(d); err != nil {
			t.Fatalf("AddDevice(%s): %v", d.Name, err)
		}
	}
	sensors := []*Sensor{
		{Name: "s-0", Type: "A", DeviceName: "leaf-0", Latency: 0.2, Distribution: DeterministicDistribution{Value: 2}},
		{Name: "s-1", Type: "A", DeviceName: "leaf-1", Latency: 1.2, Distribution: DeterministicDistribution{Value: 2}},
	}
	for _, s := range sensors {
		if err := topo.AddSensor(s); err != nil {
			t.Fatalf("AddSensor(%s): %v", s.Name, err)
		}
	}
	if err := topo.AddActuator(&Actuator{Name: "act", Type: "ACT", DeviceName: "edge", Latency: 0.3}); err != nil {
		t.Fatalf("AddActuator: %v", err)
	}
	if err := topo.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return topo
}

// singleModuleApp is A -> m -> ACT with m turning every A into a B.
// m needs 50 MI per tuple (0.5s on the gateway).
func singleModuleApp(t *testing.T) *Application {
	t.Helper()
	app := NewApplication("single")
	mustNoErr(t, app.AddModule("m", 10, WithModuleRAM(10)))
	mustNoErr(t, app.AddEdge("A", "m", 50, 100, "A", DirectionUp, EdgeSensor))
	mustNoErr(t, app.AddEdge("m", "ACT", 0, 50, "B", DirectionDown, EdgeActuator))
	mustNoErr(t, app.AddTupleMapping("m", "A", "B", 1.0))
	mustNoErr(t, app.SetLoops([]string{"m", "ACT"}))
	mustNoErr(t, app.Finalize())
	return app
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
