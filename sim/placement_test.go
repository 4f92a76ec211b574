package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// budgetTopology is root -> mid -> leaf with one S sensor on leaf.
func budgetTopology(t *testing.T, rootMIPS, midMIPS, leafMIPS float64) *Topology {
	t.Helper()
	topo := NewTopology()
	for _, d := range []Device{
		{Name: "root", MIPS: rootMIPS, RAM: 1000},
		{Name: "mid", ParentName: "root", Level: 1, MIPS: midMIPS, RAM: 1000},
		{Name: "leaf", ParentName: "mid", Level: 2, MIPS: leafMIPS, RAM: 1000},
	} {
		_, err := topo.AddDevice(d)
		require.NoError(t, err)
	}
	require.NoError(t, topo.AddSensor(&Sensor{Name: "s", Type: "S", DeviceName: "leaf", Distribution: DeterministicDistribution{Value: 1}}))
	require.NoError(t, topo.Finalize())
	return topo
}

// pipelineApp is S -> p1 -> p2 -> p3 with the given MIPS demands.
func pipelineApp(t *testing.T, demands ...float64) *Application {
	t.Helper()
	app := NewApplication("pipeline")
	prev := "S"
	kind := EdgeSensor
	for i, d := range demands {
		name := []string{"p1", "p2", "p3", "p4"}[i]
		require.NoError(t, app.AddModule(name, d))
		require.NoError(t, app.AddEdge(prev, name, 1, 1, "T"+name, DirectionUp, kind))
		prev, kind = name, EdgeModule
	}
	require.NoError(t, app.Finalize())
	return app
}

func TestEdgewards_Budgets_NeverNegative(t *testing.T) {
	tests := []struct {
		name    string
		devices [3]float64 // root, mid, leaf
		demands []float64
		want    map[string]string
	}{
		{
			name:    "everything fits on the leaf",
			devices: [3]float64{1000, 100, 100},
			demands: []float64{30, 30, 40},
			want:    map[string]string{"p1": "leaf", "p2": "leaf", "p3": "leaf"},
		},
		{
			name:    "overflow climbs one level",
			devices: [3]float64{1000, 100, 50},
			demands: []float64{30, 30, 20},
			want:    map[string]string{"p1": "leaf", "p2": "mid", "p3": "leaf"},
		},
		{
			name:    "exact fit stays",
			devices: [3]float64{1000, 100, 60},
			demands: []float64{60, 100},
			want:    map[string]string{"p1": "leaf", "p2": "mid"},
		},
		{
			name:    "zero-capacity leaf pushes everything up",
			devices: [3]float64{1000, 10, 0},
			demands: []float64{5, 10},
			want:    map[string]string{"p1": "mid", "p2": "root"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a chain topology and pipeline
			topo := budgetTopology(t, tt.devices[0], tt.devices[1], tt.devices[2])
			app := pipelineApp(t, tt.demands...)

			// WHEN placed edgewards
			placement, err := (&Edgewards{}).Assign(app, topo)
			require.NoError(t, err)

			// THEN placement matches and no device is oversubscribed
			got := make(map[string]string)
			for m, id := range placement {
				got[m] = topo.Device(id).Name
			}
			assert.Equal(t, tt.want, got)
			for _, d := range topo.Devices() {
				used := 0.0
				for _, m := range placement.ModulesOn(app, d.ID) {
					used += m.MIPS
				}
				assert.LessOrEqual(t, used, d.Capacity(), "device %s", d.Name)
			}
		})
	}
}

func TestEdgewards_Pinned_PlacedFirst(t *testing.T) {
	// GIVEN p1 pinned to root although the leaf has room
	topo := budgetTopology(t, 1000, 100, 100)
	app := pipelineApp(t, 10, 10)

	placement, err := (&Edgewards{Pinned: map[string]string{"p1": "root"}}).Assign(app, topo)

	require.NoError(t, err)
	root, _ := topo.DeviceByName("root")
	leaf, _ := topo.DeviceByName("leaf")
	assert.Equal(t, root.ID, placement["p1"])
	assert.Equal(t, leaf.ID, placement["p2"])
}

func TestEdgewards_UnreachableModule_GoesToRoot(t *testing.T) {
	topo := budgetTopology(t, 1000, 100, 100)
	app := NewApplication("orphaned")
	require.NoError(t, app.AddModule("fed", 10))
	require.NoError(t, app.AddModule("orphan", 10))
	require.NoError(t, app.AddEdge("S", "fed", 1, 1, "T", DirectionUp, EdgeSensor))
	require.NoError(t, app.Finalize())

	placement, err := (&Edgewards{}).Assign(app, topo)

	require.NoError(t, err)
	assert.Equal(t, topo.Root(), placement["orphan"])
	leaf, _ := topo.DeviceByName("leaf")
	assert.Equal(t, leaf.ID, placement["fed"])
}

func TestEdgewards_FitsNowhere_UnresolvedTarget(t *testing.T) {
	topo := budgetTopology(t, 100, 100, 100)
	app := pipelineApp(t, 500)

	_, err := (&Edgewards{}).Assign(app, topo)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedTarget))
}

func TestEdgewards_LeafOrder_LargestBudgetFirst(t *testing.T) {
	// GIVEN two leaves under a small gateway; only one leaf can host p1
	topo := NewTopology()
	for _, d := range []Device{
		{Name: "root", MIPS: 1000, RAM: 1000},
		{Name: "small", ParentName: "root", Level: 1, MIPS: 20, RAM: 1000},
		{Name: "big", ParentName: "root", Level: 1, MIPS: 50, RAM: 1000},
	} {
		_, err := topo.AddDevice(d)
		require.NoError(t, err)
	}
	for _, s := range []*Sensor{
		{Name: "s-small", Type: "S", DeviceName: "small", Distribution: DeterministicDistribution{Value: 1}},
		{Name: "s-big", Type: "S", DeviceName: "big", Distribution: DeterministicDistribution{Value: 1}},
	} {
		require.NoError(t, topo.AddSensor(s))
	}
	require.NoError(t, topo.Finalize())
	app := pipelineApp(t, 40)

	// WHEN placed
	placement, err := (&Edgewards{}).Assign(app, topo)

	// THEN the leaf with the larger remaining budget is visited first
	require.NoError(t, err)
	big, _ := topo.DeviceByName("big")
	assert.Equal(t, big.ID, placement["p1"])
}

func TestFixedMapping_Errors(t *testing.T) {
	topo := budgetTopology(t, 1000, 100, 100)
	app := pipelineApp(t, 10, 10)

	tests := []struct {
		name    string
		mapping map[string]string
	}{
		{"unmapped module", map[string]string{"p1": "leaf"}},
		{"unknown module", map[string]string{"p1": "leaf", "p2": "leaf", "ghost": "root"}},
		{"unknown device", map[string]string{"p1": "leaf", "p2": "nowhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&FixedMapping{Mapping: tt.mapping}).Assign(app, topo)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnresolvedTarget), "got %v", err)
		})
	}
}

func TestFixedMapping_AppliedVerbatim(t *testing.T) {
	topo := budgetTopology(t, 1000, 1, 1)
	app := pipelineApp(t, 10, 10)

	// oversubscription is the caller's business
	placement, err := (&FixedMapping{Mapping: map[string]string{"p1": "leaf", "p2": "mid"}}).Assign(app, topo)

	require.NoError(t, err)
	mid, _ := topo.DeviceByName("mid")
	assert.Equal(t, mid.ID, placement["p2"])
	assert.Len(t, placement.ModulesOn(app, mid.ID), 1)
}

func TestPlacement_RequiresFinalized(t *testing.T) {
	topo := budgetTopology(t, 1000, 100, 100)
	app := NewApplication("raw")
	require.NoError(t, app.AddModule("m", 1))

	_, err := (&Edgewards{}).Assign(app, topo)

	assert.True(t, errors.Is(err, ErrGraphInconsistency))
}
