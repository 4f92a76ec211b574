package sim

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fog-sim/fog-sim/sim/internal/testutil"
)

func TestCalculatePercentile(t *testing.T) {
	data := []int{5, 1, 4, 2, 3}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 3},
		{100, 5},
	}
	for _, tt := range tests {
		if got := CalculatePercentile(data, tt.p); got != tt.want {
			t.Errorf("CalculatePercentile(p=%g) = %v, want %v", tt.p, got, tt.want)
		}
	}
	assert.Equal(t, []int{5, 1, 4, 2, 3}, data, "input is not reordered")
	assert.Equal(t, 0.0, CalculatePercentile([]float64{}, 50))
}

func TestSummarize(t *testing.T) {
	lm := summarize("loop", []float64{4, 2, 6})

	assert.Equal(t, 3, lm.Count)
	testutil.AssertFloat64Equal(t, "mean", 4, lm.Mean, 1e-12)
	testutil.AssertFloat64Equal(t, "stddev", 2, lm.StdDev, 1e-12)
	assert.Equal(t, 2.0, lm.Min)
	assert.Equal(t, 6.0, lm.Max)
	assert.Equal(t, 4.0, lm.P50)
	assert.Equal(t, []float64{4, 2, 6}, lm.Samples, "samples keep completion order")

	single := summarize("one", []float64{1.5})
	assert.Equal(t, 0.0, single.StdDev)
	assert.Equal(t, 1.5, single.P99)

	empty := summarize("none", nil)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Mean)
}

func TestGenericHelpers(t *testing.T) {
	assert.Equal(t, 6.0, Sum([]int{1, 2, 3}))
	assert.Equal(t, 3.5, SumValues(map[string]float64{"a": 1, "b": 2.5}))
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}

func TestMetrics_Print(t *testing.T) {
	m := &Metrics{
		RunID:            "run-1",
		Policy:           "edgewards",
		Placement:        map[string]string{"m": "gateway"},
		SimEndedTime:     10,
		Loops:            []LoopMetrics{summarize("m->ACT", []float64{1, 2}), {Name: "idle"}},
		Devices:          []DeviceMetrics{{Name: "gateway", Energy: 12.5, Utilization: 0.25, Processed: 3}},
		TotalEnergy:      12.5,
		SensorEmissions:  map[string]int{"s": 4},
		ActuatorArrivals: map[string]int{"a": 2},
	}

	var buf bytes.Buffer
	m.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "Placement Policy     : edgewards")
	assert.Contains(t, out, fmt.Sprintf("%-20s -> %s", "m", "gateway"))
	assert.Contains(t, out, "m->ACT : n=2 mean=1.5000")
	assert.Contains(t, out, "idle : no samples")
	assert.Contains(t, out, fmt.Sprintf("%-20s : 12.500 (util 25.00%%, processed 3)", "gateway"))
	assert.Contains(t, out, "Sensor Emissions     : 4")
	assert.Equal(t, 4, m.TotalEmissions())
	assert.Equal(t, 2, m.TotalActuations())
}
