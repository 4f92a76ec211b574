package sim

import "math"

// PowerModel maps a device's utilization in [0,1] to instantaneous power.
type PowerModel interface {
	Power(utilization float64) float64
}

// LinearPowerModel interpolates between idle and busy power:
// P(u) = Idle + (Busy - Idle) * u.
type LinearPowerModel struct {
	Busy float64
	Idle float64
}

// Power implements PowerModel.
func (m LinearPowerModel) Power(utilization float64) float64 {
	u := math.Max(0, math.Min(1, utilization))
	return m.Idle + (m.Busy-m.Idle)*u
}

// ConstantPowerModel draws the same power regardless of load.
type ConstantPowerModel struct {
	Watts float64
}

// Power implements PowerModel.
func (m ConstantPowerModel) Power(float64) float64 {
	return m.Watts
}
