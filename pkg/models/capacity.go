package models

// Capacity represents how much of a resource is currently committed against
// its maximum. Current is the committed amount, so the invariant
// 0 <= Current <= Maximum must hold at all times.
type Capacity struct {
	Current float64 `json:"Current"`
	Maximum float64 `json:"Maximum"`
	Unit    string  `json:"Unit"`
}

// Available returns the capacity still free for new reservations.
func (c Capacity) Available() float64 {
	return c.Maximum - c.Current
}

// UtilizationPercent returns the committed share of the maximum capacity as a
// percentage. A capacity with no maximum reports zero utilization.
func (c Capacity) UtilizationPercent() float64 {
	if c.Maximum == 0 {
		return 0
	}
	return (c.Current / c.Maximum) * 100
}
