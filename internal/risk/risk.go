package risk

// Limits caps exposure per order and per open position. Non-positive values disable a check.
type Limits struct {
	MaxOrderNotional    float64
	MaxPositionNotional float64
}

func (l Limits) AllowOrder(notional float64) bool {
	return l.MaxOrderNotional <= 0 || notional <= l.MaxOrderNotional
}

func (l Limits) AllowPosition(notional float64) bool {
	return l.MaxPositionNotional <= 0 || notional <= l.MaxPositionNotional
}
