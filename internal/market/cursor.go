package market

import "time"

// SignalCursor walks a time-sorted signal series in lockstep with a quote stream.
// It only ever moves forward, so a caller replaying quotes in order can never
// observe a signal stamped after the quote it is processing.
type SignalCursor struct {
	series []Signal
	next   int
}

// NewSignalCursor wraps a validated, time-sorted series. Call ValidateSignals first.
func NewSignalCursor(series []Signal) *SignalCursor {
	return &SignalCursor{series: series}
}

// At advances past every signal stamped at or before ts and returns the most recent
// one. The flag is false until the first signal becomes visible.
func (c *SignalCursor) At(ts time.Time) (Signal, bool) {
	for c.next < len(c.series) && !c.series[c.next].Ts.After(ts) {
		c.next++
	}
	if c.next == 0 {
		return Signal{}, false
	}
	return c.series[c.next-1], true
}

// Seen reports how many signals have become visible so far.
func (c *SignalCursor) Seen() int { return c.next }
