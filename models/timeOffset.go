package models

import "time"

// TimeOffset is one measurement of the local clock against Steam's clock
type TimeOffset struct {
	Offset  int64 `json:"offset"`  // seconds to add to the local clock
	Latency int64 `json:"latency"` // round trip in milliseconds
}

// LatencyDuration returns the measured round trip as a time.Duration
func (o TimeOffset) LatencyDuration() time.Duration {
	return time.Duration(o.Latency) * time.Millisecond
}
