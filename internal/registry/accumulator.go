package registry

import (
	"github.com/satriahrh/juru/server/domain/entities"
)

// DefaultThresholdBytes is roughly 1.9 seconds of 8 kHz mu-law telephony audio
const DefaultThresholdBytes = 15000

// Accumulator applies the dispatch threshold to a connection's audio buffer.
// It only touches the buffer of the connection it is given.
type Accumulator struct {
	threshold int
}

// NewAccumulator creates an accumulator. A non-positive threshold falls back to DefaultThresholdBytes.
func NewAccumulator(thresholdBytes int) *Accumulator {
	if thresholdBytes <= 0 {
		thresholdBytes = DefaultThresholdBytes
	}
	return &Accumulator{threshold: thresholdBytes}
}

// Threshold returns the configured dispatch threshold in bytes
func (a *Accumulator) Threshold() int {
	return a.threshold
}

// Append concatenates fragment onto the connection buffer in arrival order
func (a *Accumulator) Append(conn *entities.Connection, fragment []byte) {
	conn.AppendAudio(fragment)
}

// ShouldDispatch reports whether the buffer is strictly larger than the threshold
func (a *Accumulator) ShouldDispatch(conn *entities.Connection) bool {
	return conn.BufferLen() > a.threshold
}

// Drain atomically returns the buffered audio and resets the buffer
func (a *Accumulator) Drain(conn *entities.Connection) []byte {
	return conn.DrainAudio()
}

// Offer appends fragment and, if the threshold is crossed while no dispatch is
// in flight for conn, drains the buffer and returns the segment to dispatch.
// Every segment returned by Offer must be followed by exactly one Complete.
func (a *Accumulator) Offer(conn *entities.Connection, fragment []byte) ([]byte, bool) {
	segment := conn.AppendAndClaim(fragment, a.threshold)
	return segment, segment != nil
}

// Complete marks the in-flight dispatch of conn as finished. Audio that
// accumulated past the threshold meanwhile is picked up by the next Offer.
func (a *Accumulator) Complete(conn *entities.Connection) {
	conn.ReleaseDispatch()
}
