package feeder

import "time"

// Pulse window of the feedback switch.
const (
	MinPulse = 50 * time.Millisecond
	MaxPulse = 500 * time.Millisecond
)

// PulseRecognizer detects a short press of the feedback switch.
// A press is the level going false and back to true within
// [MinPulse, MaxPulse].
type PulseRecognizer struct {
	last    bool
	lastAt  time.Time
	hasLast bool
}

// Update records a level and reports whether it completes a press.
func (r *PulseRecognizer) Update(state bool, now time.Time) bool {
	recognized := false
	if r.hasLast && !r.last && state {
		d := now.Sub(r.lastAt)
		recognized = d >= MinPulse && d <= MaxPulse
	}
	r.last, r.lastAt, r.hasLast = state, now, true
	return recognized
}

// Reset forgets the last level.
func (r *PulseRecognizer) Reset() {
	*r = PulseRecognizer{}
}
