package naive

import "time"

// Time tracks frame timing for the engine's single frame loop.
type Time struct {
	last       time.Time
	Dt         float64
	FrameCount uint64
}

func NewTime() *Time {
	return &Time{last: time.Now()}
}

// Tick advances the clock by one frame, clamping dt to a 10fps floor so a
// startup hitch or debugger pause doesn't blow up physics integration.
func (t *Time) Tick() {
	now := time.Now()
	dt := now.Sub(t.last).Seconds()
	if dt > 0.1 {
		dt = 0.1
	}
	t.last = now
	t.Dt = dt
	t.FrameCount++
}
