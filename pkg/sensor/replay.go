package sensor

import "time"

// Replay returns a fixed sequence of readings, wrapping around at the end.
// Values above MaxReading are clamped. Elapsed time is ignored.
type Replay struct {
	readings []Reading
	pos      int
}

// NewReplay creates a source that plays back readings in order.
func NewReplay(readings ...Reading) *Replay {
	r := &Replay{readings: make([]Reading, len(readings))}
	for i, v := range readings {
		r.readings[i] = min(v, MaxReading)
	}
	return r
}

// Sample returns the next reading, or 0 if the sequence is empty.
func (r *Replay) Sample(elapsed time.Duration) (Reading, error) {
	if elapsed < 0 {
		return 0, ErrNegativeElapsed
	}
	if len(r.readings) == 0 {
		return 0, nil
	}
	v := r.readings[r.pos]
	r.pos = (r.pos + 1) % len(r.readings)
	return v, nil
}
