package sensor

import "time"

// Source produces one reading per cycle as a function of elapsed time.
type Source interface {
	Sample(elapsed time.Duration) (Reading, error)
}

// Ensure Simulator implements Source.
var _ Source = (*Simulator)(nil)

// Ensure Replay implements Source.
var _ Source = (*Replay)(nil)
