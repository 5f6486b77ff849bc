package filter

import "errors"

// DefaultWindow is the number of samples averaged by the pipeline.
const DefaultWindow = 8

// ErrInvalidWindow is returned when a filter is created with a window smaller than one.
var ErrInvalidWindow = errors.New("filter: window must be at least 1")

// MovingAverage is a fixed-window incremental mean.
// Until the window fills, the output is the mean of all values pushed so far.
// Not safe for concurrent use.
type MovingAverage struct {
	buf    []float64
	sum    float64
	idx    int // next slot to overwrite
	filled int // number of valid slots, saturates at len(buf)
}

// New creates a moving-average filter over the last window samples.
func New(window int) (*MovingAverage, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &MovingAverage{
		buf: make([]float64, window),
	}, nil
}

// Push adds x to the window and returns the updated mean.
// The running sum is adjusted by the evicted and inserted values only.
func (m *MovingAverage) Push(x float64) float64 {
	if m.filled < len(m.buf) {
		m.buf[m.idx] = x
		m.sum += x
		m.idx = (m.idx + 1) % len(m.buf)
		m.filled++
		return m.sum / float64(m.filled)
	}

	m.sum -= m.buf[m.idx]
	m.buf[m.idx] = x
	m.sum += x
	m.idx = (m.idx + 1) % len(m.buf)
	return m.sum / float64(len(m.buf))
}

// Value returns the current mean, or 0 if nothing has been pushed.
func (m *MovingAverage) Value() float64 {
	if m.filled == 0 {
		return 0
	}
	return m.sum / float64(m.filled)
}

// Len returns the number of valid samples in the window.
func (m *MovingAverage) Len() int {
	return m.filled
}

// Window returns the window size.
func (m *MovingAverage) Window() int {
	return len(m.buf)
}

// Reset discards all samples.
func (m *MovingAverage) Reset() {
	clear(m.buf)
	m.sum = 0
	m.idx = 0
	m.filled = 0
}
