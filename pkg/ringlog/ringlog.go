package ringlog

import (
	"errors"
	"unicode/utf8"
)

const (
	// DefaultCapacity is the number of lines retained by the pipeline.
	DefaultCapacity = 16
	// DefaultMaxLen is the longest line kept, in bytes. Longer lines are cut.
	DefaultMaxLen = 127
)

// ErrInvalidCapacity is returned when a log is created with a non-positive capacity or line length.
var ErrInvalidCapacity = errors.New("ringlog: capacity and line length must be at least 1")

// Log is a fixed-capacity FIFO of text lines. When full, each Push
// overwrites the oldest line.
// Not safe for concurrent use.
type Log struct {
	buf    []string
	maxLen int
	head   int // oldest retained line
	count  int
}

// New creates a log holding at most capacity lines of at most maxLen bytes each.
func New(capacity, maxLen int) (*Log, error) {
	if capacity <= 0 || maxLen <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Log{
		buf:    make([]string, capacity),
		maxLen: maxLen,
	}, nil
}

// Push appends a line, truncating it to the maximum length.
func (l *Log) Push(line string) {
	line = truncate(line, l.maxLen)

	idx := (l.head + l.count) % len(l.buf)
	l.buf[idx] = line
	if l.count < len(l.buf) {
		l.count++
		return
	}
	// Full: idx was the oldest slot, so the next one is now the oldest.
	l.head = (l.head + 1) % len(l.buf)
}

// Dump returns the retained lines from oldest to newest.
func (l *Log) Dump() []string {
	result := make([]string, l.count)
	for i := 0; i < l.count; i++ {
		result[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return result
}

// Len returns the number of retained lines.
func (l *Log) Len() int {
	return l.count
}

// Cap returns the log capacity.
func (l *Log) Cap() int {
	return len(l.buf)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
