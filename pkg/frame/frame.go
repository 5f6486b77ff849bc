package frame

import "github.com/itohio/embsim/pkg/crc"

// Size is the frame length in bytes.
const Size = 4

// Frame is a status message: raw reading (big-endian), duty percent, and the
// low byte of the filtered reading. Its checksum travels beside it.
type Frame [Size]byte

// New builds a frame from a raw reading, a duty percent and a filtered reading.
func New(raw uint16, duty uint8, filtered uint16) Frame {
	return Frame{
		byte(raw >> 8),
		byte(raw & 0xFF),
		duty,
		byte(filtered & 0xFF),
	}
}

// Bytes returns the frame in wire order.
func (f Frame) Bytes() []byte {
	return f[:]
}

// Checksum returns the CRC-8 of the frame bytes.
func (f Frame) Checksum() uint8 {
	return crc.Checksum(f[:])
}

// Raw returns the raw reading carried by the frame.
func (f Frame) Raw() uint16 {
	return uint16(f[0])<<8 | uint16(f[1])
}

// Duty returns the duty percent carried by the frame.
func (f Frame) Duty() uint8 {
	return f[2]
}

// FilteredLow returns the low byte of the filtered reading.
func (f Frame) FilteredLow() uint8 {
	return f[3]
}
