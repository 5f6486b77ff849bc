package crc

// Polynomial is the CRC-8 generator polynomial (x^8 + x^2 + x + 1).
const Polynomial = 0x07

// Checksum computes CRC-8 over data: polynomial 0x07, MSB first, initial
// value 0, no reflection and no final XOR. An empty slice yields 0.
func Checksum(data []byte) uint8 {
	return Update(0, data)
}

// Update continues a running checksum with more data.
func Update(crc uint8, data []byte) uint8 {
	for _, b := range data {
		crc ^= b
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
