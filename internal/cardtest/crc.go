package cardtest

// crcA computes the ISO14443-3 type A checksum: initial value 0x6363,
// transmitted low byte first.
func crcA(data []byte) (lo, hi byte) {
	crc := uint16(0x6363)
	for _, b := range data {
		b ^= byte(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (crc >> 8) ^ (w << 8) ^ (w << 3) ^ (w >> 4)
	}
	return byte(crc), byte(crc >> 8)
}

// verifyCRCA checks the trailing checksum of frame.
func verifyCRCA(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	lo, hi := crcA(frame[:len(frame)-2])
	return frame[len(frame)-2] == lo && frame[len(frame)-1] == hi
}
