package hashing

import "encoding/binary"

const (
	murmurSeed = 1
	murmurM    = 0x5bd1e995
	murmurR    = 24
)

// Fingerprint computes the CurseForge file fingerprint: 32-bit Murmur2
// with seed 1 over data with tab, newline, carriage return and space
// bytes removed.
func Fingerprint(data []byte) uint32 {
	return Murmur2(StripWhitespace(data), murmurSeed)
}

// StripWhitespace drops the bytes 9, 10, 13 and 32.
func StripWhitespace(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case 9, 10, 13, 32:
			continue
		}
		out = append(out, b)
	}
	return out
}

// Murmur2 is the 32-bit MurmurHash2 of data.
func Murmur2(data []byte, seed uint32) uint32 {
	n := len(data)
	h := seed ^ uint32(n)

	for len(data) >= 4 {
		k := binary.LittleEndian.Uint32(data)
		k *= murmurM
		k ^= k >> murmurR
		k *= murmurM
		h *= murmurM
		h ^= k
		data = data[4:]
	}

	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= murmurM
	}

	h ^= h >> 13
	h *= murmurM
	h ^= h >> 15
	return h
}
