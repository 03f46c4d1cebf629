// Package bitset provides the fixed-width bitmask type shared by the
// terrain and plot engines. Tile domains, adjacency rows, and plot
// predicate sets are all Masks; the widest catalog in use is 16 tiles, so
// 32 bits leaves room to widen without touching any algorithm.
package bitset

import "math/rand"

// Mask is a fixed-width bit set. Bit i set means element i is present.
type Mask uint32

// MaxBits is the widest element index a Mask can hold.
const MaxBits = 32

// popcountLUT holds set-bit counts for every byte value.
var popcountLUT [256]uint8

func init() {
	for i := 1; i < 256; i++ {
		popcountLUT[i] = popcountLUT[i>>1] + uint8(i&1)
	}
}

// Bit returns a Mask with only bit i set.
func Bit(i int) Mask {
	return Mask(1) << uint(i)
}

// Full returns a Mask with the lowest n bits set.
func Full(n int) Mask {
	if n >= MaxBits {
		return ^Mask(0)
	}
	return (Mask(1) << uint(n)) - 1
}

// Has reports whether bit i is set.
func (m Mask) Has(i int) bool {
	return m&Bit(i) != 0
}

// Set returns m with bit i set.
func (m Mask) Set(i int) Mask {
	return m | Bit(i)
}

// Clear returns m with bit i cleared.
func (m Mask) Clear(i int) Mask {
	return m &^ Bit(i)
}

// Count returns the number of set bits using byte-wide table lookups.
func (m Mask) Count() int {
	return int(popcountLUT[m&0xFF]) +
		int(popcountLUT[(m>>8)&0xFF]) +
		int(popcountLUT[(m>>16)&0xFF]) +
		int(popcountLUT[(m>>24)&0xFF])
}

// Lowest returns the index of the lowest set bit, or -1 for the empty mask.
func (m Mask) Lowest() int {
	if m == 0 {
		return -1
	}
	pos := 0
	for m&1 == 0 {
		m >>= 1
		pos++
	}
	return pos
}

// Bits returns the indices of all set bits in ascending order.
func (m Mask) Bits() []int {
	out := make([]int, 0, m.Count())
	for i := 0; i < MaxBits && m != 0; i++ {
		if m&1 != 0 {
			out = append(out, i)
		}
		m >>= 1
	}
	return out
}

// RandomBit returns a uniformly chosen set bit using the given stream,
// or -1 for the empty mask.
func (m Mask) RandomBit(rng *rand.Rand) int {
	count := m.Count()
	if count == 0 {
		return -1
	}
	target := rng.Intn(count)
	seen := 0
	for i := 0; i < MaxBits; i++ {
		if m.Has(i) {
			if seen == target {
				return i
			}
			seen++
		}
	}
	return -1
}

// Subset reports whether every bit of m is also set in other.
func (m Mask) Subset(other Mask) bool {
	return m&^other == 0
}
