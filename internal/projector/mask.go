package projector

import "math/bits"

// Mask is a column-inclusion bitset. Bit i of byte i/8 (LSB first) marks
// column i, the same layout MySQL uses for the rows event column bitmaps.
type Mask struct {
	bits  []byte
	owned bool // bits may be written in place
}

// MaskFromBitmap wraps a binlog column bitmap without copying it. Set
// copies before its first write, so the bitmap itself is never modified.
func MaskFromBitmap(bitmap []byte) Mask {
	return Mask{bits: bitmap}
}

// NewMask returns a mask with the given column indices set.
func NewMask(indices ...int) Mask {
	m := Mask{}
	for _, i := range indices {
		m.Set(i)
	}
	return m
}

// FullMask returns a mask covering columns [0, n).
func FullMask(n int) Mask {
	m := Mask{bits: make([]byte, (n+7)/8), owned: true}
	for i := 0; i < n; i++ {
		m.Set(i)
	}
	return m
}

func (m *Mask) Set(i int) {
	if i < 0 {
		return
	}
	if !m.owned {
		m.bits = append([]byte(nil), m.bits...)
		m.owned = true
	}
	for len(m.bits) <= i/8 {
		m.bits = append(m.bits, 0)
	}
	m.bits[i/8] |= 1 << (uint(i) % 8)
}

func (m Mask) Has(i int) bool {
	if i < 0 || i/8 >= len(m.bits) {
		return false
	}
	return m.bits[i/8]&(1<<(uint(i)%8)) != 0
}

// NextSet returns the lowest set index >= from, or -1 when there is none.
func (m Mask) NextSet(from int) int {
	if from < 0 {
		from = 0
	}
	b := from / 8
	if b >= len(m.bits) {
		return -1
	}
	word := m.bits[b] >> (uint(from) % 8)
	if word != 0 {
		return from + bits.TrailingZeros8(word)
	}
	for b++; b < len(m.bits); b++ {
		if m.bits[b] != 0 {
			return b*8 + bits.TrailingZeros8(m.bits[b])
		}
	}
	return -1
}

// Len is the number of set bits.
func (m Mask) Len() int {
	n := 0
	for _, b := range m.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Indices lists the set indices in ascending order.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Len())
	for i := m.NextSet(0); i != -1; i = m.NextSet(i + 1) {
		out = append(out, i)
	}
	return out
}
