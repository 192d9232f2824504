// Package color assigns deterministic pseudo-random colors to entities
// via a fixed-seed LFSR followed by an HSV-wheel-to-RGB conversion.
package color

import "math"

// RGB is a color as three 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// HSVWheel computes the color for step out of num_steps equally spaced
// points around the hue wheel.
func HSVWheel(step, numSteps uint32) RGB {
	if step > numSteps {
		panic("color: step must be <= numSteps")
	}
	h := float64(step) / float64(numSteps)
	i := math.Floor(h * 6.0)
	f := h*6.0 - i
	q := 1.0 - f
	rem := uint32(i) % 6

	var r, g, b float64
	switch rem {
	case 0:
		r, g, b = 1, f, 0
	case 1:
		r, g, b = q, 1, 0
	case 2:
		r, g, b = 0, 1, f
	case 3:
		r, g, b = 0, q, 1
	case 4:
		r, g, b = f, 0, 1
	case 5:
		r, g, b = 1, 0, q
	}
	return RGB{
		R: uint8(math.Floor(r * 255.0)),
		G: uint8(math.Floor(g * 255.0)),
		B: uint8(math.Floor(b * 255.0)),
	}
}

// lfsrSeed is the fixed constant so runs reproduce.
const lfsrSeed = 0b101001001111001110100011

// tapsTable is the polynomial tap table for maximal-length LFSRs, bit
// widths 2-24 (taps per Wikipedia's table of maximal-LFSR polynomials).
var tapsTable = map[uint32][]uint32{
	2:  {2, 1},
	3:  {3, 2},
	4:  {4, 3},
	5:  {5, 3},
	6:  {6, 5},
	7:  {7, 6},
	8:  {8, 6, 5, 4},
	9:  {9, 5},
	10: {10, 7},
	11: {11, 9},
	12: {12, 11, 10, 4},
	13: {13, 12, 11, 8},
	14: {14, 13, 12, 2},
	15: {15, 14},
	16: {16, 15, 13, 4},
	17: {17, 14},
	18: {18, 11},
	19: {19, 18, 17, 14},
	20: {20, 17},
	21: {21, 19},
	22: {22, 21},
	23: {23, 18},
	24: {24, 23, 22, 17},
}

// LFSR is a linear-feedback shift register seeded deterministically so
// repeated runs over the same entity count produce the same sequence.
type LFSR struct {
	register uint32
	bits     uint32
	MaxValue uint32
	taps     []uint32
}

// NewLFSR builds an LFSR sized for size distinct entities.
func NewLFSR(size uint64) *LFSR {
	neededBits := uint32(math.Floor(math.Log2(float64(size)))) + 1
	if neededBits < 2 {
		neededBits = 2 // the tap table starts at 2 bits
	}
	taps, ok := tapsTable[neededBits]
	if !ok {
		panic("color: LFSR requires more than 24 bits, unsupported")
	}
	register := (uint32(lfsrSeed) & (((uint32(1) << neededBits) - 1) << (24 - neededBits))) >> (24 - neededBits)
	return &LFSR{
		register: register,
		bits:     neededBits,
		MaxValue: uint32(1) << neededBits,
		taps:     taps,
	}
}

// Next advances the register and returns the next pseudo-random value.
func (l *LFSR) Next() uint32 {
	var xor uint32
	for _, t := range l.taps {
		xor += (l.register >> (l.bits - t)) & 1
	}
	xor &= 1
	l.register = ((l.register >> 1) | (xor << (l.bits - 1))) & ((uint32(1) << l.bits) - 1)
	return l.register
}

// AssignSequence returns count deterministic colors, one per entity, via
// LFSR-selected steps into the HSV wheel. Calling it twice with the same
// count reproduces the same sequence.
func AssignSequence(count uint64) []RGB {
	if count == 0 {
		return nil
	}
	lfsr := NewLFSR(count)
	numColors := lfsr.MaxValue
	colors := make([]RGB, count)
	for i := range colors {
		colors[i] = HSVWheel(lfsr.Next(), numColors)
	}
	return colors
}
