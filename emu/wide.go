package emu

import (
	"math/bits"

	"github.com/sarchlab/otsim/insts"
)

// addWide returns a + b + carryIn and the carry out of bit 255.
func addWide(a, b insts.Wide, carryIn uint64) (insts.Wide, uint64) {
	var r insts.Wide
	c := carryIn
	for i := range r {
		r[i], c = bits.Add64(a[i], b[i], c)
	}
	return r, c
}

// subWide returns a - b - borrowIn and the borrow out of bit 255.
func subWide(a, b insts.Wide, borrowIn uint64) (insts.Wide, uint64) {
	var r insts.Wide
	c := borrowIn
	for i := range r {
		r[i], c = bits.Sub64(a[i], b[i], c)
	}
	return r, c
}

// shlWide shifts a left by n bits (n < 256).
func shlWide(a insts.Wide, n uint) insts.Wide {
	var r insts.Wide
	limbs, off := n/64, n%64
	for i := 3; i >= int(limbs); i-- {
		v := a[i-int(limbs)] << off
		if off != 0 && i-int(limbs)-1 >= 0 {
			v |= a[i-int(limbs)-1] >> (64 - off)
		}
		r[i] = v
	}
	return r
}

// shrWide shifts a right by n bits (n < 256).
func shrWide(a insts.Wide, n uint) insts.Wide {
	var r insts.Wide
	limbs, off := n/64, n%64
	for i := 0; i+int(limbs) < 4; i++ {
		v := a[i+int(limbs)] >> off
		if off != 0 && i+int(limbs)+1 < 4 {
			v |= a[i+int(limbs)+1] << (64 - off)
		}
		r[i] = v
	}
	return r
}

// rshiWide returns bits [n+255:n] of the 512-bit concatenation {hi, lo}.
func rshiWide(hi, lo insts.Wide, n uint) insts.Wide {
	if n == 0 {
		return lo
	}
	l := shrWide(lo, n)
	h := shlWide(hi, 256-n)
	return orWide(l, h)
}

func andWide(a, b insts.Wide) insts.Wide {
	return insts.Wide{a[0] & b[0], a[1] & b[1], a[2] & b[2], a[3] & b[3]}
}

func orWide(a, b insts.Wide) insts.Wide {
	return insts.Wide{a[0] | b[0], a[1] | b[1], a[2] | b[2], a[3] | b[3]}
}

func xorWide(a, b insts.Wide) insts.Wide {
	return insts.Wide{a[0] ^ b[0], a[1] ^ b[1], a[2] ^ b[2], a[3] ^ b[3]}
}

func notWide(a insts.Wide) insts.Wide {
	return insts.Wide{^a[0], ^a[1], ^a[2], ^a[3]}
}

func isZeroWide(a insts.Wide) bool {
	return a[0]|a[1]|a[2]|a[3] == 0
}

// geWide reports a >= b as unsigned 256-bit integers.
func geWide(a, b insts.Wide) bool {
	for i := 3; i >= 0; i-- {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return true
}
