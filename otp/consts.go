package otp

// Cryptographic constants used by the partition controllers.
//
// PLACEHOLDER VALUES FOR SIMULATION ONLY. They must be replaced with the
// production netlist constants before any use outside of testing.

// ScrmblKeys is the scrambling key table, indexed by Partition.KeyIdx.
var ScrmblKeys = [...][2]uint64{
	{0x3BA121C5E097DDEB, 0x7768D4A4F8A4C0EF},
	{0xEFB7EA7EE665D3A2, 0xA0BA5AB1F02B1CEE},
	{0xB6EE2329B3DDFD06, 0x8A0ABC0E67E4C1E2},
}

// DigestIV and DigestConst seed the partition digest computation.
const (
	DigestIV    uint64 = 0x90FB2B2F6A1F6DE8
	DigestConst uint64 = 0xF98C48B1F9377284
)

// Scramble whitens a 64-bit block with the partition key. It is an
// involution, so the same function descrambles.
func Scramble(block uint64, keyIdx int) uint64 {
	k := ScrmblKeys[keyIdx]
	return block ^ k[0] ^ rotl(k[1], uint(keyIdx)*8+1)
}

// Digest folds blocks into a 64-bit digest. It stands in for the hardware
// digest primitive and is not cryptographically strong. It never returns
// zero, which marks an unsealed partition.
func Digest(blocks []uint64) uint64 {
	d := DigestIV
	for _, b := range blocks {
		d = rotl(d^b, 13)*0x9E3779B97F4A7C15 ^ DigestConst
	}
	if d == 0 {
		d = DigestConst
	}
	return d
}

func rotl(x uint64, n uint) uint64 {
	n &= 63
	return x<<n | x>>(64-n)
}
