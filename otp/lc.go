package otp

import "fmt"

// Lock is a redundantly encoded lock value. Only the exact Unlocked pattern
// unlocks; every other bit pattern reads as locked.
type Lock uint8

// Lock encodings.
const (
	Unlocked Lock = 0b0101_1010
	Locked   Lock = 0b1010_0101
)

// DecodeLock maps a raw bit pattern to a Lock.
func DecodeLock(raw uint8) Lock {
	if Lock(raw) == Unlocked {
		return Unlocked
	}
	return Locked
}

// IsLocked reports whether l is anything other than Unlocked.
func (l Lock) IsLocked() bool {
	return l != Unlocked
}

func (l Lock) String() string {
	if l.IsLocked() {
		return "Locked"
	}
	return "Unlocked"
}

// lockIf returns Locked when cond holds.
func lockIf(cond bool) Lock {
	if cond {
		return Locked
	}
	return Unlocked
}

// LcTx is a redundantly encoded life-cycle broadcast signal. Only the exact
// Off pattern is deasserted.
type LcTx uint8

// LcTx encodings.
const (
	On  LcTx = 0b1010
	Off LcTx = 0b0101
)

// DecodeLcTx maps a raw bit pattern to an LcTx.
func DecodeLcTx(raw uint8) LcTx {
	if LcTx(raw) == Off {
		return Off
	}
	return On
}

// Asserted reports whether t is anything other than Off.
func (t LcTx) Asserted() bool {
	return t != Off
}

func (t LcTx) String() string {
	switch t {
	case On:
		return "On"
	case Off:
		return "Off"
	default:
		return fmt.Sprintf("On(0x%x)", uint8(t))
	}
}
