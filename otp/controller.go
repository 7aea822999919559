package otp

import (
	"math/bits"

	"github.com/go-logr/logr"
)

// Access is a read/write lock pair.
type Access struct {
	ReadLock  Lock
	WriteLock Lock
}

// lockedAccess is the fully locked access pair.
var lockedAccess = Access{ReadLock: Locked, WriteLock: Locked}

// BusReq is a bus-side read request. Addr is a byte offset relative to the
// start of the partition.
type BusReq struct {
	Valid bool
	Addr  uint32
}

// BusRsp is a bus-side read response. A nonzero Err is a bus fault.
type BusRsp struct {
	Valid bool
	Data  uint32
	Err   uint8
}

// Inputs are the per-cycle inputs of a partition controller.
type Inputs struct {
	InitReq  bool
	Escalate LcTx
	Access   Access
	Bus      BusReq
}

// Outputs are the per-cycle outputs of a partition controller.
type Outputs struct {
	InitDone bool
	Err      ErrCode
	Access   Access
	Digest   uint64

	BusGnt bool
	BusRsp BusRsp
}

// Controller is a partition controller advanced once per clock edge.
type Controller interface {
	Partition() Partition
	State() State
	Tick(in Inputs) Outputs

	// InjectStateFault flips bits of the state register.
	InjectStateFault(mask State)
	// InjectDigestFault flips bits of the digest register without
	// updating its parity.
	InjectDigestFault(mask uint64)
}

// NewController creates the controller matching p.Variant.
func NewController(p Partition, port MacroPort, log logr.Logger) Controller {
	if p.Variant == Buffered {
		return NewBufferedController(p, port, log)
	}
	return NewUnbufferedController(p, port, log)
}

// partCore holds the registers and rules shared by both variants.
type partCore struct {
	part Partition
	port MacroPort
	log  logr.Logger

	state   State
	errCode ErrCode

	digest       uint64
	digestParity bool
}

func newPartCore(p Partition, port MacroPort, log logr.Logger) partCore {
	return partCore{
		part:  p,
		port:  port,
		log:   log.WithValues("partition", p.Name),
		state: ResetSt,
	}
}

// Partition returns the partition descriptor.
func (c *partCore) Partition() Partition {
	return c.part
}

// State returns the current state register.
func (c *partCore) State() State {
	return c.state
}

func (c *partCore) InjectStateFault(mask State) {
	c.state ^= mask & stateMask
}

func (c *partCore) InjectDigestFault(mask uint64) {
	c.digest ^= mask
}

func (c *partCore) setDigest(d uint64) {
	c.digest = d
	c.digestParity = bits.OnesCount64(d)%2 == 1
}

func (c *partCore) parityFault() bool {
	return (bits.OnesCount64(c.digest)%2 == 1) != c.digestParity
}

func (c *partCore) initDone() bool {
	switch c.state {
	case IdleSt, ReadSt, ReadWaitSt:
		return true
	default:
		return false
	}
}

// access derives the lock outputs from the registers and the upstream locks.
func (c *partCore) access(upstream Access) Access {
	if !c.initDone() {
		return lockedAccess
	}
	digestSet := c.digest != 0
	return Access{
		ReadLock:  lockIf(upstream.ReadLock.IsLocked() || (c.part.ReadLock && digestSet)),
		WriteLock: lockIf(upstream.WriteLock.IsLocked() || (c.part.WriteLock && digestSet)),
	}
}

// override applies the escalation and parity checks. It returns true when
// the FSM must not run this cycle.
func (c *partCore) override(in Inputs) bool {
	if c.state == ErrorSt {
		return false
	}

	var code ErrCode
	switch {
	case in.Escalate.Asserted():
		code = EscErr
	case c.parityFault():
		code = ParityErr
	default:
		return false
	}

	c.enterError(code)
	return true
}

func (c *partCore) enterError(code ErrCode) {
	c.log.V(1).Info("entering error state", "from", c.state, "err", code)
	c.state = ErrorSt
	c.errCode = code
}

func (c *partCore) goTo(next State) {
	if next != c.state {
		c.log.V(1).Info("transition", "from", c.state, "to", next)
	}
	c.state = next
}

// errorState holds the terminal state. Bus requests are answered with a
// bus error in the same cycle.
func (c *partCore) errorState(in Inputs, out *Outputs) {
	if !c.errCode.Fatal() {
		c.errCode = FsmErr
	}
	if in.Bus.Valid {
		out.BusGnt = true
		out.BusRsp = BusRsp{Valid: true, Err: BusErrCode}
	}
}

// latchResponse records the outcome of a macro read. It returns false when
// the error is fatal and the controller has entered ErrorSt.
func (c *partCore) latchResponse(rsp MacroRsp) bool {
	if rsp.Err.Fatal() {
		c.enterError(rsp.Err)
		return false
	}
	if rsp.Err == ReadCorrErr {
		c.errCode = ReadCorrErr
	}
	return true
}

// inRange reports whether a 32-bit read at the partition-relative addr fits.
func (c *partCore) inRange(addr uint32) bool {
	return addr%4 == 0 && uint64(addr)+4 <= uint64(c.part.Size)
}

func (c *partCore) outputs(in Inputs, out Outputs) Outputs {
	out.InitDone = c.initDone()
	out.Err = c.errCode
	out.Access = c.access(in.Access)
	out.Digest = c.digest
	return out
}
