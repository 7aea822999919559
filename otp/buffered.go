package otp

import (
	"encoding/binary"

	"github.com/go-logr/logr"
)

// BufferedController copies the whole partition into registers during
// init and serves bus reads from them in the cycle they arrive.
// Scrambled partitions are descrambled on the way in; the digest block is
// stored in the clear. A nonzero hardware digest must match the digest of
// the descrambled contents.
type BufferedController struct {
	partCore

	buf  []uint64
	next int
}

// NewBufferedController creates a controller in ResetSt.
func NewBufferedController(p Partition, port MacroPort, log logr.Logger) *BufferedController {
	return &BufferedController{
		partCore: newPartCore(p, port, log),
		buf:      make([]uint64, p.Blocks()),
	}
}

// Tick advances the controller by one clock edge.
func (c *BufferedController) Tick(in Inputs) Outputs {
	var out Outputs

	if c.override(in) {
		c.clear()
		return c.outputs(in, out)
	}

	switch c.state {
	case ResetSt:
		if in.InitReq {
			c.next = 0
			c.goTo(InitSt)
		}

	case InitSt:
		req := MacroReq{
			Cmd:  CmdRead,
			Addr: c.part.Offset + uint32(c.next)*BlockBytes,
			Size: Size64,
		}
		if c.port.Request(req) {
			c.goTo(InitWaitSt)
		}

	case InitWaitSt:
		c.initWait()

	case IdleSt:
		if in.Bus.Valid {
			if c.errCode == ReadCorrErr {
				c.errCode = NoErr
			}
			out.BusGnt = true
			out.BusRsp = c.serve(in)
		}

	case ErrorSt:
		c.errorState(in, &out)

	default:
		c.clear()
		c.enterError(FsmErr)
	}

	return c.outputs(in, out)
}

func (c *BufferedController) initWait() {
	rsp, ok := c.port.Response()
	if !ok {
		return
	}
	if !c.latchResponse(rsp) {
		c.clear()
		return
	}

	block := rsp.RData
	isDigest := c.part.HwDigest && c.next == len(c.buf)-1
	if c.part.Scrambled && !isDigest {
		block = Scramble(block, c.part.KeyIdx)
	}
	c.buf[c.next] = block
	c.next++

	if c.next < len(c.buf) {
		c.goTo(InitSt)
		return
	}

	if c.part.HwDigest {
		stored := c.buf[len(c.buf)-1]
		if stored != 0 && Digest(c.buf[:len(c.buf)-1]) != stored {
			c.clear()
			c.enterError(CnstyErr)
			return
		}
		c.setDigest(stored)
	}
	c.goTo(IdleSt)
}

func (c *BufferedController) serve(in Inputs) BusRsp {
	addr := in.Bus.Addr
	if !c.inRange(addr) || c.access(in.Access).ReadLock.IsLocked() {
		return BusRsp{Valid: true, Err: BusErrCode}
	}

	var b [BlockBytes]byte
	binary.LittleEndian.PutUint64(b[:], c.buf[addr/BlockBytes])
	off := addr % BlockBytes
	return BusRsp{Valid: true, Data: binary.LittleEndian.Uint32(b[off : off+4])}
}

// clear discards buffered contents.
func (c *BufferedController) clear() {
	for i := range c.buf {
		c.buf[i] = 0
	}
}

// Block returns buffered block i. It is zero until init completes.
func (c *BufferedController) Block(i int) uint64 {
	return c.buf[i]
}
