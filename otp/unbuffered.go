package otp

import "github.com/go-logr/logr"

// UnbufferedController serves each bus read with a macro read. Only the
// digest is cached, at init.
type UnbufferedController struct {
	partCore

	addr uint32
}

// NewUnbufferedController creates a controller in ResetSt.
func NewUnbufferedController(p Partition, port MacroPort, log logr.Logger) *UnbufferedController {
	return &UnbufferedController{partCore: newPartCore(p, port, log)}
}

// Tick advances the controller by one clock edge.
func (c *UnbufferedController) Tick(in Inputs) Outputs {
	var out Outputs

	if c.override(in) {
		return c.outputs(in, out)
	}

	switch c.state {
	case ResetSt:
		if in.InitReq {
			c.goTo(InitSt)
		}

	case InitSt:
		req := MacroReq{Cmd: CmdRead, Addr: c.part.DigestOffset(), Size: Size64}
		if c.port.Request(req) {
			c.goTo(InitWaitSt)
		}

	case InitWaitSt:
		if rsp, ok := c.port.Response(); ok {
			if c.latchResponse(rsp) {
				c.setDigest(rsp.RData)
				c.goTo(IdleSt)
			}
		}

	case IdleSt:
		if in.Bus.Valid {
			if c.errCode == ReadCorrErr {
				c.errCode = NoErr
			}
			out.BusGnt = true
			c.addr = in.Bus.Addr
			c.goTo(ReadSt)
		}

	case ReadSt:
		if !c.inRange(c.addr) || c.access(in.Access).ReadLock.IsLocked() {
			out.BusRsp = BusRsp{Valid: true, Err: BusErrCode}
			c.goTo(IdleSt)
			break
		}
		req := MacroReq{Cmd: CmdRead, Addr: c.part.Offset + c.addr, Size: Size32}
		if c.port.Request(req) {
			c.goTo(ReadWaitSt)
		}

	case ReadWaitSt:
		if rsp, ok := c.port.Response(); ok {
			if !c.latchResponse(rsp) {
				out.BusRsp = BusRsp{Valid: true, Err: BusErrCode}
				break
			}
			out.BusRsp = BusRsp{Valid: true, Data: uint32(rsp.RData)}
			c.goTo(IdleSt)
		}

	case ErrorSt:
		c.errorState(in, &out)

	default:
		c.enterError(FsmErr)
	}

	return c.outputs(in, out)
}
