package otp_test

import "github.com/sarchlab/otsim/otp"

// scriptedPort grants according to grant and delivers rsp once.
type scriptedPort struct {
	grant bool
	reqs  []otp.MacroReq
	rsp   *otp.MacroRsp
}

func newScriptedPort() *scriptedPort {
	return &scriptedPort{grant: true}
}

func (p *scriptedPort) Request(req otp.MacroReq) bool {
	p.reqs = append(p.reqs, req)
	return p.grant
}

func (p *scriptedPort) Response() (otp.MacroRsp, bool) {
	if p.rsp == nil {
		return otp.MacroRsp{}, false
	}
	r := *p.rsp
	p.rsp = nil
	return r, true
}

func (p *scriptedPort) respond(code otp.ErrCode, data uint64) {
	p.rsp = &otp.MacroRsp{Err: code, RData: data}
}

var unlocked = otp.Access{ReadLock: otp.Unlocked, WriteLock: otp.Unlocked}

// idle returns inputs with no request, escalation off, and upstream
// unlocked.
func idle() otp.Inputs {
	return otp.Inputs{Escalate: otp.Off, Access: unlocked}
}

func busRead(addr uint32) otp.Inputs {
	in := idle()
	in.Bus = otp.BusReq{Valid: true, Addr: addr}
	return in
}
