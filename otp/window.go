package otp

// Window is the bus-facing read adapter of one partition. It holds at most
// one request until its response arrives.
type Window struct {
	pending bool
	granted bool
	addr    uint32

	rsp    BusRsp
	hasRsp bool
}

// NewWindow creates an idle window.
func NewWindow() *Window {
	return &Window{}
}

// Issue queues a read of the partition-relative byte address addr.
func (w *Window) Issue(addr uint32) error {
	if w.pending {
		return ErrBusy
	}
	w.pending = true
	w.granted = false
	w.addr = addr
	w.hasRsp = false
	return nil
}

// Pending reports whether a request awaits its response.
func (w *Window) Pending() bool {
	return w.pending
}

// Request returns the bus request to present this cycle.
func (w *Window) Request() BusReq {
	if w.pending && !w.granted {
		return BusReq{Valid: true, Addr: w.addr}
	}
	return BusReq{}
}

// Observe consumes the controller outputs of the cycle.
func (w *Window) Observe(out Outputs) {
	if !w.pending {
		return
	}
	if out.BusGnt {
		w.granted = true
	}
	if w.granted && out.BusRsp.Valid {
		w.rsp = out.BusRsp
		w.hasRsp = true
		w.pending = false
	}
}

// Granted reports whether the outstanding request has been granted.
func (w *Window) Granted() bool {
	return w.pending && w.granted
}

// Fail completes a granted request with a bus error. It is a no-op when
// nothing granted is outstanding.
func (w *Window) Fail() {
	if !w.Granted() {
		return
	}
	w.rsp = BusRsp{Valid: true, Err: BusErrCode}
	w.hasRsp = true
	w.pending = false
}

// Cancel drops the outstanding request. A response that arrives later is
// ignored.
func (w *Window) Cancel() {
	w.pending = false
	w.granted = false
	w.hasRsp = false
}

// Response returns the completed response once. ok is false while the
// request is outstanding.
func (w *Window) Response() (rsp BusRsp, ok bool) {
	if !w.hasRsp {
		return BusRsp{}, false
	}
	w.hasRsp = false
	return w.rsp, true
}
