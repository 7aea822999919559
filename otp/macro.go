package otp

import (
	"encoding/binary"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/mem/mem"
)

// Cmd is a macro command.
type Cmd uint8

// Macro commands.
const (
	CmdRead Cmd = iota
	CmdWrite
	CmdInit
)

// Transfer sizes, in units of 32-bit words minus one.
const (
	Size32 uint8 = 0
	Size64 uint8 = 1
)

// MacroReq is a request on the macro interface. Addr is an absolute byte
// address aligned to the transfer size.
type MacroReq struct {
	Cmd   Cmd
	Addr  uint32
	Size  uint8
	WData uint64
}

func (r MacroReq) bytes() uint32 {
	return 4 * (uint32(r.Size) + 1)
}

// MacroRsp is a response on the macro interface.
type MacroRsp struct {
	Err   ErrCode
	RData uint64
}

// MacroPort is one requester's view of the macro.
type MacroPort interface {
	// Request offers req for this cycle and reports whether it was granted.
	Request(req MacroReq) bool

	// Response returns the response addressed to this port, valid only in
	// the cycle it is delivered.
	Response() (MacroRsp, bool)
}

type pendingReq struct {
	port    int
	req     MacroReq
	latency int
}

type deliveredRsp struct {
	port     int
	rsp      MacroRsp
	consumed bool
}

// Macro models the OTP memory array. It accepts one outstanding request
// and answers after a fixed latency. Programming can only set bits.
type Macro struct {
	storage *mem.Storage
	size    uint32
	latency int

	pending   *pendingReq
	delivered *deliveredRsp

	faults map[uint32]ErrCode
	log    logr.Logger
}

// MacroOption configures a Macro.
type MacroOption func(*Macro)

// WithMacroLatency sets the response latency in cycles (minimum 1).
func WithMacroLatency(cycles int) MacroOption {
	return func(m *Macro) {
		m.latency = max(cycles, 1)
	}
}

// WithMacroLogger sets the macro logger.
func WithMacroLogger(log logr.Logger) MacroOption {
	return func(m *Macro) {
		m.log = log
	}
}

// NewMacro creates a blank macro of size bytes.
func NewMacro(size uint32, opts ...MacroOption) *Macro {
	m := &Macro{
		storage: mem.NewStorage(uint64(size)),
		size:    size,
		latency: 1,
		faults:  make(map[uint32]ErrCode),
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Size returns the array size in bytes.
func (m *Macro) Size() uint32 {
	return m.size
}

// Busy reports whether a request is outstanding.
func (m *Macro) Busy() bool {
	return m.pending != nil
}

// Port returns the requester view with the given id. Responses are routed
// back to the port that issued the request.
func (m *Macro) Port(id int) MacroPort {
	return &macroPort{macro: m, id: id}
}

// Program writes data at addr directly, bypassing the request interface.
// It is the backdoor used to preload images.
func (m *Macro) Program(addr uint32, data []byte) error {
	if uint64(addr)+uint64(len(data)) > uint64(m.size) {
		return fmt.Errorf("program of %d bytes at 0x%x exceeds macro size 0x%x", len(data), addr, m.size)
	}
	return m.storage.Write(uint64(addr), data)
}

// ProgramBlock writes a 64-bit block at addr through the backdoor.
func (m *Macro) ProgramBlock(addr uint32, v uint64) error {
	var buf [BlockBytes]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return m.Program(addr, buf[:])
}

// Image returns a copy of the whole array.
func (m *Macro) Image() ([]byte, error) {
	return m.storage.Read(0, uint64(m.size))
}

// Seal computes the digest of partition p over its descrambled contents
// and programs it into the blank digest block.
func (m *Macro) Seal(p Partition) (uint64, error) {
	if !p.HwDigest {
		return 0, fmt.Errorf("partition %s has no hardware digest", p.Name)
	}
	if uint64(p.Offset)+uint64(p.Size) > uint64(m.size) {
		return 0, fmt.Errorf("partition %s exceeds macro size 0x%x", p.Name, m.size)
	}

	raw, err := m.storage.Read(uint64(p.Offset), uint64(p.Size))
	if err != nil {
		return 0, fmt.Errorf("failed to read partition %s: %w", p.Name, err)
	}
	if binary.LittleEndian.Uint64(raw[len(raw)-BlockBytes:]) != 0 {
		return 0, fmt.Errorf("partition %s is already sealed", p.Name)
	}

	blocks := make([]uint64, p.Blocks()-1)
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint64(raw[i*BlockBytes:])
		if p.Scrambled {
			blocks[i] = Scramble(blocks[i], p.KeyIdx)
		}
	}

	d := Digest(blocks)
	if err := m.ProgramBlock(p.DigestOffset(), d); err != nil {
		return 0, err
	}
	m.log.V(1).Info("partition sealed", "partition", p.Name, "digest", d)
	return d, nil
}

// InjectError makes every read covering the block at addr return code.
// Correctable codes still return the stored data. NoErr clears the fault.
func (m *Macro) InjectError(addr uint32, code ErrCode) {
	block := addr &^ (BlockBytes - 1)
	if code == NoErr {
		delete(m.faults, block)
		return
	}
	m.faults[block] = code
}

// Tick advances the macro by one cycle. A response is visible for exactly
// the cycle after the Tick that delivered it; unconsumed responses are
// dropped.
func (m *Macro) Tick() bool {
	progress := false

	if m.delivered != nil {
		if !m.delivered.consumed {
			m.log.V(1).Info("response dropped", "port", m.delivered.port)
		}
		m.delivered = nil
		progress = true
	}

	if m.pending == nil {
		return progress
	}

	m.pending.latency--
	if m.pending.latency > 0 {
		return true
	}

	p := m.pending
	m.pending = nil
	m.delivered = &deliveredRsp{port: p.port, rsp: m.execute(p.req)}

	return true
}

func (m *Macro) request(port int, req MacroReq) bool {
	if m.pending != nil {
		return false
	}

	m.pending = &pendingReq{port: port, req: req, latency: m.latency}
	m.log.V(2).Info("request", "port", port, "cmd", req.Cmd, "addr", req.Addr)
	return true
}

func (m *Macro) response(port int) (MacroRsp, bool) {
	d := m.delivered
	if d == nil || d.port != port || d.consumed {
		return MacroRsp{}, false
	}
	d.consumed = true
	return d.rsp, true
}

func (m *Macro) execute(req MacroReq) MacroRsp {
	if req.Size > Size64 {
		return MacroRsp{Err: CmdInvErr}
	}

	n := req.bytes()
	if req.Cmd != CmdInit && (req.Addr%n != 0 || uint64(req.Addr)+uint64(n) > uint64(m.size)) {
		return MacroRsp{Err: AccessErr}
	}

	switch req.Cmd {
	case CmdInit:
		return MacroRsp{}
	case CmdRead:
		return m.read(req.Addr, n)
	case CmdWrite:
		return m.write(req.Addr, n, req.WData)
	default:
		return MacroRsp{Err: CmdInvErr}
	}
}

func (m *Macro) read(addr, n uint32) MacroRsp {
	code := m.faults[addr&^(BlockBytes-1)]
	if code.Fatal() {
		return MacroRsp{Err: code}
	}

	data, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return MacroRsp{Err: ReadErr}
	}

	var buf [8]byte
	copy(buf[:], data)
	return MacroRsp{Err: code, RData: binary.LittleEndian.Uint64(buf[:])}
}

func (m *Macro) write(addr, n uint32, wdata uint64) MacroRsp {
	old, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return MacroRsp{Err: WriteErr}
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], wdata)
	for i := uint32(0); i < n; i++ {
		// Programmed bits cannot be cleared.
		if old[i]&^buf[i] != 0 {
			return MacroRsp{Err: WriteBlankErr}
		}
	}

	if err := m.storage.Write(uint64(addr), buf[:n]); err != nil {
		return MacroRsp{Err: WriteErr}
	}
	return MacroRsp{}
}

type macroPort struct {
	macro *Macro
	id    int
}

func (p *macroPort) Request(req MacroReq) bool {
	return p.macro.request(p.id, req)
}

func (p *macroPort) Response() (MacroRsp, bool) {
	return p.macro.response(p.id)
}
