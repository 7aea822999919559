package emu

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/otsim/insts"
)

var (
	// ErrIllegalInstruction is returned when the fetched word does not decode.
	ErrIllegalInstruction = errors.New("illegal instruction")
	// ErrMaxInstructions is returned when the instruction limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Done is true if the program finished (via ECALL).
	Done bool

	// Err is set if an error stopped execution.
	Err error
}

// Emulator executes OTBN instructions functionally.
type Emulator struct {
	regFile *RegFile
	imem    *Memory
	dmem    *Memory
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	isprs      *isprFile

	log logr.Logger

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithLogger sets the logger used for execution traces (V(2)).
func WithLogger(log logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.log = log
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates an emulator over the given instruction and data
// memories. Execution starts at PC 0 unless SetPC is called.
func NewEmulator(imem, dmem *Memory, opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}

	e := &Emulator{
		regFile: regFile,
		imem:    imem,
		dmem:    dmem,
		decoder: insts.NewDecoder(),
		log:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, dmem)
	e.branchUnit = NewBranchUnit(regFile)
	e.isprs = newISPRFile(regFile)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// IMem returns the instruction memory.
func (e *Emulator) IMem() *Memory {
	return e.imem
}

// DMem returns the data memory.
func (e *Emulator) DMem() *Memory {
	return e.dmem
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint32) {
	e.regFile.PC = pc
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	pc := e.regFile.PC

	word, err := e.imem.Read32(pc)
	if err != nil {
		return StepResult{Err: fmt.Errorf("failed to fetch at PC=0x%X: %w", pc, err)}
	}

	d := e.decoder.Decode(word, true)
	if d.Illegal {
		return StepResult{Err: fmt.Errorf("%w 0x%08X at PC=0x%X", ErrIllegalInstruction, word, pc)}
	}

	e.log.V(2).Info("step", "pc", pc, "insn", insts.Disassemble(word))

	result := e.execute(d)
	if result.Err != nil {
		result.Err = fmt.Errorf("failed to execute %s at PC=0x%X: %w", d.Shared.Op, pc, result.Err)
		return result
	}

	e.instructionCount++

	return result
}

// Run executes instructions until the program finishes or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Done {
			return nil
		}
	}
}

// execute dispatches a decoded instruction.
func (e *Emulator) execute(d insts.Decoded) StepResult {
	s := d.Shared
	b := d.Base

	switch {
	case s.Ecall:
		return StepResult{Done: true}

	case s.Branch:
		e.branchUnit.Branch(b.CmpOp, b.A, b.B, b.Imm)
		return StepResult{} // PC already updated

	case s.Op == insts.OpJAL:
		e.branchUnit.JAL(b.D, b.Imm)
		return StepResult{}

	case s.Op == insts.OpJALR:
		e.branchUnit.JALR(b.D, b.A, b.Imm)
		return StepResult{}

	case s.Subset == insts.SubsetBignum:
		if err := e.executeBignum(d); err != nil {
			return StepResult{Err: err}
		}

	case s.Load:
		if err := e.lsu.LW(b.D, b.A, b.Imm); err != nil {
			return StepResult{Err: err}
		}

	case s.Store:
		if err := e.lsu.SW(b.B, b.A, b.Imm); err != nil {
			return StepResult{Err: err}
		}

	case s.IsprRead || s.IsprReadWrite:
		if err := e.executeISPR(d); err != nil {
			return StepResult{Err: err}
		}

	default:
		result := e.alu.Base(b.AluOp, e.operandA(d), e.operandB(d))
		e.regFile.WriteReg(b.D, result)
	}

	// Advance PC by 4 (for non-control-flow instructions)
	e.regFile.PC += 4

	return StepResult{}
}

func (e *Emulator) operandA(d insts.Decoded) uint32 {
	switch d.Shared.OpASel {
	case insts.OpASelZero:
		return 0
	case insts.OpASelCurrPC:
		return e.regFile.PC
	default:
		return e.regFile.ReadReg(d.Base.A)
	}
}

func (e *Emulator) operandB(d insts.Decoded) uint32 {
	if d.Shared.OpBSel == insts.OpBSelImmediate {
		return d.Base.Imm
	}
	return e.regFile.ReadReg(d.Base.B)
}

// executeISPR handles CSRRW and CSRRS. CSRRS with rs1 = x0 only reads.
func (e *Emulator) executeISPR(d insts.Decoded) error {
	b := d.Base
	addr := b.Imm & 0xFFF

	old, err := e.isprs.read(addr)
	if err != nil {
		return err
	}

	src := e.regFile.ReadReg(b.A)
	switch {
	case d.Shared.IsprReadWrite:
		err = e.isprs.write(addr, src)
	case b.A != 0:
		err = e.isprs.write(addr, old|src)
	}
	if err != nil {
		return err
	}

	e.regFile.WriteReg(b.D, old)
	return nil
}

// executeBignum handles the wide-register instructions.
func (e *Emulator) executeBignum(d insts.Decoded) error {
	w := d.Bignum

	switch d.Shared.Op {
	case insts.OpBNLID:
		return e.lsu.LID(w.D, w.A, d.Base.Imm)
	case insts.OpBNSID:
		return e.lsu.SID(w.B, w.A, d.Base.Imm)
	case insts.OpBNMOV:
		e.regFile.WriteWide(w.D, e.regFile.ReadWide(w.A))
		return nil
	}

	opB := w.Imm
	if d.Shared.OpBSel == insts.OpBSelRegister {
		opB = shiftOperand(e.regFile.ReadWide(w.B), w.ShiftAmt, w.ShiftRight)
	}
	e.alu.Bignum(w, opB)
	return nil
}
