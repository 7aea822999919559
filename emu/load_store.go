package emu

// LoadStoreUnit implements OTBN data memory accesses.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and data memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// LW performs a 32-bit load: x[rd] = dmem[x[rs1] + offset]
func (lsu *LoadStoreUnit) LW(rd, rs1 uint8, offset uint32) error {
	addr := lsu.regFile.ReadReg(rs1) + offset
	value, err := lsu.memory.Read32(addr)
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, value)
	return nil
}

// SW performs a 32-bit store: dmem[x[rs1] + offset] = x[rs2]
func (lsu *LoadStoreUnit) SW(rs2, rs1 uint8, offset uint32) error {
	addr := lsu.regFile.ReadReg(rs1) + offset
	return lsu.memory.Write32(addr, lsu.regFile.ReadReg(rs2))
}

// LID performs a 256-bit load: w[wrd] = dmem[x[rs1] + offset]
func (lsu *LoadStoreUnit) LID(wrd, rs1 uint8, offset uint32) error {
	addr := lsu.regFile.ReadReg(rs1) + offset
	value, err := lsu.memory.ReadWide(addr)
	if err != nil {
		return err
	}
	lsu.regFile.WriteWide(wrd, value)
	return nil
}

// SID performs a 256-bit store: dmem[x[rs1] + offset] = w[wrs]
func (lsu *LoadStoreUnit) SID(wrs, rs1 uint8, offset uint32) error {
	addr := lsu.regFile.ReadReg(rs1) + offset
	return lsu.memory.WriteWide(addr, lsu.regFile.ReadWide(wrs))
}

