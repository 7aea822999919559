package emu

import "github.com/sarchlab/otsim/insts"

// BranchUnit implements OTBN branch and jump operations.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Branch evaluates a conditional branch and updates the PC.
// The offset is the decoded B-type immediate in bytes.
func (b *BranchUnit) Branch(cmp insts.ComparisonOp, rs1, rs2 uint8, offset uint32) {
	x := b.regFile.ReadReg(rs1)
	y := b.regFile.ReadReg(rs2)

	taken := x == y
	if cmp == insts.ComparisonOpNeq {
		taken = !taken
	}

	if taken {
		b.regFile.PC += offset
		return
	}
	b.regFile.PC += 4
}

// JAL saves PC + 4 to rd and jumps PC-relative.
func (b *BranchUnit) JAL(rd uint8, offset uint32) {
	link := b.regFile.PC + 4
	b.regFile.PC += offset
	b.regFile.WriteReg(rd, link)
}

// JALR saves PC + 4 to rd and jumps to rs1 + offset with bit 0 cleared.
func (b *BranchUnit) JALR(rd, rs1 uint8, offset uint32) {
	// Read the target first in case rd == rs1.
	target := (b.regFile.ReadReg(rs1) + offset) &^ 1
	link := b.regFile.PC + 4
	b.regFile.PC = target
	b.regFile.WriteReg(rd, link)
}
