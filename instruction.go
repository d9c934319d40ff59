// instruction.go - Decoded Instruction Shape
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// OperandKind distinguishes how an Instruction's operand is sourced.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandMem
	OperandImm
)

// InsnOperand describes one decoded operand. Which register-index space Reg
// is drawn from (GP8/GP16/GP32) is implied by the owning Instruction's
// Width field.
type InsnOperand struct {
	Kind OperandKind
	Reg  uint8
	Addr uint32
	Imm  uint64
}

// RepPrefix names the REP-family prefix, if any, covering an
// instruction.
type RepPrefix int

const (
	RepNone RepPrefix = iota
	Rep               // REP / REPE / REPZ (string-move family uses REP, compare family uses REPE)
	RepNZ             // REPNE / REPNZ
)

// Instruction is the decoded form a decoder hands the interpreter. The
// full x86 decoder is out of scope for this core; this type is the
// minimal shape that lets every opcode family in this package be driven
// uniformly, standing in for a real decoder's per-instruction output.
type Instruction struct {
	Mnemonic    string
	Width       Width
	AddressSize Width
	Dst         InsnOperand
	Src         InsnOperand
	Src2        InsnOperand // shift count / three-operand forms
	RepPrefix   RepPrefix
	Condition   uint8 // Jcc/SETcc/CMOVcc/LOOPcc condition code
	SegOverride int   // -1 = none, else a Seg value
}
