// movext_test.go - Move/Extend Opcode Unit Tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovExt_MovCopiesValueAndShadow(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Execute(Instruction{Mnemonic: "MOV", Width: W32, Dst: reg(OperandReg, uint8(RegEAX)), Src: imm(42)})
	assert.Equal(t, uint32(42), c.Registers().EAX().Value())
	assert.False(t, c.Registers().EAX().IsUninitialized())
}

func TestMovExt_MovzxZeroExtendsAndTaintsWholeDestination(t *testing.T) {
	c, _ := newTestCPU(t)
	// AL starts fully tainted; MOVZX eax, al must taint all 32 bits of EAX.
	c.Execute(Instruction{
		Mnemonic: "MOVZX", Width: W32,
		Dst: reg(OperandReg, uint8(RegEAX)),
		Src: reg(OperandReg, uint8(RegAL)),
		Src2: InsnOperand{Reg: uint8(W8)},
	})
	assert.True(t, c.Registers().EAX().IsUninitialized())
	assert.Equal(t, uint32(0xFFFFFFFF), c.Registers().EAX().Shadow())
}

func TestMovExt_MovsxSignExtendsNegativeByte(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0xFF)) // -1
	c.Execute(Instruction{
		Mnemonic: "MOVSX", Width: W32,
		Dst: reg(OperandReg, uint8(RegEAX)),
		Src: reg(OperandReg, uint8(RegAL)),
		Src2: InsnOperand{Reg: uint8(W8)},
	})
	assert.Equal(t, uint32(0xFFFFFFFF), c.Registers().EAX().Value())
}

func TestMovExt_XchgSwapsBothOperands(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetEAX(Defined[uint32](1))
	c.Registers().SetEBX(Defined[uint32](2))
	c.Execute(Instruction{Mnemonic: "XCHG", Width: W32, Dst: reg(OperandReg, uint8(RegEAX)), Src: reg(OperandReg, uint8(RegEBX))})
	assert.Equal(t, uint32(2), c.Registers().EAX().Value())
	assert.Equal(t, uint32(1), c.Registers().EBX().Value())
}

func TestMovExt_SetccWritesOneWhenConditionHolds(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().setFlag(FlagZF, true)
	c.Execute(Instruction{Mnemonic: "SETCC", Condition: 4, Dst: reg(OperandReg, uint8(RegAL))}) // SETZ
	assert.Equal(t, uint8(1), c.Registers().GPR8(RegAL).Value())
}

func TestMovExt_CmovccLeavesDestUntouchedWhenFalse(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetEAX(Defined[uint32](1))
	c.Registers().SetEBX(Defined[uint32](99))
	c.Registers().setFlag(FlagZF, false)
	c.Execute(Instruction{Mnemonic: "CMOVCC", Width: W32, Condition: 4, Dst: reg(OperandReg, uint8(RegEAX)), Src: reg(OperandReg, uint8(RegEBX))})
	assert.Equal(t, uint32(1), c.Registers().EAX().Value())
}

func TestMovExt_CbwSignExtendsALIntoAX(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0x80))
	c.Execute(Instruction{Mnemonic: "CBW"})
	assert.Equal(t, uint16(0xFF80), c.Registers().GPR16(RegEAX).Value())
}

func TestMovExt_CdqFillsEDXFromEAXSignBit(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetEAX(Defined[uint32](0x80000000))
	c.Execute(Instruction{Mnemonic: "CDQ"})
	assert.Equal(t, uint32(0xFFFFFFFF), c.Registers().EDX().Value())
}
