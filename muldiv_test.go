// muldiv_test.go - Multiply/Divide Opcode Unit Tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulDiv_MULSetsCFWhenUpperHalfNonzero(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0x80))
	c.Execute(Instruction{Mnemonic: "MUL", Width: W8, Src: imm(2)})
	assert.Equal(t, uint16(0x0100), c.Registers().GPR16(RegEAX).Value())
	assert.True(t, c.Registers().CF())
	assert.True(t, c.Registers().EFLAGS()&FlagOF != 0)
}

func TestMulDiv_MULClearsCFWhenProductFits(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](2))
	c.Execute(Instruction{Mnemonic: "MUL", Width: W8, Src: imm(3)})
	assert.Equal(t, uint16(6), c.Registers().GPR16(RegEAX).Value())
	assert.False(t, c.Registers().CF())
}

func TestMulDiv_IMULThreeOperandSignedOverflowSetsCF(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Execute(Instruction{
		Mnemonic: "IMUL", Width: W8,
		Dst: reg(OperandReg, uint8(RegAL)),
		Src: imm(100), Src2: imm(100),
	})
	assert.True(t, c.Registers().CF(), "100*100 overflows an int8 destination")
}

func TestMulDiv_DIVByZeroFaultsWithoutWriteback(t *testing.T) {
	c, h := newTestCPU(t)
	c.Registers().SetGPR16(RegEAX, Defined[uint16](10))
	c.Registers().SetGPR8(RegAL, Defined[uint8](10))
	c.Execute(Instruction{Mnemonic: "DIV", Width: W8, Src: imm(0)})
	assert.Len(t, h.faults, 1)
	assert.Equal(t, ArithmeticFault, h.faults[0].Kind)
	assert.Equal(t, uint8(10), c.Registers().GPR8(RegAL).Value(), "AL must be untouched by a faulted DIV")
}

func TestMulDiv_DIVQuotientOverflowFaults(t *testing.T) {
	c, h := newTestCPU(t)
	c.Registers().SetGPR16(RegEAX, Defined[uint16](0x0100)) // 256
	c.Execute(Instruction{Mnemonic: "DIV", Width: W8, Src: imm(1)})
	assert.Len(t, h.faults, 1)
	assert.Equal(t, ArithmeticFault, h.faults[0].Kind)
}

func TestMulDiv_DIVComputesQuotientAndRemainder(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR16(RegEAX, Defined[uint16](17))
	c.Execute(Instruction{Mnemonic: "DIV", Width: W8, Src: imm(5)})
	assert.Equal(t, uint8(3), c.Registers().GPR8(RegAL).Value())
	assert.Equal(t, uint8(2), c.Registers().GPR8(RegAH).Value())
}

func TestMulDiv_IDIVHandlesNegativeDividend(t *testing.T) {
	c, _ := newTestCPU(t)
	dividend := int16(-17)
	c.Registers().SetGPR16(RegEAX, Defined[uint16](uint16(dividend)))
	c.Execute(Instruction{Mnemonic: "IDIV", Width: W8, Src: imm(5)})
	wantAL, wantAH := int8(-3), int8(-2)
	assert.Equal(t, uint8(wantAL), c.Registers().GPR8(RegAL).Value())
	assert.Equal(t, uint8(wantAH), c.Registers().GPR8(RegAH).Value())
}
