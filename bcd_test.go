// bcd_test.go - BCD Adjustment Opcode Unit Tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBCD_AAAAdjustsWhenLowNibbleOverflows(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0x0B))
	c.Registers().SetGPR8(RegAH, Defined[uint8](0))
	c.Execute(Instruction{Mnemonic: "AAA", Width: W8})
	assert.Equal(t, uint8(1), c.Registers().GPR8(RegAL).Value())
	assert.Equal(t, uint8(1), c.Registers().GPR8(RegAH).Value())
	assert.True(t, c.Registers().CF())
}

func TestBCD_AAANoAdjustWhenLowNibbleValid(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0x05))
	c.Execute(Instruction{Mnemonic: "AAA", Width: W8})
	assert.Equal(t, uint8(5), c.Registers().GPR8(RegAL).Value())
	assert.False(t, c.Registers().CF())
}

func TestBCD_AAMSplitsIntoTensAndOnes(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](29))
	c.Execute(Instruction{Mnemonic: "AAM", Width: W8, Src: imm(10)})
	assert.Equal(t, uint8(2), c.Registers().GPR8(RegAH).Value())
	assert.Equal(t, uint8(9), c.Registers().GPR8(RegAL).Value())
}

func TestBCD_AAMFaultsOnZeroBase(t *testing.T) {
	c, h := newTestCPU(t)
	c.Execute(Instruction{Mnemonic: "AAM", Width: W8, Src: imm(0)})
	assert.Len(t, h.faults, 1)
	assert.Equal(t, ArithmeticFault, h.faults[0].Kind)
}

func TestBCD_AADCombinesAHAndAL(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](9))
	c.Registers().SetGPR8(RegAH, Defined[uint8](2))
	c.Execute(Instruction{Mnemonic: "AAD", Width: W8, Src: imm(10)})
	assert.Equal(t, uint8(29), c.Registers().GPR8(RegAL).Value())
	assert.Equal(t, uint8(0), c.Registers().GPR8(RegAH).Value())
}

func TestBCD_DAALowNibbleCorrection(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0x0A))
	c.Execute(Instruction{Mnemonic: "DAA", Width: W8})
	assert.Equal(t, uint8(0x10), c.Registers().GPR8(RegAL).Value())
	assert.True(t, c.Registers().EFLAGS()&FlagAF != 0)
}

func TestBCD_DASHighNibbleCorrection(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetGPR8(RegAL, Defined[uint8](0xA5))
	c.Execute(Instruction{Mnemonic: "DAS", Width: W8})
	assert.Equal(t, uint8(0x45), c.Registers().GPR8(RegAL).Value())
	assert.True(t, c.Registers().CF())
}
