// control_test.go - Control Transfer Opcode Unit Tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControl_JmpSetsEIP(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Execute(Instruction{Mnemonic: "JMP", Src: imm(40)})
	assert.Equal(t, uint32(40), c.Registers().EIP())
}

func TestControl_JccTakenWhenConditionHolds(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().setFlag(FlagZF, true)
	c.Execute(Instruction{Mnemonic: "JCC", Condition: 4, Src: imm(40)}) // JZ
	assert.Equal(t, uint32(40), c.Registers().EIP())
}

func TestControl_JccNotTakenWhenConditionFails(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetEIP(4)
	c.Registers().setFlag(FlagZF, false)
	c.Execute(Instruction{Mnemonic: "JCC", Condition: 4, Src: imm(40)}) // JZ
	assert.Equal(t, uint32(4), c.Registers().EIP())
}

func TestControl_CallPushesReturnAddressAndJumps(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetESP(Defined[uint32](32))
	c.Registers().SetEIP(10)
	c.Execute(Instruction{Mnemonic: "CALL", AddressSize: W32, Src: imm(100)})
	assert.Equal(t, uint32(100), c.Registers().EIP())
	assert.Equal(t, uint32(28), c.Registers().ESP().Value())
}

func TestControl_RetPopsAndJumps(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetESP(Defined[uint32](32))
	c.Registers().SetEIP(10)
	c.Execute(Instruction{Mnemonic: "CALL", AddressSize: W32, Src: imm(100)})
	c.Execute(Instruction{Mnemonic: "RET", AddressSize: W32})
	assert.Equal(t, uint32(10), c.Registers().EIP())
	assert.Equal(t, uint32(32), c.Registers().ESP().Value())
}

func TestControl_RetImmCleansUpStack(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetESP(Defined[uint32](32))
	c.Registers().SetEIP(10)
	c.Execute(Instruction{Mnemonic: "CALL", AddressSize: W32, Src: imm(100)})
	c.Execute(Instruction{Mnemonic: "RET", AddressSize: W32, Src: imm(8)})
	assert.Equal(t, uint32(40), c.Registers().ESP().Value())
}

func TestControl_LoopDecrementsAndBranchesUntilZero(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetECX(Defined[uint32](2))
	c.Registers().SetEIP(4)
	c.Execute(Instruction{Mnemonic: "LOOP", AddressSize: W32, Src: imm(40)})
	assert.Equal(t, uint32(40), c.Registers().EIP())
	assert.Equal(t, uint32(1), c.Registers().GPR32(RegECX).Value())

	c.Execute(Instruction{Mnemonic: "LOOP", AddressSize: W32, Src: imm(80)})
	assert.Equal(t, uint32(0), c.Registers().GPR32(RegECX).Value(), "ECX reaching 0 must not branch")
}

func TestControl_JecxzBranchesOnlyWhenZero(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Registers().SetECX(Defined[uint32](0))
	c.Registers().SetEIP(4)
	c.Execute(Instruction{Mnemonic: "JECXZ", AddressSize: W32, Src: imm(40)})
	assert.Equal(t, uint32(40), c.Registers().EIP())
}
