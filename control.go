// control.go - x86 Control Transfer Opcode Implementations
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// jmpHandler implements unconditional near/far JMP: Src carries the
// resolved target, already an absolute EIP as far as this interpreter
// is concerned (segment/far-pointer resolution, if any, is the
// decoder's job — this core is 32-bit flat-mode only).
func jmpHandler(c *SoftCPU, insn Instruction) {
	c.regs.SetEIP(uint32(insn.Src.Imm))
	c.InvalidateFetchCache()
}

// jccHandler implements the sixteen conditional jump mnemonics. A
// condition evaluated while flags_tainted is set is reported through
// diagnostics before the jump executes, whether or not the branch is
// then taken, since afterwards there is no architectural trace left of
// which flags fed the decision.
func jccHandler(c *SoftCPU, insn Instruction) {
	if c.regs.FlagsTainted() {
		c.warnIfFlagsTainted("Jcc")
	}
	if c.evaluateCondition(insn.Condition) {
		c.regs.SetEIP(uint32(insn.Src.Imm))
		c.InvalidateFetchCache()
	}
}

// callHandler pushes the return address (already computed by the
// decoder as the address of the instruction following the CALL) and
// jumps to the target.
func callHandler(c *SoftCPU, insn Instruction) {
	retAddr := Operand{Value: uint64(c.regs.EIP())}
	c.push(insn.AddressSize, retAddr)
	c.regs.SetEIP(uint32(insn.Src.Imm))
	c.InvalidateFetchCache()
}

// retHandler pops the return address off the stack and jumps to it.
// Src.Imm carries an optional immediate stack-adjustment (RET imm16,
// used by callee-cleanup calling conventions); it is zero for plain
// RET.
func retHandler(c *SoftCPU, insn Instruction) {
	target := c.pop(insn.AddressSize)
	c.regs.SetEIP(uint32(target.Value))
	c.InvalidateFetchCache()
	if insn.Src.Imm != 0 {
		esp := c.regs.ESP()
		c.regs.SetESP(WithShadow(esp.Value()+uint32(insn.Src.Imm), esp.Shadow()))
	}
	// A tainted return address means control flow itself is now
	// unverifiable; this is exactly the kind of undefined-behavior
	// escalation the taint model exists to surface.
	c.warnIfTainted(target.IsUninitialized(), "RET target derived from uninitialized stack data")
}

// loopHandler implements LOOP/LOOPE/LOOPNE: decrement ECX (or CX, per
// AddressSize), then branch if that counter != 0 and, for the conditional
// forms, the matching ZF state also holds.
func loopHandler(withZF bool, wantZF bool) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		var counterZero bool
		if insn.AddressSize == W16 {
			cx := c.regs.GPR16(RegECX)
			newCX := cx.Value() - 1
			c.regs.SetGPR16(RegECX, WithShadow(newCX, cx.Shadow()))
			counterZero = newCX == 0
		} else {
			ecx := c.regs.GPR32(RegECX)
			newECX := ecx.Value() - 1
			c.regs.SetGPR32(RegECX, WithShadow(newECX, ecx.Shadow()))
			counterZero = newECX == 0
		}

		if counterZero {
			return
		}
		if withZF && c.regs.ZF() != wantZF {
			return
		}
		c.regs.SetEIP(uint32(insn.Src.Imm))
		c.InvalidateFetchCache()
	}
}

// jecxzHandler implements JECXZ/JCXZ: branch if ECX/CX is zero, without
// touching it.
func jecxzHandler(c *SoftCPU, insn Instruction) {
	var isZero bool
	if insn.AddressSize == W16 {
		isZero = c.regs.GPR16(RegECX).Value() == 0
	} else {
		isZero = c.regs.GPR32(RegECX).Value() == 0
	}
	if isZero {
		c.regs.SetEIP(uint32(insn.Src.Imm))
		c.InvalidateFetchCache()
	}
}

func init() {
	register(map[string]HandlerFunc{
		"JMP":    jmpHandler,
		"JCC":    jccHandler,
		"CALL":   callHandler,
		"RET":    retHandler,
		"LOOP":   loopHandler(false, false),
		"LOOPE":  loopHandler(true, true),
		"LOOPNE": loopHandler(true, false),
		"JECXZ":  jecxzHandler,
	})
}
