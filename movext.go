// movext.go - x86 Move/Extend/Compare-Set Opcode Implementations
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// LEA computes an effective address without touching memory at all —
// the decoder resolves Src.Addr the normal way, but readOperand is
// never called on it. Because no memory access happens, LEA cannot
// taint its destination from memory shadow; only the address
// computation's own operand shadows (already folded into Src.Addr's
// resolution by the decoder) would matter, and this core treats
// address arithmetic as out of scope for taint, matching how it treats
// fetched instruction bytes as always defined.
func leaHandler(c *SoftCPU, insn Instruction) {
	v := Operand{Value: uint64(insn.Src.Addr) & insn.Width.mask()}
	c.writeOperand(insn.Dst, insn.Width, v)
}

// movHandler is MOV's entire job: copy value and shadow, untouched, from
// Src to Dst. No flags are affected.
func movHandler(c *SoftCPU, insn Instruction) {
	v := c.readOperand(insn.Src, insn.Width)
	c.writeOperand(insn.Dst, insn.Width, v)
}

// extendHandler implements MOVZX/MOVSX: Src is read at insn.Src2.Width
// (the narrower source width, smuggled through a second width field
// since Instruction only carries one Width for Dst), then the value is
// zero- or sign-extended to insn.Width. The shadow is extended too:
// MOVSX replicates the sign bit's taint into every extended bit, and
// MOVZX of a source with any tainted bit taints every destination bit —
// MOVZX al (uninitialized) into eax must leave all 32 destination bits
// tainted, not just the low 8.
func extendHandler(signExtend bool) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		srcWidth := insn.Src2.Reg // srcWidth stowed in Src2.Reg as a Width value, set by the decoder
		a := c.readOperand(insn.Src, Width(srcWidth))

		srcMask := Width(srcWidth).mask()
		srcSign := Width(srcWidth).signBit()

		value := a.Value & srcMask
		shadow := a.Shadow & srcMask

		if signExtend {
			if value&srcSign != 0 {
				value |= ^srcMask
			}
			// Sign-extension replicates the source's sign bit's taint
			// into every extended bit, same as the value's sign bit.
			if shadow&srcSign != 0 {
				shadow |= ^srcMask
			}
		} else if shadow != 0 {
			shadow |= ^srcMask
		}
		value &= insn.Width.mask()
		shadow &= insn.Width.mask()

		c.writeOperand(insn.Dst, insn.Width, Operand{Value: value, Shadow: shadow})
	}
}

// signExtendAccumulator implements CBW/CWDE (AL->AX, AX->EAX, widening
// in place) and CWD/CDQ (AX->DX:AX, EAX->EDX:EAX, widening into a
// second register) depending on intoUpperReg.
func signExtendAccumulator(c *SoftCPU, width Width, intoUpperReg bool) {
	var a Operand
	switch width {
	case W8:
		a = toOperand(c.regs.GPR8(RegAL))
	case W16:
		a = toOperand(c.regs.GPR16(RegEAX))
	case W32:
		a = toOperand(c.regs.GPR32(RegEAX))
	}
	sign := width.signBit()
	extended := a.Value
	extendedShadow := a.Shadow
	if a.Value&sign != 0 {
		extended |= ^width.mask()
	}
	if a.Shadow&sign != 0 {
		extendedShadow |= ^width.mask()
	}

	if !intoUpperReg {
		switch width {
		case W8:
			c.regs.SetGPR16(RegEAX, WithShadow(uint16(extended), uint16(extendedShadow)))
		case W16:
			c.regs.SetGPR32(RegEAX, WithShadow(uint32(extended), uint32(extendedShadow)))
		}
		return
	}

	// CWD/CDQ: the upper half is ALL ones or ALL zeros depending on the
	// sign bit, so the shadow is just whether the sign bit itself was
	// tainted, replicated across the whole upper register.
	upperValue := uint32(0)
	if a.Value&sign != 0 {
		upperValue = ^uint32(0)
	}
	upperShadow := uint32(0)
	if a.Shadow&sign != 0 {
		upperShadow = ^uint32(0)
	}
	switch width {
	case W16:
		c.regs.SetGPR16(RegEDX, WithShadow(uint16(upperValue), uint16(upperShadow)))
	case W32:
		c.regs.SetGPR32(RegEDX, WithShadow(upperValue, upperShadow))
	}
}

// xchgHandler swaps Dst and Src (value and shadow both) in one atomic
// step from the interpreter's point of view — there is no partial state
// a fault could observe mid-swap since neither read can fault once the
// decoder has resolved both operands.
func xchgHandler(c *SoftCPU, insn Instruction) {
	a := c.readOperand(insn.Dst, insn.Width)
	b := c.readOperand(insn.Src, insn.Width)
	c.writeOperand(insn.Dst, insn.Width, b)
	c.writeOperand(insn.Src, insn.Width, a)
}

// setccHandler implements SETcc: writes 1 or 0 into an 8-bit Dst based
// on evaluateCondition. A conditional branch/set computed from tainted
// flags is itself undefined, so the destination's shadow reports
// uninitialized whenever flags_tainted was set at evaluation time.
func setccHandler(c *SoftCPU, insn Instruction) {
	taken := c.evaluateCondition(insn.Condition)
	var v uint8
	if taken {
		v = 1
	}
	shadow := uint8(0)
	if c.regs.FlagsTainted() {
		shadow = 0xFF
		c.warnIfFlagsTainted("SETcc")
	}
	c.writeOperand(insn.Dst, W8, Operand{Value: uint64(v), Shadow: uint64(shadow)})
}

// cmovccHandler implements CMOVcc: Dst is left untouched when the
// condition is false, overwritten (value and shadow) when true.
func cmovccHandler(c *SoftCPU, insn Instruction) {
	if !c.evaluateCondition(insn.Condition) {
		return
	}
	if c.regs.FlagsTainted() {
		c.warnIfFlagsTainted("CMOVcc")
	}
	v := c.readOperand(insn.Src, insn.Width)
	c.writeOperand(insn.Dst, insn.Width, v)
}

func init() {
	register(map[string]HandlerFunc{
		"MOV":    movHandler,
		"LEA":    leaHandler,
		"MOVZX":  extendHandler(false),
		"MOVSX":  extendHandler(true),
		"XCHG":   xchgHandler,
		"SETCC":  setccHandler,
		"CMOVCC": cmovccHandler,

		"CBW":  func(c *SoftCPU, insn Instruction) { signExtendAccumulator(c, W8, false) },
		"CWDE": func(c *SoftCPU, insn Instruction) { signExtendAccumulator(c, W16, false) },
		"CWD":  func(c *SoftCPU, insn Instruction) { signExtendAccumulator(c, W16, true) },
		"CDQ":  func(c *SoftCPU, insn Instruction) { signExtendAccumulator(c, W32, true) },
	})
}
