// stack.go - x86 Stack Opcode Implementations
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// push writes v below the current stack pointer and decrements ESP by
// width/8 bytes first, matching the pre-decrement x86 PUSH convention.
// The full 32-bit ESP is always the stack pointer: a 16-bit operand-size
// PUSH moves the whole of ESP down by 2, with no separate 16-bit SP
// stack mode.
func (c *SoftCPU) push(width Width, v Operand) {
	esp := c.regs.ESP()
	newESP := esp.Value() - uint32(width)/8
	c.regs.SetESP(WithShadow(newESP, esp.Shadow()))
	switch width {
	case W16:
		c.mmu.Write16(newESP, fromOperand16(v))
	case W32:
		c.mmu.Write32(newESP, fromOperand32(v))
	}
}

// pop reads the value at the current stack pointer and increments ESP
// by width/8 bytes afterward.
func (c *SoftCPU) pop(width Width) Operand {
	esp := c.regs.ESP()
	var v Operand
	switch width {
	case W16:
		v = toOperand(c.mmu.Read16(esp.Value()))
	case W32:
		v = toOperand(c.mmu.Read32(esp.Value()))
	}
	newESP := esp.Value() + uint32(width)/8
	c.regs.SetESP(WithShadow(newESP, esp.Shadow()))
	return v
}

func pushHandler(c *SoftCPU, insn Instruction) {
	v := c.readOperand(insn.Src, insn.Width)
	c.push(insn.Width, v)
}

func popHandler(c *SoftCPU, insn Instruction) {
	v := c.pop(insn.Width)
	c.writeOperand(insn.Dst, insn.Width, v)
}

// pushaHandler implements PUSHA/PUSHAD: push all eight GPRs in encoding
// order (EAX, ECX, EDX, EBX, original-ESP, EBP, ESI, EDI), the ESP
// pushed being its value before any of the eight pushes happened.
func pushaHandler(width Width) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		originalESP := c.regs.ESP()
		order := [8]GP32{RegEAX, RegECX, RegEDX, RegEBX, RegESP, RegEBP, RegESI, RegEDI}
		for _, r := range order {
			var v Operand
			if r == RegESP {
				v = toOperand(originalESP)
			} else {
				v = toOperand(c.regs.GPR32(r))
			}
			if width == W16 {
				v = Operand{Value: v.Value & 0xFFFF, Shadow: v.Shadow & 0xFFFF}
			}
			c.push(width, v)
		}
	}
}

// popaHandler implements POPA/POPAD: pop all eight GPRs in reverse
// encoding order, discarding the slot that corresponds to ESP — POPAD
// does not restore ESP from the stack, it only lets its own pop
// advance ESP past that stale slot.
func popaHandler(width Width) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		order := [8]GP32{RegEDI, RegESI, RegEBP, RegESP, RegEBX, RegEDX, RegECX, RegEAX}
		for _, r := range order {
			v := c.pop(width)
			if r == RegESP {
				continue
			}
			if width == W16 {
				c.regs.SetGPR16(r, WithShadow(uint16(v.Value), uint16(v.Shadow)))
			} else {
				c.regs.SetGPR32(r, WithShadow(uint32(v.Value), uint32(v.Shadow)))
			}
		}
	}
}

// userVisibleEFLAGSMask covers the flags PUSHF/POPF expose: the nine
// architectural condition/control flags this core models. Reserved and
// system bits are not represented here at all, so POPF cannot corrupt
// state this core doesn't track.
const userVisibleEFLAGSMask = FlagCF | FlagPF | FlagAF | FlagZF | FlagSF | FlagTF | FlagIF | FlagDF | FlagOF

func pushfHandler(width Width) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		v := Operand{Value: uint64(c.regs.EFLAGS() & userVisibleEFLAGSMask)}
		if c.regs.FlagsTainted() {
			v.Shadow = uint64(userVisibleEFLAGSMask)
		}
		c.push(width, v)
	}
}

func popfHandler(width Width) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		v := c.pop(width)
		c.regs.SetEFLAGSRaw((c.regs.EFLAGS() &^ userVisibleEFLAGSMask) | (uint32(v.Value) & userVisibleEFLAGSMask))
		c.regs.flagsTainted = v.IsUninitialized()
	}
}

// enterHandler implements ENTER imm16, imm8: push EBP, set EBP to the
// new frame's ESP, then reserve imm16 bytes of locals. Nesting level
// (imm8) beyond 0 walks display pointers from outer frames; this core
// does not support nested Pascal-style display frames (imm8 must be 0)
// since no handler in this dispatch table decodes anything else — a
// nonzero level is reported as an invalid opcode by the caller that
// built the Instruction, not here.
func enterHandler(c *SoftCPU, insn Instruction) {
	frameSize := uint32(insn.Src.Imm)
	ebp := c.regs.EBP()
	c.push(insn.Width, toOperand(ebp))
	newFrame := c.regs.ESP()
	c.regs.SetEBP(newFrame)
	esp := c.regs.ESP()
	c.regs.SetESP(WithShadow(esp.Value()-frameSize, esp.Shadow()))
}

// leaveHandler implements LEAVE: ESP = EBP, then pop EBP. The inverse
// of enterHandler's frame push.
func leaveHandler(c *SoftCPU, insn Instruction) {
	c.regs.SetESP(c.regs.EBP())
	ebp := c.pop(insn.Width)
	c.regs.SetEBP(WithShadow(uint32(ebp.Value), uint32(ebp.Shadow)))
}

// pushSegHandler implements the segment-register PUSH forms (PUSH ES,
// PUSH CS, ...): segment selectors carry no shadow, so the pushed value
// is always fully defined, zero-extended to the operand width.
func pushSegHandler(seg Seg) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		c.push(insn.Width, Operand{Value: uint64(c.regs.Segment(seg))})
	}
}

func popSegHandler(seg Seg) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		v := c.pop(insn.Width)
		c.regs.SetSegment(seg, uint16(v.Value))
	}
}

func init() {
	register(map[string]HandlerFunc{
		"PUSH": pushHandler,
		"POP":  popHandler,

		"PUSHA":  pushaHandler(W16),
		"PUSHAD": pushaHandler(W32),
		"POPA":   popaHandler(W16),
		"POPAD":  popaHandler(W32),

		"PUSHF":  pushfHandler(W16),
		"PUSHFD": pushfHandler(W32),
		"POPF":   popfHandler(W16),
		"POPFD":  popfHandler(W32),

		"ENTER": enterHandler,
		"LEAVE": leaveHandler,

		"PUSH_ES": pushSegHandler(SegES),
		"PUSH_CS": pushSegHandler(SegCS),
		"PUSH_SS": pushSegHandler(SegSS),
		"PUSH_DS": pushSegHandler(SegDS),
		"PUSH_FS": pushSegHandler(SegFS),
		"PUSH_GS": pushSegHandler(SegGS),
		"POP_ES":  popSegHandler(SegES),
		"POP_SS":  popSegHandler(SegSS),
		"POP_DS":  popSegHandler(SegDS),
		"POP_FS":  popSegHandler(SegFS),
		"POP_GS":  popSegHandler(SegGS),
	})
}
