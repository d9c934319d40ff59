// stringops.go - x86 String Opcode Implementations (REP-prefixed)
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// step returns +width/8 or -width/8 depending on DF, the direction
// string instructions advance ESI/EDI by after each iteration.
func (c *SoftCPU) step(width Width) uint32 {
	n := uint32(width) / 8
	if c.regs.DF() {
		return uint32(-int32(n))
	}
	return n
}

func advance(cell ShadowValue[uint32], delta uint32) ShadowValue[uint32] {
	return WithShadow(cell.Value()+delta, cell.Shadow())
}

// repDriver runs body repeatedly, decrementing ECX first each iteration
// like the real REP prefix, and for REPE/REPNE stopping early on a ZF
// mismatch. A bare (unprefixed) string instruction runs body exactly
// once. This collapses MOVS/STOS/LODS/CMPS/SCAS's REP, REPE, and REPNE
// forms into one loop shared across all five mnemonics.
func (c *SoftCPU) repDriver(insn Instruction, checksZF bool, body func()) {
	if insn.RepPrefix == RepNone {
		body()
		return
	}

	wantZF := insn.RepPrefix == Rep // used only when checksZF is true: REP==REPE, RepNZ==REPNE
	c.warnIfTainted(c.regs.GPR32(RegECX).IsUninitialized(), "REP loop counter (ECX) is uninitialized; deciding the loop on its defined bits")
	for {
		ecx := c.regs.GPR32(RegECX)
		if ecx.Value() == 0 {
			break
		}
		newECX := ecx.Value() - 1
		c.regs.SetGPR32(RegECX, WithShadow(newECX, ecx.Shadow()))

		body()

		if newECX == 0 {
			break
		}
		if checksZF && c.regs.ZF() != wantZF {
			break
		}
	}
}

func movsHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, false, func() {
		esi := c.regs.ESI()
		edi := c.regs.EDI()
		var v Operand
		switch insn.Width {
		case W8:
			v = toOperand(c.mmu.Read8(esi.Value()))
			c.mmu.Write8(edi.Value(), fromOperand8(v))
		case W16:
			v = toOperand(c.mmu.Read16(esi.Value()))
			c.mmu.Write16(edi.Value(), fromOperand16(v))
		case W32:
			v = toOperand(c.mmu.Read32(esi.Value()))
			c.mmu.Write32(edi.Value(), fromOperand32(v))
		}
		delta := c.step(insn.Width)
		c.regs.SetESI(advance(esi, delta))
		c.regs.SetEDI(advance(edi, delta))
	})
}

func stosHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, false, func() {
		edi := c.regs.EDI()
		var v Operand
		switch insn.Width {
		case W8:
			v = toOperand(c.regs.GPR8(RegAL))
			c.mmu.Write8(edi.Value(), fromOperand8(v))
		case W16:
			v = toOperand(c.regs.GPR16(RegEAX))
			c.mmu.Write16(edi.Value(), fromOperand16(v))
		case W32:
			v = toOperand(c.regs.GPR32(RegEAX))
			c.mmu.Write32(edi.Value(), fromOperand32(v))
		}
		c.regs.SetEDI(advance(edi, c.step(insn.Width)))
	})
}

func lodsHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, false, func() {
		esi := c.regs.ESI()
		var v Operand
		switch insn.Width {
		case W8:
			v = toOperand(c.mmu.Read8(esi.Value()))
			c.regs.SetGPR8(RegAL, fromOperand8(v))
		case W16:
			v = toOperand(c.mmu.Read16(esi.Value()))
			c.regs.SetGPR16(RegEAX, fromOperand16(v))
		case W32:
			v = toOperand(c.mmu.Read32(esi.Value()))
			c.regs.SetGPR32(RegEAX, fromOperand32(v))
		}
		c.regs.SetESI(advance(esi, c.step(insn.Width)))
	})
}

func cmpsHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, true, func() {
		esi := c.regs.ESI()
		edi := c.regs.EDI()
		var a, b Operand
		switch insn.Width {
		case W8:
			a = toOperand(c.mmu.Read8(esi.Value()))
			b = toOperand(c.mmu.Read8(edi.Value()))
		case W16:
			a = toOperand(c.mmu.Read16(esi.Value()))
			b = toOperand(c.mmu.Read16(edi.Value()))
		case W32:
			a = toOperand(c.mmu.Read32(esi.Value()))
			b = toOperand(c.mmu.Read32(edi.Value()))
		}
		c.genericALU(AluCMP, insn.Width, a, b, false)
		delta := c.step(insn.Width)
		c.regs.SetESI(advance(esi, delta))
		c.regs.SetEDI(advance(edi, delta))
	})
}

func scasHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, true, func() {
		edi := c.regs.EDI()
		var a, b Operand
		switch insn.Width {
		case W8:
			a = toOperand(c.regs.GPR8(RegAL))
			b = toOperand(c.mmu.Read8(edi.Value()))
		case W16:
			a = toOperand(c.regs.GPR16(RegEAX))
			b = toOperand(c.mmu.Read16(edi.Value()))
		case W32:
			a = toOperand(c.regs.GPR32(RegEAX))
			b = toOperand(c.mmu.Read32(edi.Value()))
		}
		c.genericALU(AluCMP, insn.Width, a, b, false)
		c.regs.SetEDI(advance(edi, c.step(insn.Width)))
	})
}

// insHandler/outsHandler implement the port-mapped string forms,
// sourcing/sinking through EmulatorHooks.PortIn/PortOut instead of the
// MMU. INS stores the value and shadow PortIn returns unchanged, and OUTS
// hands PortOut the shadow of the bytes it read.
func insHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, false, func() {
		edi := c.regs.EDI()
		port := uint16(c.regs.GPR16(RegEDX).Value())
		v := c.hooks.PortIn(port, insn.Width)
		switch insn.Width {
		case W8:
			c.mmu.Write8(edi.Value(), WithShadow(uint8(v.Value()), uint8(v.Shadow())))
		case W16:
			c.mmu.Write16(edi.Value(), WithShadow(uint16(v.Value()), uint16(v.Shadow())))
		case W32:
			c.mmu.Write32(edi.Value(), v)
		}
		c.regs.SetEDI(advance(edi, c.step(insn.Width)))
	})
}

func outsHandler(c *SoftCPU, insn Instruction) {
	c.repDriver(insn, false, func() {
		esi := c.regs.ESI()
		port := uint16(c.regs.GPR16(RegEDX).Value())
		var v Operand
		switch insn.Width {
		case W8:
			v = toOperand(c.mmu.Read8(esi.Value()))
		case W16:
			v = toOperand(c.mmu.Read16(esi.Value()))
		case W32:
			v = toOperand(c.mmu.Read32(esi.Value()))
		}
		c.hooks.PortOut(port, insn.Width, WithShadow(uint32(v.Value), uint32(v.Shadow)))
		c.regs.SetESI(advance(esi, c.step(insn.Width)))
	})
}

func init() {
	register(map[string]HandlerFunc{
		"MOVS": movsHandler,
		"STOS": stosHandler,
		"LODS": lodsHandler,
		"CMPS": cmpsHandler,
		"SCAS": scasHandler,
		"INS":  insHandler,
		"OUTS": outsHandler,
	})
}
