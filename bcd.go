// bcd.go - x86 BCD Adjustment Opcode Implementations
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// aaaHandler implements ASCII Adjust After Addition: if AL's low nibble
// exceeds 9 or AF is set, AL += 6, AH += 1, AF and CF are set; AL's high
// nibble is always cleared afterward. AF/CF are the only flags defined;
// OF/SF/ZF/PF are left undefined (fixed at 0 here, same convention as
// the logical-op flags).
func aaaHandler(c *SoftCPU, insn Instruction) {
	al := c.regs.GPR8(RegAL)
	adjust := al.Value()&0xF > 9 || c.regs.AF()
	tainted := al.IsUninitialized()

	newAL := al.Value()
	if adjust {
		newAL += 6
		ah := c.regs.GPR8(RegAH)
		c.regs.SetGPR8(RegAH, WithShadow(ah.Value()+1, ah.Shadow()|taint8(tainted)))
	}
	newAL &= 0xF
	c.regs.SetGPR8(RegAL, WithShadow(newAL, taint8(tainted)))
	c.setFlagsWithMask(bcdFlags(adjust), maskOSZAPC)
	c.regs.flagsTainted = tainted
}

// aasHandler is AAA's subtraction counterpart: same adjust condition,
// AL -= 6, AH -= 1 instead of adding.
func aasHandler(c *SoftCPU, insn Instruction) {
	al := c.regs.GPR8(RegAL)
	adjust := al.Value()&0xF > 9 || c.regs.AF()
	tainted := al.IsUninitialized()

	newAL := al.Value()
	if adjust {
		newAL -= 6
		ah := c.regs.GPR8(RegAH)
		c.regs.SetGPR8(RegAH, WithShadow(ah.Value()-1, ah.Shadow()|taint8(tainted)))
	}
	newAL &= 0xF
	c.regs.SetGPR8(RegAL, WithShadow(newAL, taint8(tainted)))
	c.setFlagsWithMask(bcdFlags(adjust), maskOSZAPC)
	c.regs.flagsTainted = tainted
}

func bcdFlags(adjust bool) uint32 {
	if adjust {
		return FlagAF | FlagCF
	}
	return 0
}

// aamHandler implements ASCII Adjust After Multiply: AH = AL / imm8, AL =
// AL % imm8, where imm8 is the base the decoder supplies in Src.Imm (10
// for the standard encoding; no default is applied here). Dividing
// by zero raises the same ArithmeticFault DIV does — AAM is a disguised
// division and inherits its fault behavior.
func aamHandler(c *SoftCPU, insn Instruction) {
	base := uint8(insn.Src.Imm)
	if base == 0 {
		c.raiseFault(Fault{Kind: ArithmeticFault, Message: "AAM divide by zero"})
		return
	}
	al := c.regs.GPR8(RegAL)
	tainted := al.IsUninitialized()
	ah := al.Value() / base
	newAL := al.Value() % base
	c.regs.SetGPR8(RegAH, WithShadow(ah, taint8(tainted)))
	c.regs.SetGPR8(RegAL, WithShadow(newAL, taint8(tainted)))
	c.setFlagsOSZAPC(logicFlags(W8, uint64(newAL)))
	c.regs.flagsTainted = tainted
}

// aadHandler implements ASCII Adjust Before Division: AL = AL + AH*imm8,
// AH = 0, where imm8 is taken from Src.Imm as the decoder supplies it (10
// for the standard encoding; no default is applied here). It runs before a subsequent DIV, not
// after one — the mnemonic names when it is used, not what it computes.
func aadHandler(c *SoftCPU, insn Instruction) {
	base := uint8(insn.Src.Imm)
	al := c.regs.GPR8(RegAL)
	ah := c.regs.GPR8(RegAH)
	tainted := al.IsUninitialized() || ah.IsUninitialized()
	newAL := al.Value() + ah.Value()*base
	c.regs.SetGPR8(RegAL, WithShadow(newAL, taint8(tainted)))
	c.regs.SetGPR8(RegAH, WithShadow(uint8(0), uint8(0)))
	c.setFlagsOSZAPC(logicFlags(W8, uint64(newAL)))
	c.regs.flagsTainted = tainted
}

// daaHandler implements Decimal Adjust after Addition on AL, following
// the two-stage low-nibble/high-nibble adjustment the architecture
// defines: each half is corrected independently, and CF sticks once set
// by either stage (a DAA that corrects the high nibble must not clear a
// CF the low-nibble stage already raised).
func daaHandler(c *SoftCPU, insn Instruction) {
	al := c.regs.GPR8(RegAL)
	tainted := al.IsUninitialized()
	v := al.Value()
	oldCF := c.regs.CF()
	oldAL := v
	cf := false
	af := false

	if v&0xF > 9 || c.regs.AF() {
		v += 6
		af = true
		if v < 6 || oldCF {
			cf = true
		}
	}
	if oldAL > 0x99 || oldCF {
		v += 0x60
		cf = true
	}

	c.regs.SetGPR8(RegAL, WithShadow(v, taint8(tainted)))
	flags := logicFlags(W8, uint64(v))
	if cf {
		flags |= FlagCF
	}
	if af {
		flags |= FlagAF
	}
	c.setFlagsOSZAPC(flags)
	c.regs.flagsTainted = tainted
}

// dasHandler is DAA's subtraction counterpart.
func dasHandler(c *SoftCPU, insn Instruction) {
	al := c.regs.GPR8(RegAL)
	tainted := al.IsUninitialized()
	v := al.Value()
	oldCF := c.regs.CF()
	oldAL := v
	cf := false
	af := false

	if v&0xF > 9 || c.regs.AF() {
		v -= 6
		af = true
		if oldAL < 6 || oldCF {
			cf = true
		}
	}
	if oldAL > 0x99 || oldCF {
		v -= 0x60
		cf = true
	}

	c.regs.SetGPR8(RegAL, WithShadow(v, taint8(tainted)))
	flags := logicFlags(W8, uint64(v))
	if cf {
		flags |= FlagCF
	}
	if af {
		flags |= FlagAF
	}
	c.setFlagsOSZAPC(flags)
	c.regs.flagsTainted = tainted
}

func init() {
	register(map[string]HandlerFunc{
		"AAA": aaaHandler,
		"AAS": aasHandler,
		"AAM": aamHandler,
		"AAD": aadHandler,
		"DAA": daaHandler,
		"DAS": dasHandler,
	})
}
