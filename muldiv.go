// muldiv.go - x86 Multiply/Divide Opcode Implementations (Group 3)
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// mulHandler implements unsigned MUL: AL*Src->AX, AX*Src->DX:AX, or
// EAX*Src->EDX:EAX. CF and OF are set together: both 1 iff the upper
// half of the product is nonzero, both 0 otherwise; SF/ZF/AF/PF are
// left undefined (this leaves them at whatever the previous instruction
// set, matching how INC leaves CF alone: only the flags the operation
// architecturally defines are written).
func mulHandler(c *SoftCPU, insn Instruction) {
	b := c.readOperand(insn.Src, insn.Width)
	tainted := b.IsUninitialized()

	switch insn.Width {
	case W8:
		a := c.regs.GPR8(RegAL)
		tainted = tainted || a.IsUninitialized()
		product := uint32(a.Value()) * uint32(b.Value)
		c.regs.SetGPR16(RegEAX, WithShadow(uint16(product), taintMask16(tainted)))
		c.setMulFlags(tainted, product>>8 != 0)
	case W16:
		a := c.regs.GPR16(RegEAX)
		tainted = tainted || a.IsUninitialized()
		product := uint32(a.Value()) * uint32(b.Value)
		c.regs.SetGPR16(RegEAX, WithShadow(uint16(product), taintMask16(tainted)))
		c.regs.SetGPR16(RegEDX, WithShadow(uint16(product>>16), taintMask16(tainted)))
		c.setMulFlags(tainted, product>>16 != 0)
	case W32:
		a := c.regs.GPR32(RegEAX)
		tainted = tainted || a.IsUninitialized()
		product := uint64(a.Value()) * uint64(b.Value)
		c.regs.SetGPR32(RegEAX, WithShadow(uint32(product), taintMask32(tainted)))
		c.regs.SetGPR32(RegEDX, WithShadow(uint32(product>>32), taintMask32(tainted)))
		c.setMulFlags(tainted, product>>32 != 0)
	}
	c.regs.flagsTainted = tainted
}

// imulHandler implements signed IMUL in all three forms (one-operand
// like MUL, two-operand Dst*=Src, three-operand Dst=Src*imm). CF/OF are
// set iff the result did not fit back into the destination width when
// sign-extended; SF/ZF/AF/PF are undefined, same as MUL.
func imulHandler(c *SoftCPU, insn Instruction) {
	first, second := insn.Src, insn.Src2
	if insn.Src2.Kind == OperandNone {
		if insn.Dst.Kind == OperandNone {
			imulOneOperand(c, insn)
			return
		}
		first, second = insn.Dst, insn.Src // two-operand form: Dst *= Src
	}
	a := signed(c.readOperand(first, insn.Width), insn.Width)
	b := signed(c.readOperand(second, insn.Width), insn.Width)
	tainted := a.tainted || b.tainted

	raw := a.value * b.value
	result := uint64(raw) & insn.Width.mask()
	fits := raw == signExtendToInt64(result, insn.Width)

	c.writeOperand(insn.Dst, insn.Width, Operand{Value: result, Shadow: taintMask(tainted, insn.Width)})
	c.setMulFlags(tainted, !fits)
	c.regs.flagsTainted = tainted
}

func imulOneOperand(c *SoftCPU, insn Instruction) {
	b := signed(c.readOperand(insn.Src, insn.Width), insn.Width)
	switch insn.Width {
	case W8:
		a := signed(toOperand(c.regs.GPR8(RegAL)), W8)
		tainted := a.tainted || b.tainted
		product := a.value * b.value
		c.regs.SetGPR16(RegEAX, WithShadow(uint16(product), taintMask16(tainted)))
		fits := product == int64(int8(product))
		c.setMulFlags(tainted, !fits)
		c.regs.flagsTainted = tainted
	case W16:
		a := signed(toOperand(c.regs.GPR16(RegEAX)), W16)
		tainted := a.tainted || b.tainted
		product := a.value * b.value
		c.regs.SetGPR16(RegEAX, WithShadow(uint16(product), taintMask16(tainted)))
		c.regs.SetGPR16(RegEDX, WithShadow(uint16(product>>16), taintMask16(tainted)))
		fits := product == int64(int16(product))
		c.setMulFlags(tainted, !fits)
		c.regs.flagsTainted = tainted
	case W32:
		a := signed(toOperand(c.regs.GPR32(RegEAX)), W32)
		tainted := a.tainted || b.tainted
		product := a.value * b.value
		c.regs.SetGPR32(RegEAX, WithShadow(uint32(product), taintMask32(tainted)))
		c.regs.SetGPR32(RegEDX, WithShadow(uint32(product>>32), taintMask32(tainted)))
		fits := product == int64(int32(product))
		c.setMulFlags(tainted, !fits)
		c.regs.flagsTainted = tainted
	}
}

func (c *SoftCPU) setMulFlags(tainted, overflowed bool) {
	flags := uint32(0)
	if overflowed {
		flags = FlagCF | FlagOF
	}
	c.setFlagsWithMask(flags, FlagCF|FlagOF)
}

// divHandler implements unsigned DIV: AX/Src->AL,AH; DX:AX/Src->AX,DX;
// EDX:EAX/Src->EAX,EDX. Division by zero and a quotient that overflows
// the destination width both raise ArithmeticFault with no register
// write-back at all — the dividend is left exactly as it was.
func divHandler(c *SoftCPU, insn Instruction) {
	b := c.readOperand(insn.Src, insn.Width)
	if b.Value == 0 {
		c.raiseFault(Fault{Kind: ArithmeticFault, Message: "divide by zero"})
		return
	}
	tainted := b.IsUninitialized()

	switch insn.Width {
	case W8:
		ax := c.regs.GPR16(RegEAX)
		tainted = tainted || ax.IsUninitialized()
		dividend := uint32(ax.Value())
		q, r := dividend/uint32(b.Value), dividend%uint32(b.Value)
		if q > 0xFF {
			c.raiseFault(Fault{Kind: ArithmeticFault, Message: "DIV quotient overflow"})
			return
		}
		c.regs.SetGPR8(RegAL, WithShadow(uint8(q), taint8(tainted)))
		c.regs.SetGPR8(RegAH, WithShadow(uint8(r), taint8(tainted)))
	case W16:
		dx := c.regs.GPR16(RegEDX)
		ax := c.regs.GPR16(RegEAX)
		tainted = tainted || dx.IsUninitialized() || ax.IsUninitialized()
		dividend := uint32(dx.Value())<<16 | uint32(ax.Value())
		q, r := dividend/uint32(b.Value), dividend%uint32(b.Value)
		if q > 0xFFFF {
			c.raiseFault(Fault{Kind: ArithmeticFault, Message: "DIV quotient overflow"})
			return
		}
		c.regs.SetGPR16(RegEAX, WithShadow(uint16(q), taintMask16(tainted)))
		c.regs.SetGPR16(RegEDX, WithShadow(uint16(r), taintMask16(tainted)))
	case W32:
		edx := c.regs.GPR32(RegEDX)
		eax := c.regs.GPR32(RegEAX)
		tainted = tainted || edx.IsUninitialized() || eax.IsUninitialized()
		dividend := uint64(edx.Value())<<32 | uint64(eax.Value())
		divisor := uint64(b.Value)
		q, r := dividend/divisor, dividend%divisor
		if q > 0xFFFFFFFF {
			c.raiseFault(Fault{Kind: ArithmeticFault, Message: "DIV quotient overflow"})
			return
		}
		c.regs.SetGPR32(RegEAX, WithShadow(uint32(q), taintMask32(tainted)))
		c.regs.SetGPR32(RegEDX, WithShadow(uint32(r), taintMask32(tainted)))
	}
	c.regs.flagsTainted = tainted
}

// idivHandler is DIV's signed counterpart, same register pairing, same
// no-write-back-on-fault contract.
func idivHandler(c *SoftCPU, insn Instruction) {
	b := signed(c.readOperand(insn.Src, insn.Width), insn.Width)
	if b.value == 0 {
		c.raiseFault(Fault{Kind: ArithmeticFault, Message: "divide by zero"})
		return
	}

	switch insn.Width {
	case W8:
		ax := c.regs.GPR16(RegEAX)
		tainted := b.tainted || ax.IsUninitialized()
		dividend := int32(int16(ax.Value()))
		q, r := dividend/int32(b.value), dividend%int32(b.value)
		if q > 127 || q < -128 {
			c.raiseFault(Fault{Kind: ArithmeticFault, Message: "IDIV quotient overflow"})
			return
		}
		c.regs.SetGPR8(RegAL, WithShadow(uint8(int8(q)), taint8(tainted)))
		c.regs.SetGPR8(RegAH, WithShadow(uint8(int8(r)), taint8(tainted)))
		c.regs.flagsTainted = tainted
	case W16:
		dx := c.regs.GPR16(RegEDX)
		ax := c.regs.GPR16(RegEAX)
		tainted := b.tainted || dx.IsUninitialized() || ax.IsUninitialized()
		dividend := int32(int16(dx.Value()))<<16 | int32(ax.Value())
		q, r := dividend/int32(b.value), dividend%int32(b.value)
		if q > 32767 || q < -32768 {
			c.raiseFault(Fault{Kind: ArithmeticFault, Message: "IDIV quotient overflow"})
			return
		}
		c.regs.SetGPR16(RegEAX, WithShadow(uint16(int16(q)), taintMask16(tainted)))
		c.regs.SetGPR16(RegEDX, WithShadow(uint16(int16(r)), taintMask16(tainted)))
		c.regs.flagsTainted = tainted
	case W32:
		edx := c.regs.GPR32(RegEDX)
		eax := c.regs.GPR32(RegEAX)
		tainted := b.tainted || edx.IsUninitialized() || eax.IsUninitialized()
		dividend := int64(int32(edx.Value()))<<32 | int64(uint64(eax.Value()))
		divisor := int64(b.value)
		q, r := dividend/divisor, dividend%divisor
		if q > 2147483647 || q < -2147483648 {
			c.raiseFault(Fault{Kind: ArithmeticFault, Message: "IDIV quotient overflow"})
			return
		}
		c.regs.SetGPR32(RegEAX, WithShadow(uint32(int32(q)), taintMask32(tainted)))
		c.regs.SetGPR32(RegEDX, WithShadow(uint32(int32(r)), taintMask32(tainted)))
		c.regs.flagsTainted = tainted
	}
}

type signedOperand struct {
	value   int64
	tainted bool
}

func signed(o Operand, width Width) signedOperand {
	v := int64(signExtendToInt64(o.Value, width))
	return signedOperand{value: v, tainted: o.IsUninitialized()}
}

func signExtendToInt64(v uint64, width Width) int64 {
	shift := 64 - uint(width)
	return int64(v<<shift) >> shift
}

func taintMask16(tainted bool) uint16 {
	if tainted {
		return 0xFFFF
	}
	return 0
}

func taintMask32(tainted bool) uint32 {
	if tainted {
		return 0xFFFFFFFF
	}
	return 0
}

func taintMask(tainted bool, width Width) uint64 {
	if tainted {
		return width.mask()
	}
	return 0
}

func taint8(tainted bool) uint8 {
	if tainted {
		return 0xFF
	}
	return 0
}

func init() {
	register(map[string]HandlerFunc{
		"MUL":  mulHandler,
		"IMUL": imulHandler,
		"DIV":  divHandler,
		"IDIV": idivHandler,
	})
}
