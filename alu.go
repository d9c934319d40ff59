// alu.go - x86 ALU Opcode Implementations (Group 1, INC/DEC/NOT/NEG)
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// AluOp names an arithmetic/logical opcode family. genericALU factors
// the identical add/flags/writeback shape all eight share across every
// operand width and register/memory form — the "generic operation
// templates" component this core leans on to avoid a handler per width.
type AluOp int

const (
	AluADD AluOp = iota
	AluOR
	AluADC
	AluSBB
	AluAND
	AluSUB
	AluXOR
	AluCMP
)

func (op AluOp) isArithmetic() bool {
	switch op {
	case AluADD, AluADC, AluSUB, AluSBB, AluCMP:
		return true
	}
	return false
}

func (op AluOp) isSubtract() bool {
	switch op {
	case AluSUB, AluSBB, AluCMP:
		return true
	}
	return false
}

// genericALU computes op(a, b) at width, sets EFLAGS and flags_tainted
// from a and b, and returns the result Operand. Callers decide whether
// to write the result back (CMP/TEST discard it). sameOperand marks the
// XOR reg,reg / SUB reg,reg dependency-breaking idiom: the CPU's result
// is architecturally zero no matter what the register held, so this
// path reports the result (and the flags computed from it) as fully
// defined rather than inheriting the operand's taint — otherwise the
// extremely common "zero a register" idiom would spuriously taint every
// register it initializes.
func (c *SoftCPU) genericALU(op AluOp, width Width, a, b Operand, sameOperand bool) Operand {
	var result Operand
	var flags uint32

	if sameOperand && (op == AluXOR || op == AluSUB) {
		flags = logicFlags(width, 0) | FlagZF
		c.setFlagsOSZAPC(flags)
		c.regs.flagsTainted = false
		return Operand{Value: 0}
	}

	carryIn := uint64(0)
	if (op == AluADC || op == AluSBB) && c.regs.CF() {
		carryIn = 1
	}
	carryTainted := (op == AluADC || op == AluSBB) && c.regs.flagsTainted

	switch op {
	case AluADD, AluADC, AluSUB, AluSBB, AluCMP:
		bAdj := b.Value + carryIn
		bShadowAdj := b.Shadow // carry-in taint is folded into flags_tainted below, not the bit pattern
		var raw uint64
		if op.isSubtract() {
			raw = a.Value - bAdj
		} else {
			raw = a.Value + bAdj
		}
		result = Operand{Value: raw & width.mask(), Shadow: a.Shadow | bShadowAdj}
		flags = arithFlags(width, a.Value, bAdj, raw, op.isSubtract())
		c.setFlagsOSZAPC(flags)
	case AluAND, AluOR, AluXOR:
		var raw uint64
		switch op {
		case AluAND:
			raw = a.Value & b.Value
		case AluOR:
			raw = a.Value | b.Value
		case AluXOR:
			raw = a.Value ^ b.Value
		}
		result = Operand{Value: raw & width.mask(), Shadow: (a.Shadow | b.Shadow) & width.mask()}
		flags = logicFlags(width, raw)
		c.setFlagsOSZAPC(flags) // AF is architecturally undefined for logicals; fixed here at 0 for determinism
	}

	c.taintFlagsFrom(a, b)
	if carryTainted {
		c.regs.flagsTainted = true
	}
	return result
}

func init() {
	register(map[string]HandlerFunc{
		"ADD": aluHandler(AluADD, true),
		"OR":  aluHandler(AluOR, true),
		"ADC": aluHandler(AluADC, true),
		"SBB": aluHandler(AluSBB, true),
		"AND": aluHandler(AluAND, true),
		"SUB": aluHandler(AluSUB, true),
		"XOR": aluHandler(AluXOR, true),
		"CMP": aluHandler(AluCMP, false),

		"TEST": func(c *SoftCPU, insn Instruction) {
			a := c.readOperand(insn.Dst, insn.Width)
			b := c.readOperand(insn.Src, insn.Width)
			result := Operand{Value: a.Value & b.Value, Shadow: (a.Shadow | b.Shadow) & insn.Width.mask()}
			c.setFlagsOSZAPC(logicFlags(insn.Width, result.Value))
			c.taintFlagsFrom(a, b)
		},

		"INC": func(c *SoftCPU, insn Instruction) {
			a := c.readOperand(insn.Dst, insn.Width)
			raw := a.Value + 1
			result := Operand{Value: raw & insn.Width.mask(), Shadow: a.Shadow}
			// INC/DEC affect OSZAP only — CF is left untouched, per the
			// x86 architectural definition (so a carry chain across
			// INC/ADC sequences survives).
			flags := arithFlags(insn.Width, a.Value, 1, raw, false)
			c.setFlagsOSZAP(flags)
			c.taintFlagsFrom(a)
			c.writeOperand(insn.Dst, insn.Width, result)
		},

		"DEC": func(c *SoftCPU, insn Instruction) {
			a := c.readOperand(insn.Dst, insn.Width)
			raw := a.Value - 1
			result := Operand{Value: raw & insn.Width.mask(), Shadow: a.Shadow}
			flags := arithFlags(insn.Width, a.Value, 1, raw, true)
			c.setFlagsOSZAP(flags)
			c.taintFlagsFrom(a)
			c.writeOperand(insn.Dst, insn.Width, result)
		},

		"NOT": func(c *SoftCPU, insn Instruction) {
			a := c.readOperand(insn.Dst, insn.Width)
			result := Operand{Value: (^a.Value) & insn.Width.mask(), Shadow: a.Shadow}
			// NOT does not affect any flag.
			c.writeOperand(insn.Dst, insn.Width, result)
		},

		"NEG": func(c *SoftCPU, insn Instruction) {
			a := c.readOperand(insn.Dst, insn.Width)
			raw := uint64(0) - a.Value
			result := Operand{Value: raw & insn.Width.mask(), Shadow: a.Shadow}
			flags := arithFlags(insn.Width, 0, a.Value, raw, true)
			c.setFlagsOSZAPC(flags)
			c.taintFlagsFrom(a)
			c.writeOperand(insn.Dst, insn.Width, result)
		},
	})
}

// aluHandler returns the registered handler for one of the eight
// Group-1 families. writeBack is false only for CMP, which computes
// flags and discards the result.
func aluHandler(op AluOp, writeBack bool) HandlerFunc {
	return func(c *SoftCPU, insn Instruction) {
		a := c.readOperand(insn.Dst, insn.Width)
		b := c.readOperand(insn.Src, insn.Width)
		sameOperand := insn.Dst.Kind == OperandReg && insn.Src.Kind == OperandReg && insn.Dst.Reg == insn.Src.Reg
		result := c.genericALU(op, insn.Width, a, b, sameOperand)
		if writeBack {
			c.writeOperand(insn.Dst, insn.Width, result)
		}
	}
}
