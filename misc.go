// misc.go - x86 Miscellaneous Opcode Implementations (XADD, CPUID, RDTSC, ...)
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import "math/rand"

// xaddHandler implements XADD: the old Dst value is written to Src
// (the pre-add value, matching the atomic-exchange-then-add contract),
// and Dst receives Dst+Src. Flags are the same ADD flags genericALU
// already computes.
func xaddHandler(c *SoftCPU, insn Instruction) {
	a := c.readOperand(insn.Dst, insn.Width)
	b := c.readOperand(insn.Src, insn.Width)
	result := c.genericALU(AluADD, insn.Width, a, b, false)
	c.writeOperand(insn.Src, insn.Width, a)
	c.writeOperand(insn.Dst, insn.Width, result)
}

// cmpxchgHandler implements CMPXCHG: compares the accumulator (AL/AX/
// EAX) against Dst; if equal, Src is written to Dst and ZF is set; if
// not, the accumulator is loaded with Dst's value and ZF is cleared.
// Either path runs genericALU's CMP flow so every other flag updates
// exactly as a CMP would.
func cmpxchgHandler(c *SoftCPU, insn Instruction) {
	dst := c.readOperand(insn.Dst, insn.Width)
	var acc Operand
	switch insn.Width {
	case W8:
		acc = toOperand(c.regs.GPR8(RegAL))
	case W16:
		acc = toOperand(c.regs.GPR16(RegEAX))
	case W32:
		acc = toOperand(c.regs.GPR32(RegEAX))
	}
	c.genericALU(AluCMP, insn.Width, acc, dst, false)
	if acc.Value&insn.Width.mask() == dst.Value&insn.Width.mask() {
		src := c.readOperand(insn.Src, insn.Width)
		c.writeOperand(insn.Dst, insn.Width, src)
	} else {
		switch insn.Width {
		case W8:
			c.regs.SetGPR8(RegAL, fromOperand8(dst))
		case W16:
			c.regs.SetGPR16(RegEAX, fromOperand16(dst))
		case W32:
			c.regs.SetGPR32(RegEAX, fromOperand32(dst))
		}
	}
}

// cpuidHandler returns a fixed vendor identification record regardless
// of the EAX leaf requested — there is no real hardware behind this
// core to query, so CPUID reports a constant, fully-defined identity
// rather than faulting or returning uninitialized data. ECX carries the
// attached VPU's feature bits, the one field a real coprocessor can
// actually influence.
func cpuidHandler(c *SoftCPU, insn Instruction) {
	c.regs.SetEAX(Defined[uint32](0x00000001))
	c.regs.SetEBX(Defined[uint32](0x74666f73)) // "tfos"
	c.regs.SetECX(Defined(c.vpu.FeatureBits()))
	c.regs.SetEDX(Defined[uint32](0x20367838)) // " 6x8"
}

// rdtscHandler returns the CPU's retired-instruction counter split
// across EDX:EAX, the architectural register pairing for RDTSC.
func rdtscHandler(c *SoftCPU, insn Instruction) {
	c.regs.SetEAX(Defined(uint32(c.tsc)))
	c.regs.SetEDX(Defined(uint32(c.tsc >> 32)))
}

// rdrandHandler/rdseedHandler fill Dst with host-sourced random bits
// and set CF to report success; this core has no entropy-exhaustion
// model, so CF is always 1. OF/SF/ZF/AF/PF are cleared per the
// architectural definition.
func rdrandHandler(c *SoftCPU, insn Instruction) {
	v := rand.Uint64() & insn.Width.mask()
	c.writeOperand(insn.Dst, insn.Width, Operand{Value: v})
	c.setFlagsWithMask(FlagCF, maskOSZAPC)
}

func rdseedHandler(c *SoftCPU, insn Instruction) {
	v := rand.Uint64() & insn.Width.mask()
	c.writeOperand(insn.Dst, insn.Width, Operand{Value: v})
	c.setFlagsWithMask(FlagCF, maskOSZAPC)
}

// sahfHandler copies AH's low byte into EFLAGS' low byte (SF ZF x AF
// PF x CF), the five condition flags SAHF/LAHF exchange.
const sahfMask = FlagSF | FlagZF | FlagAF | FlagPF | FlagCF

func sahfHandler(c *SoftCPU, insn Instruction) {
	ah := c.regs.GPR8(RegAH)
	c.setFlagsWithMask(uint32(ah.Value()), sahfMask)
	c.regs.flagsTainted = c.regs.flagsTainted || ah.IsUninitialized()
}

func lahfHandler(c *SoftCPU, insn Instruction) {
	shadow := uint8(0)
	if c.regs.FlagsTainted() {
		shadow = uint8(sahfMask)
	}
	c.regs.SetGPR8(RegAH, WithShadow(uint8(c.regs.EFLAGS()&sahfMask), shadow))
}

func inHandler(c *SoftCPU, insn Instruction) {
	port := uint16(c.readOperand(insn.Src, W16).Value)
	v := c.hooks.PortIn(port, insn.Width)
	c.writeOperand(insn.Dst, insn.Width, Operand{Value: uint64(v.Value()), Shadow: uint64(v.Shadow())})
}

func outHandler(c *SoftCPU, insn Instruction) {
	port := uint16(c.readOperand(insn.Dst, W16).Value)
	v := c.readOperand(insn.Src, insn.Width)
	c.hooks.PortOut(port, insn.Width, WithShadow(uint32(v.Value), uint32(v.Shadow)))
}

// intHandler/int3Handler/intoHandler/hltHandler all delegate wholesale
// to EmulatorHooks.Trap rather than modeling interrupt-descriptor-table
// dispatch, which is out of scope for an integer core with no privilege
// rings to speak of.
func intHandler(c *SoftCPU, insn Instruction) { c.hooks.Trap(uint8(insn.Src.Imm)) }
func int3Handler(c *SoftCPU, insn Instruction) { c.hooks.Trap(3) }
func int1Handler(c *SoftCPU, insn Instruction) { c.hooks.Trap(1) }

// intoHandler traps vector 4 only if OF is set, otherwise falls through
// as a no-op — INTO is a conditional trap, unlike INT3/INT1.
func intoHandler(c *SoftCPU, insn Instruction) {
	if c.regs.OF() {
		c.hooks.Trap(4)
	}
}

func hltHandler(c *SoftCPU, insn Instruction) { c.hooks.Trap(0xFF) }

func nopHandler(c *SoftCPU, insn Instruction) {}

// fnstswHandler backs FNSTSW AX: the x87 status word, forwarded
// untouched from the attached FPU, lands in AX fully defined (the FPU
// is assumed to track its own taint internally, out of this core's
// scope).
func fnstswHandler(c *SoftCPU, insn Instruction) {
	c.regs.SetGPR16(RegEAX, Defined(c.fpu.StatusWord()))
}

// fcomiHandler backs the FCOMI/FCOMIP family: an x87 comparison result
// is written directly into ZF/PF/CF, bypassing the integer ALU
// entirely — OF/SF/AF are cleared, matching the real instruction's
// defined behavior.
func fcomiHandler(c *SoftCPU, insn Instruction) {
	zf, pf, cf := c.fpu.CompareFlags()
	flags := uint32(0)
	if zf {
		flags |= FlagZF
	}
	if pf {
		flags |= FlagPF
	}
	if cf {
		flags |= FlagCF
	}
	c.setFlagsWithMask(flags, FlagZF|FlagPF|FlagCF|FlagOF|FlagSF|FlagAF)
}

func init() {
	register(map[string]HandlerFunc{
		"XADD":    xaddHandler,
		"CMPXCHG": cmpxchgHandler,
		"CPUID":   cpuidHandler,
		"RDTSC":   rdtscHandler,
		"RDRAND":  rdrandHandler,
		"RDSEED":  rdseedHandler,
		"SAHF":    sahfHandler,
		"LAHF":    lahfHandler,
		"IN":      inHandler,
		"OUT":     outHandler,
		"INT":     intHandler,
		"INT1":    int1Handler,
		"INT3":    int3Handler,
		"FNSTSW":  fnstswHandler,
		"FCOMI":   fcomiHandler,
		"INTO":    intoHandler,
		"HLT":     hltHandler,
		"NOP":     nopHandler,
	})
}
