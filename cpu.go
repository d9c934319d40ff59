// cpu.go - SoftCPU Integer Core
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// SoftCPU is the integer core: register file, flag engine, fetch cache,
// and the instruction interpreter. It is constructed with a reference to
// its MMU and emulator-hooks collaborators and lives as long as the
// emulating process; the MMU and regions it reads from are borrowed with
// a lifetime strictly longer than the CPU's own.
type SoftCPU struct {
	regs  RegisterFile
	fetch FetchCache

	mmu   MMU
	hooks EmulatorHooks
	fpu   FPU
	vpu   VPU
	diag  *Diagnostics

	tsc uint64 // monotonic counter RDTSC reads and every retired instruction advances
}

// Option configures optional SoftCPU collaborators at construction time.
type Option func(*SoftCPU)

// WithFPU attaches a real x87/MMX/SSE coprocessor. Defaults to NullFPU.
func WithFPU(fpu FPU) Option { return func(c *SoftCPU) { c.fpu = fpu } }

// WithVPU attaches a real vector coprocessor. Defaults to NullVPU.
func WithVPU(vpu VPU) Option { return func(c *SoftCPU) { c.vpu = vpu } }

// WithDiagnostics attaches a diagnostics sink. Defaults to one wrapping
// the default slog logger.
func WithDiagnostics(d *Diagnostics) Option { return func(c *SoftCPU) { c.diag = d } }

// NewSoftCPU constructs a CPU with all registers born uninitialized —
// a loader must explicitly define the stack pointer and any registers
// a program depends on before first fetch.
func NewSoftCPU(mmu MMU, hooks EmulatorHooks, opts ...Option) *SoftCPU {
	c := &SoftCPU{
		regs:  NewRegisterFile(),
		mmu:   mmu,
		hooks: hooks,
		fpu:   NullFPU{},
		vpu:   NullVPU{},
		diag:  NewDiagnostics(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registers exposes the register file to callers that need direct
// access (a loader initializing ESP, or tests asserting state).
func (c *SoftCPU) Registers() *RegisterFile { return &c.regs }

// MMU returns the CPU's memory collaborator.
func (c *SoftCPU) MMU() MMU { return c.mmu }

// InvalidateFetchCache forces the next fetch to re-resolve EIP's region.
// A decoder or loader should call this after any write that might alias
// the currently-executing code region.
func (c *SoftCPU) InvalidateFetchCache() { c.fetch.invalidate() }

// Execute dispatches a decoded instruction to its handler, recording
// base_eip first (so any fault or diagnostic during the handler reports
// the instruction's start address, not wherever EIP has walked to by
// then). Instructions whose mnemonic has no registered handler raise an
// invalid-opcode fault rather than being silently ignored.
func (c *SoftCPU) Execute(insn Instruction) {
	c.regs.SaveBaseEIP()
	handler, ok := handlerTable[insn.Mnemonic]
	if !ok {
		c.raiseInvalidOpcode(insn.Mnemonic)
		return
	}
	handler(c, insn)
	c.tsc++
}

// readOperand loads a decoded operand (immediate, register, or memory)
// at the given width into the width-erased Operand form the ALU/shift
// templates share.
func (c *SoftCPU) readOperand(o InsnOperand, width Width) Operand {
	switch o.Kind {
	case OperandImm:
		return Operand{Value: o.Imm & width.mask()}
	case OperandReg:
		switch width {
		case W8:
			return toOperand(c.regs.GPR8(GP8(o.Reg)))
		case W16:
			return toOperand(c.regs.GPR16(GP16(o.Reg)))
		case W32:
			return toOperand(c.regs.GPR32(GP32(o.Reg)))
		}
	case OperandMem:
		switch width {
		case W8:
			return toOperand(c.mmu.Read8(o.Addr))
		case W16:
			return toOperand(c.mmu.Read16(o.Addr))
		case W32:
			return toOperand(c.mmu.Read32(o.Addr))
		}
	}
	panic("softx86: unsupported operand kind/width in readOperand")
}

// writeOperand stores v back to a register or memory destination. It is
// a programming error to pass an immediate destination.
func (c *SoftCPU) writeOperand(o InsnOperand, width Width, v Operand) {
	switch o.Kind {
	case OperandReg:
		switch width {
		case W8:
			c.regs.SetGPR8(GP8(o.Reg), fromOperand8(v))
		case W16:
			c.regs.SetGPR16(GP16(o.Reg), fromOperand16(v))
		case W32:
			c.regs.SetGPR32(GP32(o.Reg), fromOperand32(v))
		}
	case OperandMem:
		switch width {
		case W8:
			c.mmu.Write8(o.Addr, fromOperand8(v))
		case W16:
			c.mmu.Write16(o.Addr, fromOperand16(v))
		case W32:
			c.mmu.Write32(o.Addr, fromOperand32(v))
		}
	default:
		panic("softx86: cannot write to an immediate operand")
	}
}
