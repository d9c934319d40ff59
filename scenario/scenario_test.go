// scenario_test.go - Black-Box Scenario Specs
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package scenario_test

import (
	"bytes"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zotley/softx86"
	"github.com/zotley/softx86/memtest"
)

// recordingHooks is a minimal EmulatorHooks used only to observe whether
// a fault/trap fired during a scenario; it records everything and never
// reacts.
type recordingHooks struct {
	faults []softx86.Fault
	traps  []uint8
}

func (h *recordingHooks) Fault(f softx86.Fault) { h.faults = append(h.faults, f) }
func (h *recordingHooks) Trap(v uint8)          { h.traps = append(h.traps, v) }
func (h *recordingHooks) PortIn(port uint16, w softx86.Width) softx86.ShadowValue[uint32] {
	return softx86.Defined[uint32](0)
}
func (h *recordingHooks) PortOut(port uint16, w softx86.Width, v softx86.ShadowValue[uint32]) {}

func newScenarioCPU() (*softx86.SoftCPU, *recordingHooks, *memtest.Memory) {
	mem := memtest.New(0, 256)
	hooks := &recordingHooks{}
	cpu := softx86.NewSoftCPU(mem, hooks)
	return cpu, hooks, mem
}

func reg(r softx86.GP32) softx86.InsnOperand {
	return softx86.InsnOperand{Kind: softx86.OperandReg, Reg: uint8(r)}
}

func imm(v uint64) softx86.InsnOperand {
	return softx86.InsnOperand{Kind: softx86.OperandImm, Imm: v}
}

var _ = Describe("signed overflow on ADD", func() {
	It("sets OF/SF and clears ZF/CF with flags fully defined", func() {
		cpu, _, _ := newScenarioCPU()
		cpu.Registers().SetEAX(softx86.Defined[uint32](0x7FFFFFFF))
		cpu.Execute(softx86.Instruction{Mnemonic: "ADD", Width: softx86.W32, Dst: reg(softx86.RegEAX), Src: imm(1)})

		Expect(cpu.Registers().EAX().Value()).To(Equal(uint32(0x80000000)))
		Expect(cpu.Registers().OF()).To(BeTrue())
		Expect(cpu.Registers().SF()).To(BeTrue())
		Expect(cpu.Registers().ZF()).To(BeFalse())
		Expect(cpu.Registers().CF()).To(BeFalse())
		Expect(cpu.Registers().AF()).To(BeTrue())
		Expect(cpu.Registers().FlagsTainted()).To(BeFalse())
	})
})

var _ = Describe("a conditional jump fed by tainted flags", func() {
	It("logs a taint diagnostic at the jump's own base_eip", func() {
		var logBuf bytes.Buffer
		diag := softx86.NewDiagnostics(slog.New(slog.NewTextHandler(&logBuf, nil)))
		cpu := softx86.NewSoftCPU(memtest.New(0, 256), &recordingHooks{}, softx86.WithDiagnostics(diag))
		// EAX starts fully uninitialized; ADD's result flags inherit that taint.
		cpu.Execute(softx86.Instruction{Mnemonic: "ADD", Width: softx86.W32, Dst: reg(softx86.RegEAX), Src: imm(1)})
		Expect(cpu.Registers().FlagsTainted()).To(BeTrue())

		cpu.Registers().SetEIP(0x1000)
		cpu.Execute(softx86.Instruction{Mnemonic: "JCC", Condition: 4, Src: imm(0x2000)}) // JZ
		// base_eip is latched before the handler runs, so it reflects the jump's own address.
		Expect(cpu.Registers().BaseEIP()).To(Equal(uint32(0x1000)))
		Expect(logBuf.String()).To(ContainSubstring("Jcc"))
		Expect(logBuf.String()).To(ContainSubstring("base_eip=4096"))
	})
})

var _ = Describe("INC AL crossing a nibble boundary", func() {
	It("sets AF and leaves a pre-existing CF and the high 24 bits untouched", func() {
		cpu, _, _ := newScenarioCPU()
		cpu.Registers().SetEAX(softx86.Defined[uint32](0xAABBCC0F))
		cpu.Registers().SetEFLAGSRaw(cpu.Registers().EFLAGS() | softx86.FlagCF)

		cpu.Execute(softx86.Instruction{Mnemonic: "INC", Width: softx86.W8, Dst: reg(softx86.RegEAX)})

		Expect(cpu.Registers().GPR8(softx86.RegAL).Value()).To(Equal(uint8(0x10)))
		Expect(cpu.Registers().AF()).To(BeTrue())
		Expect(cpu.Registers().ZF()).To(BeFalse())
		Expect(cpu.Registers().CF()).To(BeTrue(), "INC must never touch a pre-existing CF")
		Expect(cpu.Registers().EAX().Value() & 0xFFFFFF00).To(Equal(uint32(0xAABBCC00)))
	})
})

var _ = Describe("rep movsb copying a three-byte string", func() {
	It("advances both pointers by three and zeroes ECX", func() {
		cpu, _, mem := newScenarioCPU()
		mem.LoadDefined([]byte("ABCD"))
		cpu.Registers().SetESI(softx86.Defined[uint32](0))
		cpu.Registers().SetEDI(softx86.Defined[uint32](100))
		cpu.Registers().SetECX(softx86.Defined[uint32](3))
		cpu.Registers().SetEFLAGSRaw(cpu.Registers().EFLAGS() &^ softx86.FlagDF)

		cpu.Execute(softx86.Instruction{Mnemonic: "MOVS", Width: softx86.W8, RepPrefix: softx86.Rep})

		Expect(cpu.Registers().GPR32(softx86.RegECX).Value()).To(Equal(uint32(0)))
		Expect(cpu.Registers().ESI().Value()).To(Equal(uint32(3)))
		Expect(cpu.Registers().EDI().Value()).To(Equal(uint32(103)))
		Expect(mem.Read8(100).Value()).To(Equal(byte('A')))
		Expect(mem.Read8(101).Value()).To(Equal(byte('B')))
		Expect(mem.Read8(102).Value()).To(Equal(byte('C')))
	})
})

var _ = Describe("dividing by zero", func() {
	It("raises an arithmetic fault and leaves EAX/EDX untouched", func() {
		cpu, hooks, _ := newScenarioCPU()
		cpu.Registers().SetEAX(softx86.Defined[uint32](0))
		cpu.Registers().SetEDX(softx86.Defined[uint32](0))

		cpu.Execute(softx86.Instruction{Mnemonic: "DIV", Width: softx86.W32, Src: imm(0)})

		Expect(hooks.faults).To(HaveLen(1))
		Expect(hooks.faults[0].Kind).To(Equal(softx86.ArithmeticFault))
		Expect(cpu.Registers().EAX().Value()).To(Equal(uint32(0)))
		Expect(cpu.Registers().EDX().Value()).To(Equal(uint32(0)))
	})
})

var _ = Describe("pushf followed by pop eax", func() {
	It("round-trips the user-visible flag bits", func() {
		cpu, _, _ := newScenarioCPU()
		cpu.Registers().SetESP(softx86.Defined[uint32](128))
		cpu.Registers().SetEFLAGSRaw(cpu.Registers().EFLAGS() | softx86.FlagCF)
		cpu.Registers().SetEFLAGSRaw(cpu.Registers().EFLAGS() | softx86.FlagZF)
		cpu.Registers().SetEFLAGSRaw(cpu.Registers().EFLAGS() | softx86.FlagOF)

		cpu.Execute(softx86.Instruction{Mnemonic: "PUSHFD", Width: softx86.W32})
		cpu.Execute(softx86.Instruction{Mnemonic: "POP", Width: softx86.W32, Dst: reg(softx86.RegEAX)})

		want := softx86.FlagCF | softx86.FlagZF | softx86.FlagOF
		Expect(cpu.Registers().EAX().Value() & want).To(Equal(want))
	})
})
