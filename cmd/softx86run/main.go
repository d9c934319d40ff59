// main.go - SoftCPU Smoke-Test Runner
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

// Command softx86run loads a tiny fixed-width bytecode program into the
// reference MMU and steps the integer core over it, printing a trace
// and a final register/flag dump. It is a smoke-test harness, not a
// real x86 loader — nothing here decodes actual x86 machine code; the
// per-opcode decoding a real frontend would own is stubbed out to a
// fixed 8-byte-per-instruction record so this core has something to
// execute end to end without pulling in a real decoder.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/zotley/softx86"
	"github.com/zotley/softx86/memtest"
)

// Each instruction is a fixed 8-byte record:
// opcode(1) width(1) dstKind(1) dstReg(1) srcKind(1) srcReg(1) imm(2 LE)
var opcodeNames = map[byte]string{
	0x01: "MOV",
	0x02: "ADD",
	0x03: "SUB",
	0x04: "INC",
	0x05: "CMP",
	0xFE: "HLT",
	0xFF: "NOP",
}

func decodeAt(mem *memtest.Memory, eip uint32) (softx86.Instruction, uint32, bool) {
	raw := make([]byte, 8)
	for i := 0; i < 8; i++ {
		sv := mem.Read8(eip + uint32(i))
		raw[i] = sv.Value()
	}
	opcode := raw[0]
	name, ok := opcodeNames[opcode]
	if !ok {
		return softx86.Instruction{}, 0, false
	}
	widths := [3]softx86.Width{softx86.W8, softx86.W16, softx86.W32}
	insn := softx86.Instruction{
		Mnemonic: name,
		Width:    widths[raw[1]%3],
		Dst: softx86.InsnOperand{
			Kind: softx86.OperandKind(raw[2]),
			Reg:  raw[3],
		},
		Src: softx86.InsnOperand{
			Kind: softx86.OperandKind(raw[4]),
			Reg:  raw[5],
			Imm:  uint64(binary.LittleEndian.Uint16(raw[6:8])),
		},
	}
	return insn, 8, true
}

// demoHooks is the minimal EmulatorHooks implementation the demo
// command needs: faults and traps are logged; any fault, and the HLT
// trap, stop the run loop.
type demoHooks struct {
	logger  *slog.Logger
	halted  bool
}

func (h *demoHooks) Fault(f softx86.Fault) {
	h.logger.Error("fault", "kind", f.Kind.String(), "eip", f.EIP, "message", f.Message)
	h.halted = true
}

func (h *demoHooks) Trap(vector uint8) {
	h.logger.Info("trap", "vector", vector)
	if vector == 0xFF {
		h.halted = true
	}
}

func (h *demoHooks) PortIn(port uint16, width softx86.Width) softx86.ShadowValue[uint32] {
	return softx86.Defined[uint32](0)
}

func (h *demoHooks) PortOut(port uint16, width softx86.Width, v softx86.ShadowValue[uint32]) {}

func sampleProgram() []byte {
	// mov eax, 5 ; add eax, 3 ; inc eax ; cmp eax, 9 ; hlt
	prog := []byte{}
	mov := []byte{0x01, 2, byte(softx86.OperandReg), byte(softx86.RegEAX), byte(softx86.OperandImm), 0, 5, 0}
	add := []byte{0x02, 2, byte(softx86.OperandReg), byte(softx86.RegEAX), byte(softx86.OperandImm), 0, 3, 0}
	inc := []byte{0x04, 2, byte(softx86.OperandReg), byte(softx86.RegEAX), byte(softx86.OperandNone), 0, 0, 0}
	cmp := []byte{0x05, 2, byte(softx86.OperandReg), byte(softx86.RegEAX), byte(softx86.OperandImm), 0, 9, 0}
	hlt := []byte{0xFE, 0, 0, 0, 0, 0, 0, 0}
	prog = append(prog, mov...)
	prog = append(prog, add...)
	prog = append(prog, inc...)
	prog = append(prog, cmp...)
	prog = append(prog, hlt...)
	return prog
}

func main() {
	base := flag.Uint("base", 0x1000, "logical base address to load the program at")
	verbose := flag.Bool("verbose", false, "print a register/flag dump after each step")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: softx86run [options]\n\nRuns a small built-in demo program through the integer core.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	program := sampleProgram()

	mem := memtest.New(uint32(*base), uint32(len(program))+64)
	mem.LoadDefined(program)

	hooks := &demoHooks{logger: logger}
	diag := softx86.NewDiagnostics(logger)
	cpu := softx86.NewSoftCPU(mem, hooks, softx86.WithDiagnostics(diag))
	cpu.Registers().SetEIP(uint32(*base))
	cpu.Registers().SetESP(softx86.Defined(uint32(*base) + uint32(len(program)) + 60))

	for !hooks.halted {
		eip := cpu.Registers().EIP()
		insn, size, ok := decodeAt(mem, eip)
		if !ok {
			logger.Error("decode stub: unknown opcode", "eip", eip)
			break
		}
		cpu.Registers().SetEIP(eip + size)
		cpu.Execute(insn)
		if *verbose {
			fmt.Println(cpu.Dump())
		}
	}

	fmt.Println(cpu.Dump())
}
