// bitscan.go - x86 Bit Scan Opcode Implementations (BSF/BSR)
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import "math/bits"

// bsfHandler implements BSF: Dst = index of the least significant set
// bit of Src. If Src is zero, ZF is set and Dst is left architecturally
// undefined — this core leaves Dst entirely untouched in that case,
// which is a valid (if arbitrary) choice among the possible undefined
// results, and taints nothing extra since Dst's prior value/shadow
// already reflect whatever it held.
func bsfHandler(c *SoftCPU, insn Instruction) {
	b := c.readOperand(insn.Src, insn.Width)
	masked := b.Value & insn.Width.mask()
	if masked == 0 {
		c.setFlagsWithMask(FlagZF, FlagZF)
		c.taintFlagsFrom(b)
		return
	}
	idx := bits.TrailingZeros64(masked)
	c.setFlagsWithMask(0, FlagZF)
	c.taintFlagsFrom(b)
	c.writeOperand(insn.Dst, insn.Width, Operand{Value: uint64(idx), Shadow: taintMask(b.IsUninitialized(), insn.Width)})
}

// bsrHandler implements BSR: Dst = index of the most significant set
// bit of Src, same zero-source ZF/undefined-destination contract as
// BSF.
func bsrHandler(c *SoftCPU, insn Instruction) {
	b := c.readOperand(insn.Src, insn.Width)
	masked := b.Value & insn.Width.mask()
	if masked == 0 {
		c.setFlagsWithMask(FlagZF, FlagZF)
		c.taintFlagsFrom(b)
		return
	}
	idx := 63 - bits.LeadingZeros64(masked)
	c.setFlagsWithMask(0, FlagZF)
	c.taintFlagsFrom(b)
	c.writeOperand(insn.Dst, insn.Width, Operand{Value: uint64(idx), Shadow: taintMask(b.IsUninitialized(), insn.Width)})
}

func init() {
	register(map[string]HandlerFunc{
		"BSF": bsfHandler,
		"BSR": bsrHandler,
	})
}
