// coprocessor.go - FPU/VPU Coprocessor Interfaces
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// FPU and VPU are the x87/MMX/SSE and vector coprocessors. Their
// internal state is out of scope for this core; SoftCPU
// only forwards the handful of operations where integer and
// floating-point state interact directly.
type FPU interface {
	// StatusWord backs FNSTSW_AX, which writes the x87 status word into AX.
	StatusWord() uint16
	// CompareFlags backs the FCOMI family, which writes integer
	// ZF/PF/CF directly from an x87 comparison.
	CompareFlags() (zf, pf, cf bool)
}

type VPU interface {
	// FeatureBits backs the SSE feature bits CPUID reports.
	FeatureBits() uint32
}

// NullFPU and NullVPU let SoftCPU run standalone (as in tests and the
// demo command) without a real coprocessor attached: FNSTSW_AX reads
// back zero, FCOMI's borrowed flags are all clear, and CPUID reports no
// SSE features.
type NullFPU struct{}

func (NullFPU) StatusWord() uint16                { return 0 }
func (NullFPU) CompareFlags() (bool, bool, bool)  { return false, false, false }

type NullVPU struct{}

func (NullVPU) FeatureBits() uint32 { return 0 }
