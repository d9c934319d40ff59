// register.go - x86 Register File (GPR aliasing, EFLAGS, EIP)
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// gprCell is one 32-bit storage cell with three overlaid views (full
// 32-bit, low 16-bit, and the two 8-bit halves at byte offsets 0 and 1).
// All views share the same backing value/shadow pair; writing a narrower
// view must leave the untouched bytes of both value and shadow bit for
// bit identical.
type gprCell struct {
	value  uint32
	shadow uint32
}

func (r gprCell) full32() ShadowValue[uint32] {
	return WithShadow(r.value, r.shadow)
}

func (r *gprCell) setFull32(v ShadowValue[uint32]) {
	r.value = v.Value()
	r.shadow = v.Shadow()
}

func (r gprCell) low16() ShadowValue[uint16] {
	return WithShadow(uint16(r.value), uint16(r.shadow))
}

func (r *gprCell) setLow16(v ShadowValue[uint16]) {
	r.value = (r.value &^ 0xFFFF) | uint32(v.Value())
	r.shadow = (r.shadow &^ 0xFFFF) | uint32(v.Shadow())
}

func (r gprCell) low8() ShadowValue[uint8] {
	return WithShadow(uint8(r.value), uint8(r.shadow))
}

func (r *gprCell) setLow8(v ShadowValue[uint8]) {
	r.value = (r.value &^ 0xFF) | uint32(v.Value())
	r.shadow = (r.shadow &^ 0xFF) | uint32(v.Shadow())
}

func (r gprCell) high8() ShadowValue[uint8] {
	return WithShadow(uint8(r.value>>8), uint8(r.shadow>>8))
}

func (r *gprCell) setHigh8(v ShadowValue[uint8]) {
	r.value = (r.value &^ 0xFF00) | (uint32(v.Value()) << 8)
	r.shadow = (r.shadow &^ 0xFF00) | (uint32(v.Shadow()) << 8)
}

// GP32 names the eight general-purpose cells in their decoder-encoding
// order (this is the order ModR/M and opcode-embedded register fields
// use, not alphabetical).
type GP32 uint8

const (
	RegEAX GP32 = iota
	RegECX
	RegEDX
	RegEBX
	RegESP
	RegEBP
	RegESI
	RegEDI
)

// GP8 names the eight 8-bit register encodings. Only EAX/EBX/ECX/EDX
// have a "high" (AH/BH/CH/DH) alias; ESP/EBP/ESI/EDI's low bytes are
// SPL/BPL/SIL/DIL (the 64-bit/REX forms), which this 32-bit-only core
// does not expose — decoders for this core must not emit those.
type GP8 uint8

const (
	RegAL GP8 = iota
	RegCL
	RegDL
	RegBL
	RegAH
	RegCH
	RegDH
	RegBH
)

var gp8Parent = [8]GP32{RegEAX, RegECX, RegEDX, RegEBX, RegEAX, RegECX, RegEDX, RegEBX}
var gp8IsHigh = [8]bool{false, false, false, false, true, true, true, true}

// GP16 names the eight 16-bit register encodings (AX..DI), sharing
// storage with the matching GP32 cell's low half.
type GP16 = GP32

// Seg names the six segment selectors. Segments are plain 16-bit values
// with no shadow: this design does not taint-track segment selectors.
type Seg uint8

const (
	SegES Seg = iota
	SegCS
	SegSS
	SegDS
	SegFS
	SegGS
)

// Flag bit positions within EFLAGS.
const (
	FlagCF uint32 = 1 << 0
	FlagPF uint32 = 1 << 2
	FlagAF uint32 = 1 << 4
	FlagZF uint32 = 1 << 6
	FlagSF uint32 = 1 << 7
	FlagTF uint32 = 1 << 8
	FlagIF uint32 = 1 << 9
	FlagDF uint32 = 1 << 10
	FlagOF uint32 = 1 << 11
)

// RegisterFile holds the eight GP cells, six segment selectors, EFLAGS,
// EIP/base_eip, and the one-bit flags_tainted summary. All registers are
// born fully uninitialized; a loader must explicitly define the stack
// pointer and any registers a program depends on before first fetch.
type RegisterFile struct {
	gpr          [8]gprCell
	segment      [6]uint16
	eflags       uint32
	flagsTainted bool
	eip          uint32
	baseEIP      uint32
}

// NewRegisterFile returns a register file in its power-on state: every
// GP bit tainted, EFLAGS defined at its reset value (IF set), EIP at 0.
func NewRegisterFile() RegisterFile {
	var rf RegisterFile
	for i := range rf.gpr {
		rf.gpr[i] = gprCell{value: 0, shadow: 0xFFFFFFFF}
	}
	rf.eflags = FlagIF
	return rf
}

func (rf *RegisterFile) GPR32(r GP32) ShadowValue[uint32] { return rf.gpr[r].full32() }
func (rf *RegisterFile) SetGPR32(r GP32, v ShadowValue[uint32]) { rf.gpr[r].setFull32(v) }

func (rf *RegisterFile) GPR16(r GP16) ShadowValue[uint16] { return rf.gpr[r].low16() }
func (rf *RegisterFile) SetGPR16(r GP16, v ShadowValue[uint16]) { rf.gpr[r].setLow16(v) }

func (rf *RegisterFile) GPR8(r GP8) ShadowValue[uint8] {
	cell := &rf.gpr[gp8Parent[r]]
	if gp8IsHigh[r] {
		return cell.high8()
	}
	return cell.low8()
}

func (rf *RegisterFile) SetGPR8(r GP8, v ShadowValue[uint8]) {
	cell := &rf.gpr[gp8Parent[r]]
	if gp8IsHigh[r] {
		cell.setHigh8(v)
	} else {
		cell.setLow8(v)
	}
}

func (rf *RegisterFile) Segment(s Seg) uint16        { return rf.segment[s] }
func (rf *RegisterFile) SetSegment(s Seg, v uint16)  { rf.segment[s] = v }

func (rf *RegisterFile) EFLAGS() uint32       { return rf.eflags }
func (rf *RegisterFile) SetEFLAGSRaw(v uint32) { rf.eflags = v }

func (rf *RegisterFile) FlagsTainted() bool { return rf.flagsTainted }

func (rf *RegisterFile) EIP() uint32        { return rf.eip }
func (rf *RegisterFile) SetEIP(v uint32)    { rf.eip = v }
func (rf *RegisterFile) BaseEIP() uint32    { return rf.baseEIP }
func (rf *RegisterFile) SaveBaseEIP()       { rf.baseEIP = rf.eip }

func (rf *RegisterFile) getFlag(bit uint32) bool { return rf.eflags&bit != 0 }
func (rf *RegisterFile) setFlag(bit uint32, set bool) {
	if set {
		rf.eflags |= bit
	} else {
		rf.eflags &^= bit
	}
}

func (rf *RegisterFile) CF() bool { return rf.getFlag(FlagCF) }
func (rf *RegisterFile) PF() bool { return rf.getFlag(FlagPF) }
func (rf *RegisterFile) AF() bool { return rf.getFlag(FlagAF) }
func (rf *RegisterFile) ZF() bool { return rf.getFlag(FlagZF) }
func (rf *RegisterFile) SF() bool { return rf.getFlag(FlagSF) }
func (rf *RegisterFile) TF() bool { return rf.getFlag(FlagTF) }
func (rf *RegisterFile) IF() bool { return rf.getFlag(FlagIF) }
func (rf *RegisterFile) DF() bool { return rf.getFlag(FlagDF) }
func (rf *RegisterFile) OF() bool { return rf.getFlag(FlagOF) }

// EAX..EDI convenience accessors, read constantly by the interpreter's
// string/stack/control handlers.
func (rf *RegisterFile) EAX() ShadowValue[uint32] { return rf.GPR32(RegEAX) }
func (rf *RegisterFile) ECX() ShadowValue[uint32] { return rf.GPR32(RegECX) }
func (rf *RegisterFile) EDX() ShadowValue[uint32] { return rf.GPR32(RegEDX) }
func (rf *RegisterFile) EBX() ShadowValue[uint32] { return rf.GPR32(RegEBX) }
func (rf *RegisterFile) ESP() ShadowValue[uint32] { return rf.GPR32(RegESP) }
func (rf *RegisterFile) EBP() ShadowValue[uint32] { return rf.GPR32(RegEBP) }
func (rf *RegisterFile) ESI() ShadowValue[uint32] { return rf.GPR32(RegESI) }
func (rf *RegisterFile) EDI() ShadowValue[uint32] { return rf.GPR32(RegEDI) }

func (rf *RegisterFile) SetEAX(v ShadowValue[uint32]) { rf.SetGPR32(RegEAX, v) }
func (rf *RegisterFile) SetECX(v ShadowValue[uint32]) { rf.SetGPR32(RegECX, v) }
func (rf *RegisterFile) SetEDX(v ShadowValue[uint32]) { rf.SetGPR32(RegEDX, v) }
func (rf *RegisterFile) SetEBX(v ShadowValue[uint32]) { rf.SetGPR32(RegEBX, v) }
func (rf *RegisterFile) SetESP(v ShadowValue[uint32]) { rf.SetGPR32(RegESP, v) }
func (rf *RegisterFile) SetEBP(v ShadowValue[uint32]) { rf.SetGPR32(RegEBP, v) }
func (rf *RegisterFile) SetESI(v ShadowValue[uint32]) { rf.SetGPR32(RegESI, v) }
func (rf *RegisterFile) SetEDI(v ShadowValue[uint32]) { rf.SetGPR32(RegEDI, v) }
