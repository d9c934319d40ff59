// shadow.go - Tainted-value primitives: the generic ShadowValue pair and its fixed-width SSE forms
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

// Package softx86 implements the integer core of a taint-tracking x86
// emulator: register file, flag engine, instruction fetch cache, and the
// per-opcode interpreter. The MMU, decoder, and FPU/MMX/SSE/VPU
// coprocessors are external collaborators, represented here only by the
// interfaces this package consumes.
package softx86

import "golang.org/x/exp/constraints"

// ShadowValue pairs a value of width W with a same-width shadow, where a
// set shadow bit marks the corresponding value bit as derived from
// uninitialized input. Arithmetic over ShadowValue is never implicit:
// every primitive that mixes two ShadowValues must say explicitly how
// their shadows combine.
type ShadowValue[W constraints.Unsigned] struct {
	value  W
	shadow W
}

// Defined wraps v with a fully-defined (zero) shadow.
func Defined[W constraints.Unsigned](v W) ShadowValue[W] {
	return ShadowValue[W]{value: v}
}

// WithShadow pairs an explicit value and shadow.
func WithShadow[W constraints.Unsigned](value, shadow W) ShadowValue[W] {
	return ShadowValue[W]{value: value, shadow: shadow}
}

// Uninitialized returns a value whose every bit is tainted.
func Uninitialized[W constraints.Unsigned]() ShadowValue[W] {
	var allOnes W
	allOnes--
	return ShadowValue[W]{shadow: allOnes}
}

func (s ShadowValue[W]) Value() W  { return s.value }
func (s ShadowValue[W]) Shadow() W { return s.shadow }

// IsUninitialized reports whether any bit of the value is tainted.
func (s ShadowValue[W]) IsUninitialized() bool { return s.shadow != 0 }

// Taintable is satisfied by anything taint_flags_from can read a taint
// bit from — ShadowValue[W] for every width, and the wider Operand type
// the ALU engine operates on.
type Taintable interface {
	IsUninitialized() bool
}

// ShadowValue128 and ShadowValue256 back the wide memory cells the MMU
// bridge exposes (SSE/AVX operand sizes). The integer core never does
// arithmetic on these directly — it only forwards them to the VPU — so
// they carry no algebra beyond the taint predicate.
type ShadowValue128 struct {
	Value  [16]byte
	Shadow [16]byte
}

func (s ShadowValue128) IsUninitialized() bool {
	for _, b := range s.Shadow {
		if b != 0 {
			return true
		}
	}
	return false
}

type ShadowValue256 struct {
	Value  [32]byte
	Shadow [32]byte
}

func (s ShadowValue256) IsUninitialized() bool {
	for _, b := range s.Shadow {
		if b != 0 {
			return true
		}
	}
	return false
}
