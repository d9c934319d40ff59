// memtest.go - Reference Flat-Memory MMU for Tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

// Package memtest implements a minimal MMU/Region pair over a single
// flat, host-backed byte slice with parallel per-byte shadow storage.
// It exists to give the integer core something to read and write in
// tests and the demo command; it is not a production memory manager
// and deliberately does not grow paging, protection, or multi-region
// address-space semantics.
package memtest

import (
	"encoding/binary"
	"fmt"

	"github.com/zotley/softx86"
)

// Memory is a single contiguous logical region: [Base, Base+len(data)).
type Memory struct {
	base   uint32
	data   []byte
	shadow []byte
}

// New allocates size bytes at the given logical base address, every
// byte born uninitialized (shadow bit set), matching how a loader would
// see freshly mapped memory before placing a program image into it.
func New(base uint32, size uint32) *Memory {
	m := &Memory{base: base, data: make([]byte, size), shadow: make([]byte, size)}
	for i := range m.shadow {
		m.shadow[i] = 0xFF
	}
	return m
}

// LoadDefined copies program bytes into the region starting at its
// base address and marks every loaded byte defined — the way a loader
// places a code/data image that is known-good, as opposed to memory a
// program merely reserved.
func (m *Memory) LoadDefined(program []byte) {
	copy(m.data, program)
	for i := range program {
		m.shadow[i] = 0
	}
}

func (m *Memory) Base() uint32     { return m.base }
func (m *Memory) Size() uint32     { return uint32(len(m.data)) }
func (m *Memory) BasePtr() []byte  { return m.data }
func (m *Memory) Contains(addr uint32) bool {
	return addr >= m.base && addr < m.base+uint32(len(m.data))
}

func (m *Memory) offset(addr uint32, n int) (int, error) {
	if !m.Contains(addr) || !m.Contains(addr+uint32(n)-1) {
		return 0, fmt.Errorf("memtest: address 0x%08x (+%d) out of range [0x%08x, 0x%08x)", addr, n, m.base, m.base+uint32(len(m.data)))
	}
	return int(addr - m.base), nil
}

func (m *Memory) Read8(addr uint32) softx86.ShadowValue[uint8] {
	off, err := m.offset(addr, 1)
	if err != nil {
		return softx86.Uninitialized[uint8]()
	}
	return softx86.WithShadow(m.data[off], m.shadow[off])
}

func (m *Memory) Write8(addr uint32, v softx86.ShadowValue[uint8]) {
	off, err := m.offset(addr, 1)
	if err != nil {
		return
	}
	m.data[off] = v.Value()
	m.shadow[off] = v.Shadow()
}

func (m *Memory) Read16(addr uint32) softx86.ShadowValue[uint16] {
	off, err := m.offset(addr, 2)
	if err != nil {
		return softx86.Uninitialized[uint16]()
	}
	return softx86.WithShadow(
		binary.LittleEndian.Uint16(m.data[off:]),
		binary.LittleEndian.Uint16(m.shadow[off:]),
	)
}

func (m *Memory) Write16(addr uint32, v softx86.ShadowValue[uint16]) {
	off, err := m.offset(addr, 2)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint16(m.data[off:], v.Value())
	binary.LittleEndian.PutUint16(m.shadow[off:], v.Shadow())
}

func (m *Memory) Read32(addr uint32) softx86.ShadowValue[uint32] {
	off, err := m.offset(addr, 4)
	if err != nil {
		return softx86.Uninitialized[uint32]()
	}
	return softx86.WithShadow(
		binary.LittleEndian.Uint32(m.data[off:]),
		binary.LittleEndian.Uint32(m.shadow[off:]),
	)
}

func (m *Memory) Write32(addr uint32, v softx86.ShadowValue[uint32]) {
	off, err := m.offset(addr, 4)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint32(m.data[off:], v.Value())
	binary.LittleEndian.PutUint32(m.shadow[off:], v.Shadow())
}

func (m *Memory) Read64(addr uint32) softx86.ShadowValue[uint64] {
	off, err := m.offset(addr, 8)
	if err != nil {
		return softx86.Uninitialized[uint64]()
	}
	return softx86.WithShadow(
		binary.LittleEndian.Uint64(m.data[off:]),
		binary.LittleEndian.Uint64(m.shadow[off:]),
	)
}

func (m *Memory) Write64(addr uint32, v softx86.ShadowValue[uint64]) {
	off, err := m.offset(addr, 8)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint64(m.data[off:], v.Value())
	binary.LittleEndian.PutUint64(m.shadow[off:], v.Shadow())
}

func (m *Memory) Read128(addr uint32) softx86.ShadowValue128 {
	off, err := m.offset(addr, 16)
	if err != nil {
		return softx86.ShadowValue128{}
	}
	var v softx86.ShadowValue128
	copy(v.Value[:], m.data[off:off+16])
	copy(v.Shadow[:], m.shadow[off:off+16])
	return v
}

func (m *Memory) Write128(addr uint32, v softx86.ShadowValue128) {
	off, err := m.offset(addr, 16)
	if err != nil {
		return
	}
	copy(m.data[off:off+16], v.Value[:])
	copy(m.shadow[off:off+16], v.Shadow[:])
}

func (m *Memory) Read256(addr uint32) softx86.ShadowValue256 {
	off, err := m.offset(addr, 32)
	if err != nil {
		return softx86.ShadowValue256{}
	}
	var v softx86.ShadowValue256
	copy(v.Value[:], m.data[off:off+32])
	copy(v.Shadow[:], m.shadow[off:off+32])
	return v
}

func (m *Memory) Write256(addr uint32, v softx86.ShadowValue256) {
	off, err := m.offset(addr, 32)
	if err != nil {
		return
	}
	copy(m.data[off:off+32], v.Value[:])
	copy(m.shadow[off:off+32], v.Shadow[:])
}

// RegionFromEIP implements the fetch-cache MMU contract: this package
// only ever has one region, so the lookup is a single Contains check.
func (m *Memory) RegionFromEIP(eip uint32) (softx86.Region, error) {
	if !m.Contains(eip) {
		return nil, fmt.Errorf("memtest: no mapped region contains eip 0x%08x", eip)
	}
	return m, nil
}
