// fetchcache.go - Instruction Fetch Cache
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import "encoding/binary"

// FetchCache caches the region currently containing EIP plus its host
// buffer, so per-byte instruction fetch is O(1) across a hot basic
// block. Invariant: whenever region is non-nil, it contains EIP. Any
// jump that steps out of the region invalidates the cache; it is
// rebuilt lazily on the next fetch.
type FetchCache struct {
	region Region
	base   []byte
}

func (fc *FetchCache) invalidate() {
	fc.region = nil
	fc.base = nil
}

func (fc *FetchCache) ensure(mmu MMU, eip uint32) *Fault {
	if fc.region != nil && fc.region.Contains(eip) {
		return nil
	}
	region, err := mmu.RegionFromEIP(eip)
	if err != nil {
		fc.invalidate()
		return &Fault{Kind: MemoryFault, Message: err.Error(), EIP: eip}
	}
	fc.region = region
	fc.base = region.BasePtr()
	return nil
}

// fetchN reads n bytes at eip from the cached region, refreshing the
// cache first if needed. Instruction bytes bypass shadow bookkeeping
// entirely — code pages are treated as defined, never uninitialized.
func (fc *FetchCache) fetchN(mmu MMU, eip uint32, n int) ([]byte, *Fault) {
	if f := fc.ensure(mmu, eip); f != nil {
		return nil, f
	}
	off := eip - fc.region.Base()
	if uint32(len(fc.base)) < off+uint32(n) {
		fc.invalidate()
		return nil, &Fault{Kind: MemoryFault, Message: "instruction fetch past end of region", EIP: eip}
	}
	return fc.base[off : off+uint32(n)], nil
}

// CanRead always reports false: the byte stream is unbounded from the
// decoder's point of view — fetch either succeeds or faults.
func (c *SoftCPU) CanRead() bool { return false }

// Read8 fetches a byte at EIP and advances EIP by one.
func (c *SoftCPU) Read8() uint8 {
	b, f := c.fetch.fetchN(c.mmu, c.regs.eip, 1)
	if f != nil {
		c.raiseFault(*f)
		return 0
	}
	c.regs.eip++
	return b[0]
}

// Read16 fetches a little-endian word at EIP and advances EIP by two.
func (c *SoftCPU) Read16() uint16 {
	b, f := c.fetch.fetchN(c.mmu, c.regs.eip, 2)
	if f != nil {
		c.raiseFault(*f)
		return 0
	}
	c.regs.eip += 2
	return binary.LittleEndian.Uint16(b)
}

// Read32 fetches a little-endian dword at EIP and advances EIP by four.
func (c *SoftCPU) Read32() uint32 {
	b, f := c.fetch.fetchN(c.mmu, c.regs.eip, 4)
	if f != nil {
		c.raiseFault(*f)
		return 0
	}
	c.regs.eip += 4
	return binary.LittleEndian.Uint32(b)
}

// Read64 fetches a little-endian qword at EIP and advances EIP by eight.
func (c *SoftCPU) Read64() uint64 {
	b, f := c.fetch.fetchN(c.mmu, c.regs.eip, 8)
	if f != nil {
		c.raiseFault(*f)
		return 0
	}
	c.regs.eip += 8
	return binary.LittleEndian.Uint64(b)
}
