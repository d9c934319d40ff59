// memory.go - MMU and Region Collaborator Interfaces
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

// Region is a contiguous logical-address range backed by host memory,
// returned by the MMU collaborator for the region currently containing
// EIP. Go does not allow generic methods on interfaces, so unlike
// ShadowValue[W] the MMU below exposes one concrete method per cell
// width rather than a single Read[T]/Write[T] pair.
type Region interface {
	// Base is the region's logical base address.
	Base() uint32
	// Size is the region's length in bytes.
	Size() uint32
	// Contains is an inclusive-start, exclusive-end range test.
	Contains(addr uint32) bool
	// BasePtr is the host-backed buffer for direct, shadow-bypassing
	// instruction fetch. Code pages are treated as defined.
	BasePtr() []byte
}

// MMU is the external memory collaborator: it maps logical addresses to
// host-backed regions and supplies per-byte shadow storage. SoftCPU only
// ever calls these methods; it never assumes anything about how the MMU
// resolves logical to host addresses.
type MMU interface {
	Read8(addr uint32) ShadowValue[uint8]
	Read16(addr uint32) ShadowValue[uint16]
	Read32(addr uint32) ShadowValue[uint32]
	Read64(addr uint32) ShadowValue[uint64]
	Read128(addr uint32) ShadowValue128
	Read256(addr uint32) ShadowValue256

	Write8(addr uint32, v ShadowValue[uint8])
	Write16(addr uint32, v ShadowValue[uint16])
	Write32(addr uint32, v ShadowValue[uint32])
	Write64(addr uint32, v ShadowValue[uint64])
	Write128(addr uint32, v ShadowValue128)
	Write256(addr uint32, v ShadowValue256)

	// RegionFromEIP resolves the region containing the given logical
	// address for instruction fetch. An error models the MMU signaling
	// a fault (no mapping, non-executable region).
	RegionFromEIP(eip uint32) (Region, error)
}
