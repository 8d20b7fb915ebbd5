// cartridge.go - Cartridge memory mapping for the console core.

/*
cartridge.go implements the low-ROM cartridge address translation, SRAM access and
header parsing used by the address-bus router. The mapper owns the raw cartridge image
and an independently-allocated SRAM block; it never reaches back into the bus or CPU,
matching the core's ownership rule that backward references are expressed as plain
method calls rather than parent pointers.

Grounded on original_source/core/src/cartridge.rs: low-ROM is the only fully specified
layout, the checksum routine is advisory only and never changes the recorded layout, and
SRAM/ROM indexing both wrap via modulo on out-of-bounds access rather than erroring.
*/
package cartridge

import "fmt"

// MemoryMap names the cartridge's address-translation layout. Only LoROM is fully
// specified; HiROM/ExHiROM are recognised but translate addresses identically to LoROM
// since the spec gives no bit-shuffle formula for them (an advisory-only distinction).
type MemoryMap int

const (
	LoROM MemoryMap = iota
	HiROM
	ExHiROM
)

func (m MemoryMap) String() string {
	switch m {
	case LoROM:
		return "LoROM"
	case HiROM:
		return "HiROM"
	case ExHiROM:
		return "ExHiROM"
	default:
		return "unknown"
	}
}

const (
	headerTitleOffset   = 0xFFC0
	headerTitleLen      = 21
	headerSRAMSizeIdx   = 0xFFD8
	headerCountryIdx    = 0xFFD9
	headerResetVecLo    = 0xFFFC
	headerResetVecHi    = 0xFFFD
	sramBankLo          = 0x70
	sramBankHi          = 0x7D
	sramOffsetLimit     = 0x8000
	bankMirrorModulus   = 0x800000
)

// Cartridge holds a loaded ROM image, its detected memory map, and the SRAM block
// sized from the header's SRAM-size indicator.
type Cartridge struct {
	data      []byte
	sram      []byte
	memoryMap MemoryMap
}

// New parses header fields out of data and allocates SRAM. data must be at least large
// enough to contain the header at 0xFFC0-0xFFFF; a programmer-contract violation (no
// cartridge, or a cartridge too small to hold a header) panics, per the fail-fast error
// classification for contract violations.
func New(data []byte) *Cartridge {
	if len(data) <= headerResetVecHi {
		panic(fmt.Sprintf("cartridge: image too small to hold a header (%d bytes)", len(data)))
	}
	c := &Cartridge{
		data:      data,
		memoryMap: LoROM,
	}
	sramKiB := uint(1) << data[headerSRAMSizeIdx]
	c.sram = make([]byte, sramKiB*1024)
	return c
}

// Title returns the 21-byte ASCII title embedded at cartridge offset 0xFFC0.
func (c *Cartridge) Title() string {
	end := headerTitleOffset + headerTitleLen
	if end > len(c.data) {
		end = len(c.data)
	}
	return string(c.data[headerTitleOffset:end])
}

// Country returns the raw country-code byte at 0xFFD9.
func (c *Cartridge) Country() byte { return c.data[headerCountryIdx] }

// ResetVector returns the little-endian reset vector at 0xFFFC/0xFFFD.
func (c *Cartridge) ResetVector() uint16 {
	return uint16(c.data[headerResetVecLo]) | uint16(c.data[headerResetVecHi])<<8
}

// MemoryMap reports the cartridge's detected layout. The detection is advisory: this
// mapper always records LoROM unless a future header-driven rule is added, matching the
// original source's behaviour of computing but never acting on the checksum.
func (c *Cartridge) MemoryMap() MemoryMap { return c.memoryMap }

// transformAddress applies the low-ROM address-translation formula from spec.md §4.6.
func transformAddress(addr uint32) uint32 {
	return (addr & 0x7FFF) + ((addr >> 1) & 0x7F8000)
}

// ReadROM reads one byte at the given 24-bit CPU address after low-ROM translation,
// wrapping via modulo on out-of-bounds access rather than erroring.
func (c *Cartridge) ReadROM(addr uint32) byte {
	if len(c.data) == 0 {
		return 0
	}
	idx := transformAddress(addr) % uint32(len(c.data))
	return c.data[idx]
}

// IsSRAMAddress reports whether a full 24-bit address falls in the SRAM window: banks
// 0x70-0x7D, offsets 0x0000-0x7FFF, after mirroring modulo 0x800000.
func IsSRAMAddress(addr uint32) bool {
	addr %= bankMirrorModulus
	bank := (addr >> 16) & 0xFF
	offset := addr & 0xFFFF
	return bank >= sramBankLo && bank <= sramBankHi && offset < sramOffsetLimit
}

// ReadSRAM reads one byte from SRAM, wrapping via modulo the SRAM size.
func (c *Cartridge) ReadSRAM(addr uint32) byte {
	if len(c.sram) == 0 {
		return 0
	}
	return c.sram[addr%uint32(len(c.sram))]
}

// WriteSRAM writes one byte to SRAM, wrapping via modulo the SRAM size.
func (c *Cartridge) WriteSRAM(addr uint32, value byte) {
	if len(c.sram) == 0 {
		return
	}
	c.sram[addr%uint32(len(c.sram))] = value
}

// SRAM returns the raw SRAM block, for savestate section encoding.
func (c *Cartridge) SRAM() []byte { return c.sram }

// LoadSRAM replaces the SRAM block wholesale, for savestate restore. The incoming slice
// is copied so the caller's buffer can be reused or discarded.
func (c *Cartridge) LoadSRAM(data []byte) {
	c.sram = append([]byte(nil), data...)
}

// Reset clears SRAM back to zero. ROM contents and the memory map are immutable for the
// lifetime of a loaded cartridge.
func (c *Cartridge) Reset() {
	for i := range c.sram {
		c.sram[i] = 0
	}
}
